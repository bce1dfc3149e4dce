package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BRian-210/Karumande/app/config"
)

func testDarajaClient(t *testing.T, handler http.Handler) (*DarajaClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DarajaConfig{
		Env:            "sandbox",
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		ShortCode:      "174379",
		PassKey:        "passkey",
		CallbackURL:    "https://example.com/payments/callback",
	}
	return &DarajaClient{
		cfg:     cfg,
		client:  srv.Client(),
		baseURL: srv.URL,
	}, srv
}

func TestAccessToken(t *testing.T) {
	t.Run("sends basic auth and decodes token", func(t *testing.T) {
		client, _ := testDarajaClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "key" || pass != "secret" {
				t.Errorf("unexpected basic auth: %q/%q ok=%v", user, pass, ok)
			}
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123", "expires_in": "3599"})
		}))

		token, err := client.AccessToken(context.Background())
		if err != nil {
			t.Fatalf("AccessToken: %v", err)
		}
		if token != "tok-123" {
			t.Errorf("token = %q, want %q", token, "tok-123")
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		client, _ := testDarajaClient(t, http.NotFoundHandler())
		client.cfg.ConsumerKey = ""

		_, err := client.AccessToken(context.Background())
		if !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("err = %v, want ErrMissingCredentials", err)
		}
		var aerr *AuthError
		if !errors.As(err, &aerr) {
			t.Errorf("err = %v, want *AuthError", err)
		}
	})

	t.Run("rejected credentials are an auth error", func(t *testing.T) {
		client, _ := testDarajaClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := client.AccessToken(context.Background())
		var aerr *AuthError
		if !errors.As(err, &aerr) {
			t.Fatalf("err = %v, want *AuthError", err)
		}
		if errors.Is(err, ErrMissingCredentials) {
			t.Error("provider rejection must not read as missing local configuration")
		}
	})
}

func TestSTKPush(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		var captured map[string]interface{}
		client, _ := testDarajaClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/oauth/v1/generate" {
				json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
				return
			}
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("Authorization = %q", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			json.NewEncoder(w).Encode(map[string]string{
				"MerchantRequestID":   "mr-1",
				"CheckoutRequestID":   "cr-1",
				"ResponseCode":        "0",
				"ResponseDescription": "Success. Request accepted for processing",
			})
		}))

		res, err := client.STKPush(context.Background(), STKPushRequest{
			Phone:            "254712345678",
			Amount:           1500,
			AccountReference: "bill-1",
			Description:      "Fees payment",
		})
		if err != nil {
			t.Fatalf("STKPush: %v", err)
		}
		if res.CheckoutRequestID != "cr-1" || res.MerchantRequestID != "mr-1" {
			t.Errorf("unexpected correlation ids: %+v", res)
		}

		if captured["TransactionType"] != "CustomerPayBillOnline" {
			t.Errorf("TransactionType = %v", captured["TransactionType"])
		}
		if captured["PartyA"] != "254712345678" || captured["PhoneNumber"] != "254712345678" {
			t.Errorf("phone fields = %v / %v", captured["PartyA"], captured["PhoneNumber"])
		}
		if captured["AccountReference"] != "bill-1" {
			t.Errorf("AccountReference = %v", captured["AccountReference"])
		}
		if captured["CallBackURL"] != client.cfg.CallbackURL {
			t.Errorf("CallBackURL = %v", captured["CallBackURL"])
		}

		// Password must be base64(shortcode + passkey + timestamp) with the
		// timestamp echoed in the request.
		timestamp, _ := captured["Timestamp"].(string)
		if _, err := time.Parse("20060102150405", timestamp); err != nil {
			t.Errorf("Timestamp %q not in expected format: %v", timestamp, err)
		}
		wantPassword := base64.StdEncoding.EncodeToString([]byte("174379" + "passkey" + timestamp))
		if captured["Password"] != wantPassword {
			t.Errorf("Password = %v, want %v", captured["Password"], wantPassword)
		}
	})

	t.Run("declined", func(t *testing.T) {
		client, _ := testDarajaClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/oauth/v1/generate" {
				json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
				return
			}
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{
				"errorCode":    "500.001.1001",
				"errorMessage": "Invalid Amount",
			})
		}))

		_, err := client.STKPush(context.Background(), STKPushRequest{Phone: "254712345678", Amount: 0})
		var gerr *GatewayError
		if !errors.As(err, &gerr) {
			t.Fatalf("err = %v, want *GatewayError", err)
		}
		if gerr.Code != "500.001.1001" || gerr.Message != "Invalid Amount" {
			t.Errorf("gateway error = %+v", gerr)
		}
	})

	t.Run("missing shortcode", func(t *testing.T) {
		client, _ := testDarajaClient(t, http.NotFoundHandler())
		client.cfg.ShortCode = ""

		_, err := client.STKPush(context.Background(), STKPushRequest{Phone: "254712345678", Amount: 100})
		if !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("err = %v, want ErrMissingCredentials", err)
		}
		var aerr *AuthError
		if !errors.As(err, &aerr) {
			t.Errorf("err = %v, want *AuthError", err)
		}
	})
}

func TestBuildPassword(t *testing.T) {
	got := buildPassword("174379", "passkey", "20260115103000")
	want := base64.StdEncoding.EncodeToString([]byte("174379passkey20260115103000"))
	if got != want {
		t.Errorf("buildPassword = %q, want %q", got, want)
	}
}
