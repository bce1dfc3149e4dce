package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BRian-210/Karumande/app/config"
	"github.com/BRian-210/Karumande/app/logging"
)

const (
	darajaSandboxURL = "https://sandbox.safaricom.co.ke"
	darajaLiveURL    = "https://api.safaricom.co.ke"

	// ResponseCode the provider returns when it has accepted an STK push
	// for processing. Acceptance is a promise, not a confirmation; the
	// outcome arrives later on the callback.
	darajaAcceptedCode = "0"
)

// ErrMissingCredentials is returned when the Daraja consumer key/secret or
// shortcode/passkey are not configured.
var ErrMissingCredentials = errors.New("missing Daraja credentials")

// AuthError is a credential failure against the gateway: credentials not
// configured locally, or rejected by the provider's token endpoint. It wraps
// ErrMissingCredentials when the failure is local configuration.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return "daraja auth: " + e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

func errMissingCredentials(what string) *AuthError {
	return &AuthError{Message: what + " not configured", Err: ErrMissingCredentials}
}

// GatewayError is a rejection from the Daraja API itself, as opposed to a
// transport failure reaching it.
type GatewayError struct {
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("daraja: %s (%s)", e.Message, e.Code)
	}
	return "daraja: " + e.Message
}

// STKPushRequest carries the inputs for a push-payment prompt.
type STKPushRequest struct {
	Phone            string // canonical 254... format
	Amount           float64
	AccountReference string
	Description      string
	CallbackURL      string
}

// STKPushResponse holds the correlation identifiers Daraja returns when it
// accepts a push request.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// DarajaClient talks to the Safaricom Daraja API.
type DarajaClient struct {
	cfg     config.DarajaConfig
	client  *http.Client
	baseURL string
}

// NewDarajaClient builds a client for the configured environment.
func NewDarajaClient(cfg config.DarajaConfig) *DarajaClient {
	baseURL := darajaSandboxURL
	if cfg.Env == "live" {
		baseURL = darajaLiveURL
	}
	return &DarajaClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
	}
}

// AccessToken exchanges the consumer credentials for a short-lived bearer
// token. Tokens are not cached; STK push is a low-frequency, human-triggered
// action and a fresh token per call keeps this stateless.
func (d *DarajaClient) AccessToken(ctx context.Context) (string, error) {
	if d.cfg.ConsumerKey == "" || d.cfg.ConsumerSecret == "" {
		return "", errMissingCredentials("consumer key/secret")
	}

	url := d.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(d.cfg.ConsumerKey, d.cfg.ConsumerSecret)

	res, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", &AuthError{Message: fmt.Sprintf("token request failed with status %d", res.StatusCode)}
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode token response: %v", err)
	}
	if body.AccessToken == "" {
		return "", &AuthError{Message: "empty access token in response"}
	}
	return body.AccessToken, nil
}

// buildPassword derives the Lipa Na M-Pesa password for a request: the
// shortcode, passkey and timestamp concatenated and base64-encoded.
func buildPassword(shortCode, passKey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passKey + timestamp))
}

// STKPush asks Daraja to prompt the payer's phone for the amount. The money
// movement is asynchronous; the returned identifiers are what the later
// callback is matched against.
func (d *DarajaClient) STKPush(ctx context.Context, push STKPushRequest) (*STKPushResponse, error) {
	if d.cfg.ShortCode == "" || d.cfg.PassKey == "" {
		return nil, errMissingCredentials("shortcode/passkey")
	}

	token, err := d.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format("20060102150405")

	accountReference := push.AccountReference
	if accountReference == "" {
		accountReference = d.cfg.AccountReference
	}
	description := push.Description
	if description == "" {
		description = "Fees"
	}
	callbackURL := push.CallbackURL
	if callbackURL == "" {
		callbackURL = d.cfg.CallbackURL
	}

	payload := map[string]interface{}{
		"BusinessShortCode": d.cfg.ShortCode,
		"Password":          buildPassword(d.cfg.ShortCode, d.cfg.PassKey, timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            push.Amount,
		"PartyA":            push.Phone,
		"PartyB":            d.cfg.ShortCode,
		"PhoneNumber":       push.Phone,
		"CallBackURL":       callbackURL,
		"AccountReference":  accountReference,
		"TransactionDesc":   description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	logging.GetLogger().Debug("issuing STK push",
		zap.String("phone", push.Phone),
		zap.Float64("amount", push.Amount),
		zap.String("account_reference", accountReference),
	)

	res, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	var stkRes struct {
		STKPushResponse
		ErrorCode    string `json:"errorCode"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(raw, &stkRes); err != nil {
		return nil, fmt.Errorf("failed to decode STK push response: %v", err)
	}

	if res.StatusCode != http.StatusOK || stkRes.ResponseCode != darajaAcceptedCode {
		gerr := &GatewayError{Code: stkRes.ErrorCode, Message: stkRes.ErrorMessage}
		if gerr.Message == "" {
			gerr.Message = stkRes.ResponseDescription
		}
		if gerr.Message == "" {
			gerr.Message = "STK push failed"
		}
		logging.GetLogger().Warn("STK push rejected",
			zap.String("error_code", gerr.Code),
			zap.String("error_message", gerr.Message),
			zap.Int("http_status", res.StatusCode),
		)
		return nil, gerr
	}

	logging.GetLogger().Info("STK push accepted",
		zap.String("merchant_request_id", stkRes.MerchantRequestID),
		zap.String("checkout_request_id", stkRes.CheckoutRequestID),
	)
	return &stkRes.STKPushResponse, nil
}
