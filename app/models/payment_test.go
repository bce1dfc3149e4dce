package models

import (
	"encoding/json"
	"testing"
)

func TestApplyTerminalStatus(t *testing.T) {
	receipt := "SCM1XYZ789"
	amount := 10000.0

	tests := []struct {
		name             string
		current          PaymentStatus
		outcome          PaymentStatus
		wantFirstSuccess bool
		wantApplied      bool
		wantStatus       PaymentStatus
	}{
		{"pending to success", PaymentPending, PaymentSuccess, true, true, PaymentSuccess},
		{"pending to failed", PaymentPending, PaymentFailed, false, true, PaymentFailed},
		{"success replay is a no-op", PaymentSuccess, PaymentSuccess, false, false, PaymentSuccess},
		{"success never becomes failed", PaymentSuccess, PaymentFailed, false, false, PaymentSuccess},
		{"failed never becomes success", PaymentFailed, PaymentSuccess, false, false, PaymentFailed},
		{"failed replay is a no-op", PaymentFailed, PaymentFailed, false, false, PaymentFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payment{ID: "payment-1", Status: tt.current, Amount: 500}
			firstSuccess, applied := p.ApplyTerminalStatus(TerminalOutcome{Status: tt.outcome})
			if firstSuccess != tt.wantFirstSuccess {
				t.Errorf("firstSuccess = %v, want %v", firstSuccess, tt.wantFirstSuccess)
			}
			if applied != tt.wantApplied {
				t.Errorf("applied = %v, want %v", applied, tt.wantApplied)
			}
			if p.Status != tt.wantStatus {
				t.Errorf("status = %v, want %v", p.Status, tt.wantStatus)
			}
		})
	}

	t.Run("applied outcome carries the settlement fields", func(t *testing.T) {
		raw := json.RawMessage(`{"Body":{}}`)
		p := &Payment{Status: PaymentPending, Amount: 500}
		firstSuccess, applied := p.ApplyTerminalStatus(TerminalOutcome{
			MerchantRequestID: "mr-1",
			Status:            PaymentSuccess,
			TransactionID:     &receipt,
			Amount:            &amount,
			RawCallback:       raw,
		})
		if !firstSuccess || !applied {
			t.Fatalf("firstSuccess=%v applied=%v, want both true", firstSuccess, applied)
		}
		if p.TransactionID == nil || *p.TransactionID != receipt {
			t.Errorf("transaction id = %v", p.TransactionID)
		}
		if p.MerchantRequestID == nil || *p.MerchantRequestID != "mr-1" {
			t.Errorf("merchant request id = %v", p.MerchantRequestID)
		}
		if p.Amount != amount {
			t.Errorf("amount = %v, want %v", p.Amount, amount)
		}
		if len(p.RawCallback) == 0 {
			t.Error("raw callback not preserved")
		}
	})

	t.Run("rejected replay leaves every field untouched", func(t *testing.T) {
		p := &Payment{Status: PaymentSuccess, Amount: 500, TransactionID: &receipt}
		other := "OTHER123"
		lower := 1.0
		if _, applied := p.ApplyTerminalStatus(TerminalOutcome{
			Status:        PaymentFailed,
			TransactionID: &other,
			Amount:        &lower,
		}); applied {
			t.Fatal("terminal payment accepted a new outcome")
		}
		if *p.TransactionID != receipt || p.Amount != 500 || p.Status != PaymentSuccess {
			t.Errorf("payment mutated: %+v", p)
		}
	})
}
