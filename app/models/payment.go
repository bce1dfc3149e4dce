package models

import (
	"encoding/json"
	"time"
)

// Payment represents one mobile-money payment attempt against a student's
// fees. It is created in pending state when the STK push is initiated and
// moves exactly once to success or failed, either through the provider
// callback or through manual confirmation by staff.
type Payment struct {
	ID                string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	StudentID         string          `json:"student_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	BillID            *string         `json:"bill_id,omitempty" gorm:"index;type:uuid"`
	TransactionID     *string         `json:"transaction_id,omitempty" gorm:"uniqueIndex"` // provider receipt number, absent while pending
	MerchantRequestID *string         `json:"merchant_request_id,omitempty" gorm:"index"`
	CheckoutRequestID *string         `json:"checkout_request_id,omitempty" gorm:"index"`
	Phone             string          `json:"phone" gorm:"type:varchar(20)"` // canonical 254... format
	Amount            float64         `json:"amount" gorm:"not null;type:numeric" validate:"required,gt=0"`
	Status            PaymentStatus   `json:"status" gorm:"not null;default:'pending';index;type:varchar(20)"`
	RawCallback       json.RawMessage `json:"raw_callback,omitempty" gorm:"type:jsonb"` // provider payload kept verbatim for audit
	CreatedAt         time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"autoUpdateTime"`

	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID;references:ID"`
	Bill    *Bill    `json:"bill,omitempty" gorm:"foreignKey:BillID;references:ID"`
}

// TerminalOutcome is the result of a provider callback or a manual
// confirmation, keyed by the provider's correlation identifiers.
type TerminalOutcome struct {
	MerchantRequestID string
	CheckoutRequestID string
	Status            PaymentStatus
	TransactionID     *string
	Amount            *float64 // settled amount when the provider reports one
	RawCallback       json.RawMessage
}

// ApplyTerminalStatus applies a terminal outcome to the payment in memory.
// A payment that is already terminal is left untouched and reports
// applied=false: a payment moves pending to success or pending to failed,
// never between terminal states, no matter how often a delivery is replayed.
// firstSuccess is true only for the move into success, which is the caller's
// cue to credit the bill exactly once. The database layer performs the same
// decision under a row lock; this helper holds the rules.
func (p *Payment) ApplyTerminalStatus(outcome TerminalOutcome) (firstSuccess, applied bool) {
	if p.Status.IsTerminal() {
		return false, false
	}

	p.Status = outcome.Status
	if outcome.TransactionID != nil {
		p.TransactionID = outcome.TransactionID
	}
	if outcome.MerchantRequestID != "" {
		merchantRequestID := outcome.MerchantRequestID
		p.MerchantRequestID = &merchantRequestID
	}
	if outcome.Amount != nil {
		p.Amount = *outcome.Amount
	}
	if outcome.RawCallback != nil {
		p.RawCallback = outcome.RawCallback
	}
	return outcome.Status == PaymentSuccess, true
}
