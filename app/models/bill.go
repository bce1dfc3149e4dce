package models

import "time"

// Bill represents the fees owed by a student for a term. Bills are created by
// the fee-structure workflow and settled through payments; they are never
// deleted, only superseded by bills for later terms.
type Bill struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	StudentID   string     `json:"student_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	Term        string     `json:"term" gorm:"type:varchar(50)"` // e.g., "2026 Term 1"
	Description string     `json:"description" gorm:"type:text"`
	Amount      float64    `json:"amount" gorm:"not null;type:numeric" validate:"required,gte=0"`
	AmountPaid  float64    `json:"amount_paid" gorm:"not null;type:numeric;default:0" validate:"gte=0"`
	Balance     float64    `json:"balance" gorm:"not null;type:numeric" validate:"gte=0"`
	Status      BillStatus `json:"status" gorm:"not null;default:'pending';type:varchar(20)"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID;references:ID"`
}

// DeriveBillStatus returns the status implied by the amounts: paid when
// nothing is outstanding, partial when some but not all has been paid.
func DeriveBillStatus(amount, amountPaid float64) BillStatus {
	switch {
	case amountPaid >= amount:
		return BillPaid
	case amountPaid > 0:
		return BillPartial
	default:
		return BillPending
	}
}

// ApplyCredit credits a payment amount to the bill, clamping so the amount
// paid never exceeds the amount owed, and re-derives balance and status.
// The database performs the same arithmetic in a single conditional update;
// this helper exists for callers that already hold the row.
func (b *Bill) ApplyCredit(amount float64) {
	b.AmountPaid += amount
	if b.AmountPaid > b.Amount {
		b.AmountPaid = b.Amount
	}
	b.Balance = b.Amount - b.AmountPaid
	if b.Balance < 0 {
		b.Balance = 0
	}
	b.Status = DeriveBillStatus(b.Amount, b.AmountPaid)
}
