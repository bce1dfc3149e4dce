package models

// PaymentStatus defines the lifecycle states of a payment attempt.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// IsTerminal reports whether the status is a final state.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

// BillStatus defines the settlement states of a bill.
type BillStatus string

const (
	BillPending BillStatus = "pending"
	BillPartial BillStatus = "partial"
	BillPaid    BillStatus = "paid"
)

// Gender defines the possible gender values for a student.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
	Other  Gender = "other"
)

// RelationshipType defines the relationship of a parent/guardian to a student.
type RelationshipType string

const (
	Father   RelationshipType = "father"
	Mother   RelationshipType = "mother"
	Guardian RelationshipType = "guardian"
	OtherRel RelationshipType = "other"
)
