package database

import (
	"database/sql"
	"time"

	"github.com/BRian-210/Karumande/app/models"
)

const paymentColumns = `id, student_id, bill_id, transaction_id, merchant_request_id, checkout_request_id,
			phone, amount, status, raw_callback, created_at, updated_at`

func scanPayment(row interface {
	Scan(dest ...interface{}) error
}) (*models.Payment, error) {
	p := &models.Payment{}
	var studentID sql.NullString
	var status string
	var raw []byte
	err := row.Scan(
		&p.ID, &studentID, &p.BillID, &p.TransactionID, &p.MerchantRequestID, &p.CheckoutRequestID,
		&p.Phone, &p.Amount, &status, &raw, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.StudentID = studentID.String
	p.Status = models.PaymentStatus(status)
	p.RawCallback = raw
	return p, nil
}

// CreatePayment records a pending payment attempt. It runs before the STK
// push so that a crash mid-call still leaves a traceable record.
func CreatePayment(db *sql.DB, payment *models.Payment) error {
	query := `INSERT INTO payments (student_id, bill_id, phone, amount, status)
			  VALUES (NULLIF($1, ''), $2, $3, $4, $5)
			  RETURNING id, created_at, updated_at`
	return db.QueryRow(query, payment.StudentID, payment.BillID, payment.Phone,
		payment.Amount, string(payment.Status)).
		Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
}

// SetPaymentCorrelation stores the identifiers the provider returned at
// initiation time; the asynchronous callback is matched against them.
func SetPaymentCorrelation(db *sql.DB, paymentID, merchantRequestID, checkoutRequestID string) error {
	query := `UPDATE payments SET merchant_request_id = $2, checkout_request_id = $3, updated_at = NOW()
			  WHERE id = $1`
	_, err := db.Exec(query, paymentID, merchantRequestID, checkoutRequestID)
	return err
}

// MarkPaymentFailed moves a payment to failed without callback data, used
// when the gateway declines or is unreachable during initiation.
func MarkPaymentFailed(db *sql.DB, paymentID string) error {
	query := `UPDATE payments SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := db.Exec(query, paymentID, string(models.PaymentFailed))
	return err
}

func GetPaymentByID(db *sql.DB, id string) (*models.Payment, error) {
	return scanPayment(db.QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

func GetPaymentsByStudent(db *sql.DB, studentID string) ([]*models.Payment, error) {
	rows, err := db.Query(`SELECT `+paymentColumns+` FROM payments WHERE student_id = $1 ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			continue
		}
		payments = append(payments, p)
	}

	if payments == nil {
		payments = []*models.Payment{}
	}
	return payments, nil
}

// ApplyTerminalOutcome settles a payment from a provider callback, matched
// by its checkout request id. The row is locked while the transition is
// decided, so concurrent deliveries of the same callback serialize; the
// returned firstSuccess flag is true only for the delivery that moved the
// payment from pending to success, which is the caller's cue to credit the
// bill exactly once. A callback with no matching payment creates one with no
// bill attached rather than being dropped (callbacks can race ahead of the
// initiating request's own writes).
func ApplyTerminalOutcome(db *sql.DB, outcome models.TerminalOutcome) (*models.Payment, bool, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	existing, err := scanPayment(tx.QueryRow(
		`SELECT `+paymentColumns+` FROM payments WHERE checkout_request_id = $1 FOR UPDATE`,
		outcome.CheckoutRequestID))

	if err == sql.ErrNoRows {
		amount := 0.0
		if outcome.Amount != nil {
			amount = *outcome.Amount
		}
		payment := &models.Payment{
			MerchantRequestID: &outcome.MerchantRequestID,
			CheckoutRequestID: &outcome.CheckoutRequestID,
			TransactionID:     outcome.TransactionID,
			Amount:            amount,
			Status:            outcome.Status,
			RawCallback:       outcome.RawCallback,
		}
		err = tx.QueryRow(
			`INSERT INTO payments (merchant_request_id, checkout_request_id, transaction_id, amount, status, raw_callback)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, created_at, updated_at`,
			payment.MerchantRequestID, payment.CheckoutRequestID, payment.TransactionID,
			payment.Amount, string(payment.Status), []byte(payment.RawCallback)).
			Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
		if err != nil {
			return nil, false, err
		}
		if err := tx.Commit(); err != nil {
			return nil, false, err
		}
		// No bill is associated, so there is nothing to credit even on success.
		return payment, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	firstSuccess, applied := existing.ApplyTerminalStatus(outcome)
	if !applied {
		// Replay against a settled payment: acknowledge without touching it.
		if err := tx.Commit(); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	existing.UpdatedAt = time.Now()

	_, err = tx.Exec(
		`UPDATE payments SET status = $2, transaction_id = $3, merchant_request_id = $4,
			amount = $5, raw_callback = $6, updated_at = NOW()
		 WHERE id = $1`,
		existing.ID, string(existing.Status), existing.TransactionID,
		existing.MerchantRequestID, existing.Amount, []byte(existing.RawCallback))
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return existing, firstSuccess, nil
}

// ConfirmPaymentManually is the staff equivalent of the callback path, keyed
// by payment id instead of correlation id. Same transition rules: only a
// pending payment can move, and only the first move to success reports
// firstSuccess.
func ConfirmPaymentManually(db *sql.DB, paymentID string, status models.PaymentStatus, amount *float64) (*models.Payment, bool, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	payment, err := scanPayment(tx.QueryRow(
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, paymentID))
	if err != nil {
		return nil, false, err
	}

	firstSuccess, applied := payment.ApplyTerminalStatus(models.TerminalOutcome{
		Status: status,
		Amount: amount,
	})
	if !applied {
		if err := tx.Commit(); err != nil {
			return nil, false, err
		}
		return payment, false, nil
	}

	_, err = tx.Exec(`UPDATE payments SET status = $2, amount = $3, updated_at = NOW() WHERE id = $1`,
		payment.ID, string(payment.Status), payment.Amount)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return payment, firstSuccess, nil
}
