package database

import (
	"database/sql"

	"github.com/BRian-210/Karumande/app/models"
)

func CreateBill(db *sql.DB, bill *models.Bill) error {
	bill.Balance = bill.Amount - bill.AmountPaid
	if bill.Balance < 0 {
		bill.Balance = 0
	}
	bill.Status = models.DeriveBillStatus(bill.Amount, bill.AmountPaid)

	query := `INSERT INTO bills (student_id, term, description, amount, amount_paid, balance, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id, created_at, updated_at`
	return db.QueryRow(query, bill.StudentID, bill.Term, bill.Description,
		bill.Amount, bill.AmountPaid, bill.Balance, string(bill.Status)).
		Scan(&bill.ID, &bill.CreatedAt, &bill.UpdatedAt)
}

func GetBillByID(db *sql.DB, id string) (*models.Bill, error) {
	bill := &models.Bill{}
	query := `SELECT id, student_id, term, description, amount, amount_paid, balance, status, created_at, updated_at
			  FROM bills WHERE id = $1`

	var status string
	err := db.QueryRow(query, id).Scan(
		&bill.ID, &bill.StudentID, &bill.Term, &bill.Description,
		&bill.Amount, &bill.AmountPaid, &bill.Balance, &status,
		&bill.CreatedAt, &bill.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	bill.Status = models.BillStatus(status)
	return bill, nil
}

func GetBillsByStudent(db *sql.DB, studentID string) ([]*models.Bill, error) {
	query := `SELECT id, student_id, term, description, amount, amount_paid, balance, status, created_at, updated_at
			  FROM bills WHERE student_id = $1
			  ORDER BY created_at DESC`

	rows, err := db.Query(query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill := &models.Bill{}
		var status string
		err := rows.Scan(
			&bill.ID, &bill.StudentID, &bill.Term, &bill.Description,
			&bill.Amount, &bill.AmountPaid, &bill.Balance, &status,
			&bill.CreatedAt, &bill.UpdatedAt,
		)
		if err != nil {
			continue
		}
		bill.Status = models.BillStatus(status)
		bills = append(bills, bill)
	}

	if bills == nil {
		bills = []*models.Bill{}
	}
	return bills, nil
}

// CreditBillPayment applies a successful payment amount to a bill as a single
// conditional update. The clamp and status derivation happen in SQL so two
// concurrent reconciliations can never lose an increment or push amount_paid
// past amount.
func CreditBillPayment(db *sql.DB, billID string, amount float64) (*models.Bill, error) {
	bill := &models.Bill{}
	query := `UPDATE bills SET
				amount_paid = LEAST(amount_paid + $2, amount),
				balance = amount - LEAST(amount_paid + $2, amount),
				status = CASE WHEN LEAST(amount_paid + $2, amount) >= amount THEN 'paid' ELSE 'partial' END,
				updated_at = NOW()
			  WHERE id = $1
			  RETURNING id, student_id, term, description, amount, amount_paid, balance, status, created_at, updated_at`

	var status string
	err := db.QueryRow(query, billID, amount).Scan(
		&bill.ID, &bill.StudentID, &bill.Term, &bill.Description,
		&bill.Amount, &bill.AmountPaid, &bill.Balance, &status,
		&bill.CreatedAt, &bill.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	bill.Status = models.BillStatus(status)
	return bill, nil
}

// BillAdjustment carries the optional admin overrides for a bill's numeric
// fields. Fields left nil are untouched.
type BillAdjustment struct {
	Amount     *float64
	AmountPaid *float64
	Balance    *float64
}

// AdjustBillDirect is the staff correction path, not funded by a payment.
// Each field is clamped into [0, amount] and the status re-derived. The row
// is locked for the duration so a concurrent payment credit cannot interleave.
func AdjustBillDirect(db *sql.DB, billID string, adj BillAdjustment) (*models.Bill, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	bill := &models.Bill{}
	var status string
	err = tx.QueryRow(`SELECT id, student_id, term, description, amount, amount_paid, balance, status, created_at, updated_at
					   FROM bills WHERE id = $1 FOR UPDATE`, billID).Scan(
		&bill.ID, &bill.StudentID, &bill.Term, &bill.Description,
		&bill.Amount, &bill.AmountPaid, &bill.Balance, &status,
		&bill.CreatedAt, &bill.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	bill.Status = models.BillStatus(status)

	if adj.Amount != nil {
		bill.Amount = *adj.Amount
		if bill.Amount < 0 {
			bill.Amount = 0
		}
	}
	if adj.AmountPaid != nil {
		bill.AmountPaid = *adj.AmountPaid
	}
	bill.AmountPaid = clamp(bill.AmountPaid, 0, bill.Amount)
	if adj.Balance != nil {
		bill.Balance = clamp(*adj.Balance, 0, bill.Amount)
	} else {
		bill.Balance = bill.Amount - bill.AmountPaid
	}
	bill.Status = models.DeriveBillStatus(bill.Amount, bill.AmountPaid)

	_, err = tx.Exec(`UPDATE bills SET amount = $2, amount_paid = $3, balance = $4, status = $5, updated_at = NOW()
					  WHERE id = $1`,
		billID, bill.Amount, bill.AmountPaid, bill.Balance, string(bill.Status))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return bill, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
