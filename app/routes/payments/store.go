package payments

import (
	"context"
	"database/sql"

	"github.com/BRian-210/Karumande/app/database"
	"github.com/BRian-210/Karumande/app/models"
	"github.com/BRian-210/Karumande/app/services"
)

// Store is the persistence surface the payment handlers run against. The
// production implementation delegates to the database package; tests swap in
// a fake.
type Store interface {
	GetStudentByID(id string) (*models.Student, error)
	GetStudentGuardianUserIDs(studentID string) ([]string, error)
	GetBillByID(id string) (*models.Bill, error)
	CreditBillPayment(billID string, amount float64) (*models.Bill, error)

	CreatePayment(payment *models.Payment) error
	SetPaymentCorrelation(paymentID, merchantRequestID, checkoutRequestID string) error
	MarkPaymentFailed(paymentID string) error
	GetPaymentByID(id string) (*models.Payment, error)
	GetPaymentsByStudent(studentID string) ([]*models.Payment, error)
	ApplyTerminalOutcome(outcome models.TerminalOutcome) (*models.Payment, bool, error)
	ConfirmPaymentManually(paymentID string, status models.PaymentStatus, amount *float64) (*models.Payment, bool, error)
}

// Gateway issues push-payment requests to the provider.
type Gateway interface {
	STKPush(ctx context.Context, push services.STKPushRequest) (*services.STKPushResponse, error)
}

type dbStore struct {
	db *sql.DB
}

// NewStore wraps a database handle in the Store interface.
func NewStore(db *sql.DB) Store {
	return &dbStore{db: db}
}

func (s *dbStore) GetStudentByID(id string) (*models.Student, error) {
	return database.GetStudentByID(s.db, id)
}

func (s *dbStore) GetStudentGuardianUserIDs(studentID string) ([]string, error) {
	return database.GetStudentGuardianUserIDs(s.db, studentID)
}

func (s *dbStore) GetBillByID(id string) (*models.Bill, error) {
	return database.GetBillByID(s.db, id)
}

func (s *dbStore) CreditBillPayment(billID string, amount float64) (*models.Bill, error) {
	return database.CreditBillPayment(s.db, billID, amount)
}

func (s *dbStore) CreatePayment(payment *models.Payment) error {
	return database.CreatePayment(s.db, payment)
}

func (s *dbStore) SetPaymentCorrelation(paymentID, merchantRequestID, checkoutRequestID string) error {
	return database.SetPaymentCorrelation(s.db, paymentID, merchantRequestID, checkoutRequestID)
}

func (s *dbStore) MarkPaymentFailed(paymentID string) error {
	return database.MarkPaymentFailed(s.db, paymentID)
}

func (s *dbStore) GetPaymentByID(id string) (*models.Payment, error) {
	return database.GetPaymentByID(s.db, id)
}

func (s *dbStore) GetPaymentsByStudent(studentID string) ([]*models.Payment, error) {
	return database.GetPaymentsByStudent(s.db, studentID)
}

func (s *dbStore) ApplyTerminalOutcome(outcome models.TerminalOutcome) (*models.Payment, bool, error) {
	return database.ApplyTerminalOutcome(s.db, outcome)
}

func (s *dbStore) ConfirmPaymentManually(paymentID string, status models.PaymentStatus, amount *float64) (*models.Payment, bool, error) {
	return database.ConfirmPaymentManually(s.db, paymentID, status, amount)
}
