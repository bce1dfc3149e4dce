package database

import (
	"database/sql"
	"log"
)

// RunMigrations checks and applies necessary schema updates
func RunMigrations(db *sql.DB) error {
	log.Println("Running database migrations...")

	migrations := []struct {
		name string
		fn   func(*sql.DB) error
	}{
		{"extensions", createExtensions},
		{"users", createUsersTables},
		{"students", createStudentsTables},
		{"bills", createBillsTable},
		{"payments", createPaymentsTable},
	}

	for _, m := range migrations {
		if err := m.fn(db); err != nil {
			log.Printf("Failed to run migration %s: %v", m.name, err)
			return err
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createExtensions(db *sql.DB) error {
	_, err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`)
	return err
}

func createUsersTables(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			phone VARCHAR(20),
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS roles (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT UNIQUE NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS user_roles (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id),
			role_id UUID NOT NULL REFERENCES roles(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, role_id)
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`
	_, err := db.Exec(query)
	return err
}

func createStudentsTables(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS students (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			student_id TEXT UNIQUE NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			date_of_birth DATE,
			gender VARCHAR(10),
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS parents (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID REFERENCES users(id),
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			phone VARCHAR(20),
			email TEXT,
			address TEXT,
			relationship VARCHAR(20),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_parents_user_id ON parents(user_id);

		CREATE TABLE IF NOT EXISTS student_parents (
			student_id UUID NOT NULL REFERENCES students(id),
			parent_id UUID NOT NULL REFERENCES parents(id),
			PRIMARY KEY (student_id, parent_id)
		);
	`
	_, err := db.Exec(query)
	return err
}

func createBillsTable(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS bills (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			student_id UUID NOT NULL REFERENCES students(id),
			term VARCHAR(50),
			description TEXT,
			amount NUMERIC NOT NULL CHECK (amount >= 0),
			amount_paid NUMERIC NOT NULL DEFAULT 0 CHECK (amount_paid >= 0),
			balance NUMERIC NOT NULL DEFAULT 0 CHECK (balance >= 0),
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (amount_paid <= amount)
		);
		CREATE INDEX IF NOT EXISTS idx_bills_student_id ON bills(student_id);
	`
	_, err := db.Exec(query)
	return err
}

func createPaymentsTable(db *sql.DB) error {
	// student_id and bill_id are nullable: a callback that matches no known
	// payment creates an unattributed record instead of being dropped.
	query := `
		CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			student_id UUID REFERENCES students(id),
			bill_id UUID REFERENCES bills(id),
			transaction_id TEXT,
			merchant_request_id TEXT,
			checkout_request_id TEXT,
			phone VARCHAR(20) NOT NULL DEFAULT '',
			amount NUMERIC NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			raw_callback JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_transaction_id ON payments(transaction_id) WHERE transaction_id IS NOT NULL;
		CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_checkout_request_id ON payments(checkout_request_id) WHERE checkout_request_id IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_payments_student_id ON payments(student_id);
		CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);
	`
	_, err := db.Exec(query)
	return err
}
