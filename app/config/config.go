package config

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/lib/pq"
)

type Config struct {
	DB     *sql.DB
	Daraja DarajaConfig
}

// DarajaConfig holds the Safaricom Daraja (M-Pesa) settings. Credentials come
// from the environment; the sandbox is used unless DARAJA_ENV=live.
type DarajaConfig struct {
	Env              string // "sandbox" or "live"
	ConsumerKey      string
	ConsumerSecret   string
	ShortCode        string
	PassKey          string
	CallbackURL      string
	CallbackSecret   string   // HMAC secret for inbound callbacks; empty disables verification
	AllowedIPs       []string // callback source allowlist; empty allows all
	AccountReference string   // default account reference on STK push
	// PendingOnNetworkError leaves a payment pending instead of failed when
	// the provider is unreachable during initiation.
	PendingOnNetworkError bool
}

var AppConfig *Config

func InitDB() {
	psqlInfo := os.Getenv("DATABASE_URL")
	if psqlInfo == "" {
		host := getEnv("DB_HOST", "localhost")
		port := getEnv("DB_PORT", "5432")
		user := getEnv("DB_USER", "postgres")
		password := os.Getenv("DB_PASSWORD")
		dbname := getEnv("DB_NAME", "karumande")

		psqlInfo = fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable connect_timeout=60", host, port, user, dbname)
		if password != "" {
			psqlInfo += " password=" + password
		}
		log.Printf("Connecting to database %s at %s:%s", dbname, host, port)
	}

	db, err := sql.Open("postgres", psqlInfo)
	if err != nil {
		log.Fatal("Failed to open database connection:", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	log.Println("Testing database connection...")
	if err = db.Ping(); err != nil {
		log.Printf("Database connection failed: %v", err)
		log.Fatal("Cannot establish database connection")
	}

	AppConfig = &Config{
		DB:     db,
		Daraja: LoadDarajaConfig(),
	}
	log.Println("Database connected successfully")
}

// LoadDarajaConfig reads the Daraja settings from the environment and warns
// loudly about the fail-open callback checks when they are unconfigured.
func LoadDarajaConfig() DarajaConfig {
	cfg := DarajaConfig{
		Env:                   getEnv("DARAJA_ENV", "sandbox"),
		ConsumerKey:           os.Getenv("DARAJA_CONSUMER_KEY"),
		ConsumerSecret:        os.Getenv("DARAJA_CONSUMER_SECRET"),
		ShortCode:             os.Getenv("DARAJA_SHORT_CODE"),
		PassKey:               os.Getenv("DARAJA_PASSKEY"),
		CallbackURL:           os.Getenv("DARAJA_CALLBACK_URL"),
		CallbackSecret:        os.Getenv("DARAJA_CALLBACK_SECRET"),
		AccountReference:      getEnv("DARAJA_ACCOUNT_REFERENCE", "KARUMANDE"),
		PendingOnNetworkError: os.Getenv("DARAJA_PENDING_ON_NETWORK_ERROR") == "true",
	}

	if allow := os.Getenv("DARAJA_ALLOWED_IPS"); allow != "" {
		for _, ip := range strings.Split(allow, ",") {
			if ip = strings.TrimSpace(ip); ip != "" {
				cfg.AllowedIPs = append(cfg.AllowedIPs, ip)
			}
		}
	}

	if cfg.CallbackSecret == "" {
		log.Println("WARNING: DARAJA_CALLBACK_SECRET is not set; payment callbacks will be accepted without signature verification")
	}
	if len(cfg.AllowedIPs) == 0 {
		log.Println("WARNING: DARAJA_ALLOWED_IPS is not set; payment callbacks will be accepted from any source address")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetDB() *sql.DB {
	return AppConfig.DB
}
