package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Required values are enforced with must(); the
// rest fall back to defaults that match the production policy set
// (bypass token TTL 300s, violation limit 3, assessment budget 1800s).
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	AppBaseURL     string // public base URL used to build gateway return URLs
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	// Payment gateway (Cashfree PG).
	CashfreeAppID      string // x-client-id header value
	CashfreeSecret     string // x-client-secret header value
	CashfreeBaseURL    string // gateway API base, sandbox by default
	WebhookSecret      string // shared secret for webhook signature checks
	BypassTokenTTLSecs int    // validity window of a post-payment bypass token

	// Assessment policy.
	AssessmentDurationSecs int // wall-clock exam budget
	ViolationLimit         int // visibility losses tolerated before forced finish
	PassPercentage         int // minimum percentage counted as a pass
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		AppBaseURL:     must("APP_BASE_URL"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		CashfreeAppID:      must("CASHFREE_APP_ID"),
		CashfreeSecret:     must("CASHFREE_SECRET_KEY"),
		CashfreeBaseURL:    envStr("CASHFREE_BASE_URL", "https://sandbox.cashfree.com/pg"),
		WebhookSecret:      must("CASHFREE_WEBHOOK_SECRET"),
		BypassTokenTTLSecs: envInt("BYPASS_TOKEN_TTL_SECS", 300),

		AssessmentDurationSecs: envInt("ASSESSMENT_DURATION_SECS", 1800),
		ViolationLimit:         envInt("ASSESSMENT_VIOLATION_LIMIT", 3),
		PassPercentage:         envInt("ASSESSMENT_PASS_PERCENTAGE", 50),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
