package config // package config loads application configuration from environment variables

import (
	"errors"  // errors provides the sentinel values for secret validation
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// minSecretLen is the minimum length accepted for token signing secrets.
const minSecretLen = 32

var errSecretsEqual = errors.New("access and refresh secrets must differ")

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. The types reflect how the values are used
// in the application: strings for identifiers and secrets, ints for
// durations and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	AccessSecret   string // secret used to sign access JWTs
	RefreshSecret  string // reserved secret for refresh-token derivation; must differ from AccessSecret
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	ResetTTLMin    int    // password-reset token time-to-live in minutes
	BcryptCost     int    // bcrypt cost for password hashing
	LoginURL       string // absolute URL of the login page, used in welcome emails
	ResetURL       string // absolute URL of the reset page, used in reset emails

	SMTPHost      string // SMTP relay host
	SMTPPort      int    // SMTP relay port
	SMTPUser      string // SMTP username (empty disables auth)
	SMTPPass      string // SMTP password
	SMTPTLSMode   string // "tls", "starttls" or "none"
	SMTPFromName  string // display name on outgoing mail
	SMTPFromEmail string // sender address on outgoing mail
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing or invalid values cause the program to exit with a fatal log
// message. The secret rules are enforced here too: both signing
// secrets must be at least 32 characters and must not be equal.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		AccessSecret:   must("ACCESS_TOKEN_SECRET"),
		RefreshSecret:  must("REFRESH_TOKEN_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		ResetTTLMin:    envIntDefault("RESET_TOKEN_TTL_MIN", 60),
		BcryptCost:     mustInt("BCRYPT_COST"),
		LoginURL:       must("LOGIN_URL"),
		ResetURL:       must("RESET_URL"),

		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      envIntDefault("SMTP_PORT", 587),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
		SMTPTLSMode:   envDefault("SMTP_TLS_MODE", "starttls"),
		SMTPFromName:  os.Getenv("SMTP_FROM_NAME"),
		SMTPFromEmail: os.Getenv("SMTP_FROM_EMAIL"),
	}
	if err := ValidateSecrets(cfg.AccessSecret, cfg.RefreshSecret); err != nil {
		log.Fatalf("invalid token secrets: %v", err)
	}
	return cfg
}

// ValidateSecrets enforces the signing-secret rules. Exposed separately
// so it can be exercised without the fatal path.
func ValidateSecrets(access, refresh string) error {
	if len(access) < minSecretLen {
		return errors.New("ACCESS_TOKEN_SECRET must be at least 32 characters")
	}
	if len(refresh) < minSecretLen {
		return errors.New("REFRESH_TOKEN_SECRET must be at least 32 characters")
	}
	if access == refresh {
		return errSecretsEqual
	}
	return nil
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

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return def
}
