package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrMissingCredentials = errors.New("missing-jumpseller-credentials")

const DefaultBaseURL = "https://api.jumpseller.com/v1"

// Config groups everything the process reads from the environment. Business
// packages receive the pieces they need through their constructors.
type Config struct {
	Port   string
	AppEnv string

	Jumpseller Jumpseller

	RowConcurrency int
	VerifyWrites   bool
	UploadDir      string
	MaxUploadBytes int64

	SKUColumns   []string
	PriceColumns []string
	DateColumns  []string

	RedisAddr string
	BatchTTL  time.Duration

	AuthSigningKey string

	Email Email
}

type Jumpseller struct {
	BaseURL     string
	Login       string
	Token       string
	Timeout     time.Duration
	RatePerSec  float64
	DateFieldID int64
}

// Validate reports whether remote calls can be made at all.
func (j Jumpseller) Validate() error {
	if j.Login == "" || j.Token == "" {
		return ErrMissingCredentials
	}
	return nil
}

type Email struct {
	SMTPServer string
	SMTPPort   int
	Username   string
	Password   string
	From       string
	ReportTo   string
}

func (e Email) Enabled() bool {
	return e.SMTPServer != "" && e.ReportTo != ""
}

// Load reads the environment. Missing remote credentials are not an error
// here: only the routes that call the remote API refuse to run without them.
func Load() (Config, error) {
	cfg := Config{
		Port:      strings.TrimPrefix(env("PORT", "8000"), ":"),
		AppEnv:    env("APP_ENV", "development"),
		UploadDir: env("UPLOAD_DIR", os.TempDir()),
		Jumpseller: Jumpseller{
			BaseURL: strings.TrimRight(env("JUMPS_BASE_URL", DefaultBaseURL), "/"),
			Login:   strings.TrimSpace(os.Getenv("JUMPS_LOGIN")),
			Token:   strings.TrimSpace(os.Getenv("JUMPS_TOKEN")),
		},
		SKUColumns:     list(os.Getenv("SKU_COLUMNS")),
		PriceColumns:   list(os.Getenv("PRICE_COLUMNS")),
		DateColumns:    list(os.Getenv("DATE_COLUMNS")),
		AuthSigningKey: os.Getenv("AUTH_SIGNING_KEY"),
		Email: Email{
			SMTPServer: os.Getenv("EMAIL_SMTP_SERVER"),
			Username:   os.Getenv("EMAIL_SMTP_USERNAME"),
			Password:   os.Getenv("EMAIL_SMTP_PASSWORD"),
			From:       os.Getenv("EMAIL_MESSAGE_FROM"),
			ReportTo:   os.Getenv("EMAIL_REPORT_TO"),
		},
	}

	var err error

	if cfg.Jumpseller.Timeout, err = duration("JUMPS_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}

	rate, err := strconv.ParseFloat(env("JUMPS_RATE_PER_SEC", "4"), 64)
	if err != nil || rate <= 0 {
		return Config{}, fmt.Errorf("invalid JUMPS_RATE_PER_SEC: %q", os.Getenv("JUMPS_RATE_PER_SEC"))
	}
	cfg.Jumpseller.RatePerSec = rate

	if cfg.Jumpseller.DateFieldID, err = strconv.ParseInt(env("JUMPS_DATE_FIELD_ID", "0"), 10, 64); err != nil {
		return Config{}, fmt.Errorf("invalid JUMPS_DATE_FIELD_ID: %w", err)
	}

	if cfg.RowConcurrency, err = strconv.Atoi(env("ROW_CONCURRENCY", "1")); err != nil || cfg.RowConcurrency < 1 {
		return Config{}, fmt.Errorf("invalid ROW_CONCURRENCY: %q", os.Getenv("ROW_CONCURRENCY"))
	}

	if cfg.VerifyWrites, err = strconv.ParseBool(env("VERIFY_WRITES", "true")); err != nil {
		return Config{}, fmt.Errorf("invalid VERIFY_WRITES: %w", err)
	}

	maxMB, err := strconv.ParseInt(env("MAX_UPLOAD_MB", "10"), 10, 64)
	if err != nil || maxMB < 1 {
		return Config{}, fmt.Errorf("invalid MAX_UPLOAD_MB: %q", os.Getenv("MAX_UPLOAD_MB"))
	}
	cfg.MaxUploadBytes = maxMB << 20

	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.RedisAddr = host + ":" + env("REDIS_PORT", "6379")
	}

	if cfg.BatchTTL, err = duration("BATCH_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}

	if port := os.Getenv("EMAIL_SMTP_PORT"); port != "" {
		if cfg.Email.SMTPPort, err = strconv.Atoi(port); err != nil {
			return Config{}, fmt.Errorf("invalid EMAIL_SMTP_PORT: %w", err)
		}
	} else {
		cfg.Email.SMTPPort = 587
	}

	return cfg, nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func list(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
