package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAutoReplyText is sent to every customer that writes to the business number.
const DefaultAutoReplyText = "Halo,\n" +
	"Untuk melakukan reservasi silahkan melalui Sobat Bunda dulu ya Bunda. Sobat Bunda bisa reservasi sejak H-7 sampai hari H!\n" +
	"\n" +
	"*Reservasi lebih mudah dan cepat? Lewat Sobat Bunda aja!*\n" +
	"\n" +
	"Android di Google Playstore: https://s.id/sobatbunda-android\n" +
	"\n" +
	"IOS di Apple Store:\n" +
	"https://s.id/sobatbunda-ios\n" +
	"\n" +
	"Ada kendala? Chat kami di jam operasional WhatsApp pk 08.00-20.00 wita"

var sha256HexPattern = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	WhatsApp  WhatsAppConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Probe     ProbeConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken       string
	PhoneNumberID     string
	BusinessAccountID string
	VerifyToken       string
	AppSecret         string
	ValidateSignature bool
	BaseURL           string
	APIVersion        string
	RequestTimeout    time.Duration
	AutoReplyText     string
}

// SignatureSecret returns the key used to check X-Hub-Signature-256 headers.
// An empty value disables the check.
func (c WhatsAppConfig) SignatureSecret() string {
	if !c.ValidateSignature {
		return ""
	}
	return c.AppSecret
}

// AuthConfig lists the SHA-256 digests of accepted API keys
// (AUTH_API_KEY_HASHES). Clients present the plain key, which is hashed
// server-side; clients that used to send the digest itself must switch to
// sending the key the digest was computed from (security.HashAPIKey).
type AuthConfig struct {
	APIKeyHashes []string
}

// RateLimitConfig bounds how fast a single client may drive outbound sends.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// ProbeConfig controls the periodic provider reachability check.
type ProbeConfig struct {
	CronSchedule string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when the environment is populated directly.
		_ = godotenv.Load()
	}

	timeout, err := getenvDuration("WHATSAPP_REQUEST_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	rps, err := getenvFloat("RATE_LIMIT_RPS", 10)
	if err != nil {
		return nil, err
	}

	burst, err := getenvInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("PORT", "3000"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:       os.Getenv("WHATSAPP_ACCESS_TOKEN"),
			PhoneNumberID:     os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BusinessAccountID: os.Getenv("WHATSAPP_BUSINESS_ACCOUNT_ID"),
			VerifyToken:       os.Getenv("WHATSAPP_WEBHOOK_VERIFY_TOKEN"),
			AppSecret:         os.Getenv("WHATSAPP_APP_SECRET"),
			ValidateSignature: parseFlag(os.Getenv("WHATSAPP_VALIDATE_WEBHOOK_SIGNATURE"), true),
			BaseURL:           getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:        getenvWithDefault("WHATSAPP_API_VERSION", "v17.0"),
			RequestTimeout:    timeout,
			AutoReplyText:     getenvWithDefault("WHATSAPP_AUTO_REPLY_TEXT", DefaultAutoReplyText),
		},
		Auth: AuthConfig{
			APIKeyHashes: splitList(os.Getenv("AUTH_API_KEY_HASHES")),
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
		Probe: ProbeConfig{
			CronSchedule: probeSchedule(getenvWithDefault("PROVIDER_PROBE_CRON", "*/5 * * * *")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("PORT must be provided")
	}

	switch {
	case c.WhatsApp.AccessToken == "":
		return errors.New("WHATSAPP_ACCESS_TOKEN must be provided")
	case c.WhatsApp.PhoneNumberID == "":
		return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
	case c.WhatsApp.VerifyToken == "":
		return errors.New("WHATSAPP_WEBHOOK_VERIFY_TOKEN must be provided")
	}

	if c.WhatsApp.BaseURL == "" {
		return errors.New("WHATSAPP_BASE_URL must not be empty")
	}

	if c.WhatsApp.APIVersion == "" {
		return errors.New("WHATSAPP_API_VERSION must not be empty")
	}

	if c.WhatsApp.RequestTimeout <= 0 {
		return errors.New("WHATSAPP_REQUEST_TIMEOUT must be positive")
	}

	if strings.TrimSpace(c.WhatsApp.AutoReplyText) == "" {
		return errors.New("WHATSAPP_AUTO_REPLY_TEXT must not be blank")
	}

	if len(c.Auth.APIKeyHashes) == 0 {
		return errors.New("AUTH_API_KEY_HASHES must contain at least one value")
	}
	for _, hash := range c.Auth.APIKeyHashes {
		if !sha256HexPattern.MatchString(hash) {
			return fmt.Errorf("invalid API key hash %q: expected a 64 character SHA-256 hex digest", hash)
		}
	}

	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func getenvFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func getenvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

// parseFlag treats false, 0, no and off (any case) as disabled.
func parseFlag(raw string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return fallback
	}
	switch value {
	case "false", "0", "no", "off":
		return false
	default:
		return true
	}
}

// probeSchedule maps the disabling flag values onto an empty schedule.
func probeSchedule(raw string) string {
	if !parseFlag(raw, true) {
		return ""
	}
	return strings.TrimSpace(raw)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
