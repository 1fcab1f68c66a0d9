package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "1098765")
	t.Setenv("WHATSAPP_WEBHOOK_VERIFY_TOKEN", "verify-me")
	t.Setenv("AUTH_API_KEY_HASHES", " "+testHash+" , ")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "https://graph.facebook.com", cfg.WhatsApp.BaseURL)
	assert.Equal(t, "v17.0", cfg.WhatsApp.APIVersion)
	assert.Equal(t, 15*time.Second, cfg.WhatsApp.RequestTimeout)
	assert.True(t, cfg.WhatsApp.ValidateSignature)
	assert.Equal(t, DefaultAutoReplyText, cfg.WhatsApp.AutoReplyText)
	assert.Equal(t, []string{testHash}, cfg.Auth.APIKeyHashes)
	assert.Equal(t, "*/5 * * * *", cfg.Probe.CronSchedule)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "")

	_, err := Load("does-not-exist.env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WHATSAPP_PHONE_NUMBER_ID")
}

func TestLoadRejectsMalformedHash(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_API_KEY_HASHES", "not-a-digest")

	_, err := Load("does-not-exist.env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHA-256")
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WHATSAPP_REQUEST_TIMEOUT", "soon")

	_, err := Load("does-not-exist.env")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "WHATSAPP_REQUEST_TIMEOUT"))
}

func TestSignatureSecret(t *testing.T) {
	cfg := WhatsAppConfig{AppSecret: "s3cret", ValidateSignature: true}
	assert.Equal(t, "s3cret", cfg.SignatureSecret())

	cfg.ValidateSignature = false
	assert.Empty(t, cfg.SignatureSecret())
}

func TestParseFlag(t *testing.T) {
	for _, raw := range []string{"false", "0", "NO", " off "} {
		assert.False(t, parseFlag(raw, true), raw)
	}
	for _, raw := range []string{"true", "1", "yes"} {
		assert.True(t, parseFlag(raw, false), raw)
	}
	assert.True(t, parseFlag("", true))
}

func TestLoadProbeCanBeDisabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PROVIDER_PROBE_CRON", "off")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)
	assert.Empty(t, cfg.Probe.CronSchedule)
}
