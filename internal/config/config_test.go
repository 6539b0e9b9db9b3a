package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("LINE_CHANNEL_SECRET", "secret")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "token")
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_JSON", "{}")
	t.Setenv("GOOGLE_SHEET_ID", "sheet-id")
	t.Setenv("SMTP_SERVER", "smtp.example.com")
	t.Setenv("SMTP_USERNAME", "user")
	t.Setenv("SMTP_PASSWORD", "pass")
	t.Setenv("EMAIL_SENDER", "bot@example.com")
	t.Setenv("EMAIL_RECEIVER", "admin@example.com")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "Sheet1", cfg.WorksheetName)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "Unknown", cfg.DisplayNameFallback)
	assert.Equal(t, []string{"admin@example.com"}, cfg.EmailReceivers)
}

func TestFromEnvParsesReceiverList(t *testing.T) {
	setRequired(t)
	t.Setenv("EMAIL_RECEIVER", "a@example.com, b@example.com ,, c@example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, cfg.EmailReceivers)
}

func TestFromEnvReportsMissingKeys(t *testing.T) {
	setRequired(t)
	t.Setenv("LINE_CHANNEL_SECRET", "")
	t.Setenv("EMAIL_RECEIVER", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LINE_CHANNEL_SECRET")
	assert.Contains(t, err.Error(), "EMAIL_RECEIVER")
}

func TestFromEnvRejectsBadSMTPPort(t *testing.T) {
	setRequired(t)
	t.Setenv("SMTP_PORT", "not-a-port")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP_PORT")
}
