package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds every externally supplied setting. Values come from plain
// environment variables; main loads a local .env first via godotenv.
type Config struct {
	Port string

	LineChannelSecret string
	LineChannelToken  string
	// LineAdminUserID, when set, receives a push message after the manual
	// test-email command runs.
	LineAdminUserID string

	SheetCredentialsJSON string
	SheetID              string
	WorksheetName        string

	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	EmailSender    string
	EmailReceivers []string

	// DisplayNameFallback is stored instead of the LINE display name when the
	// profile lookup fails.
	DisplayNameFallback string
}

// FromEnv builds the configuration from the environment and fails on any
// missing required value so the service never starts half-configured.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                 getenv("PORT", "8080"),
		LineChannelSecret:    os.Getenv("LINE_CHANNEL_SECRET"),
		LineChannelToken:     os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
		LineAdminUserID:      os.Getenv("LINE_ADMIN_USER_ID"),
		SheetCredentialsJSON: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_JSON"),
		SheetID:              os.Getenv("GOOGLE_SHEET_ID"),
		WorksheetName:        getenv("GOOGLE_SHEET_WORKSHEET_NAME", "Sheet1"),
		SMTPHost:             os.Getenv("SMTP_SERVER"),
		SMTPUsername:         os.Getenv("SMTP_USERNAME"),
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
		EmailSender:          os.Getenv("EMAIL_SENDER"),
		DisplayNameFallback:  getenv("DISPLAY_NAME_FALLBACK", "Unknown"),
	}

	port, err := strconv.Atoi(getenv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("SMTP_PORT must be a number: %w", err)
	}
	cfg.SMTPPort = port

	for _, r := range strings.Split(os.Getenv("EMAIL_RECEIVER"), ",") {
		if r = strings.TrimSpace(r); r != "" {
			cfg.EmailReceivers = append(cfg.EmailReceivers, r)
		}
	}

	required := []struct {
		key, val string
	}{
		{"LINE_CHANNEL_SECRET", cfg.LineChannelSecret},
		{"LINE_CHANNEL_ACCESS_TOKEN", cfg.LineChannelToken},
		{"GOOGLE_SHEETS_CREDENTIALS_JSON", cfg.SheetCredentialsJSON},
		{"GOOGLE_SHEET_ID", cfg.SheetID},
		{"SMTP_SERVER", cfg.SMTPHost},
		{"SMTP_USERNAME", cfg.SMTPUsername},
		{"SMTP_PASSWORD", cfg.SMTPPassword},
		{"EMAIL_SENDER", cfg.EmailSender},
	}
	var missing []string
	for _, r := range required {
		if r.val == "" {
			missing = append(missing, r.key)
		}
	}
	if len(cfg.EmailReceivers) == 0 {
		missing = append(missing, "EMAIL_RECEIVER")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
