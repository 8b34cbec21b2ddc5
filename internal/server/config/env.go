package config

import "os"

// parseEnv overlays secret-bearing settings from environment variables.
// Secrets are accepted from the environment rather than flags so they do
// not appear in process listings; cmd/server loads an optional .env file
// before this runs.
func parseEnv(config *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		config.JWTSecret = v
	}
	if v := os.Getenv("ENCRYPTION_KEY"); v != "" {
		config.EncryptionKey = v
	}
	if v := os.Getenv("SMTP_ADDR"); v != "" {
		config.SMTPAddr = v
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		config.SMTPUser = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		config.SMTPPassword = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		config.SMTPFrom = v
	}
}
