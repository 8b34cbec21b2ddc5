package config

import (
	"encoding/json"
	"os"

	"github.com/dkovalev/folderlock/internal/flagx"
	"github.com/dkovalev/folderlock/internal/timex"
)

// JsonConfig mirrors Config for JSON unmarshalling. It uses timex.Duration
// for interval fields, which allows parsing both string values such as
// "15m" and integer nanoseconds. After unmarshalling, its fields are copied
// into the runtime Config struct.
type JsonConfig struct {
	EndpointAddr    string         `json:"endpoint_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	JWTSecret       string         `json:"jwt_secret"`
	EncryptionKey   string         `json:"encryption_key"`
	MaxAttempts     *int           `json:"max_attempts"`
	LockoutDuration timex.Duration `json:"lockout_duration"`
	EmailCodeTTL    timex.Duration `json:"email_code_ttl"`
	SMTPAddr        string         `json:"smtp_addr"`
	SMTPUser        string         `json:"smtp_user"`
	SMTPPassword    string         `json:"smtp_password"`
	SMTPFrom        string         `json:"smtp_from"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. Unset JSON fields leave
// the existing Config values untouched. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.JWTSecret != "" {
		config.JWTSecret = c.JWTSecret
	}
	if c.EncryptionKey != "" {
		config.EncryptionKey = c.EncryptionKey
	}
	if c.MaxAttempts != nil {
		config.MaxAttempts = *c.MaxAttempts
	}
	if c.LockoutDuration.Duration != 0 {
		config.LockoutDuration = c.LockoutDuration.Duration
	}
	if c.EmailCodeTTL.Duration != 0 {
		config.EmailCodeTTL = c.EmailCodeTTL.Duration
	}
	if c.SMTPAddr != "" {
		config.SMTPAddr = c.SMTPAddr
	}
	if c.SMTPUser != "" {
		config.SMTPUser = c.SMTPUser
	}
	if c.SMTPPassword != "" {
		config.SMTPPassword = c.SMTPPassword
	}
	if c.SMTPFrom != "" {
		config.SMTPFrom = c.SMTPFrom
	}
}
