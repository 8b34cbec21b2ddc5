package config

import (
	"flag"
	"os"
	"time"

	"github.com/dkovalev/folderlock/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-m int      max unlock attempts before lockout
//	-l int      lockout window, minutes
//	-t int      email code validity, minutes
//
// Secrets (JWT secret, encryption key, SMTP credentials) are intentionally
// not exposed as flags; use the environment or the JSON config file.
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-m", "-l", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	maxAttempts := fs.Int("m", config.MaxAttempts, "max unlock attempts before lockout")
	lockoutMinutes := fs.Int("l", int(config.LockoutDuration.Minutes()), "lockout window (in minutes)")
	emailCodeMinutes := fs.Int("t", int(config.EmailCodeTTL.Minutes()), "email code validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		return
	}

	config.MaxAttempts = *maxAttempts
	config.LockoutDuration = time.Duration(*lockoutMinutes) * time.Minute
	config.EmailCodeTTL = time.Duration(*emailCodeMinutes) * time.Minute
}
