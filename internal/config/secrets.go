package config

import (
	"fmt"
	"os"
)

// Environment variable names for the run secrets.
const (
	EnvCodePostAPIKey = "CODEPOST_API_KEY"
	EnvSlackToken     = "SLACK_TOKEN"
	EnvDecryptionKey  = "DECRYPTION_KEY"
	EnvDatabaseURL    = "DATABASE_URL"
)

// Secrets holds the credentials read from the environment.
type Secrets struct {
	CodePostAPIKey string
	SlackToken     string
	DecryptionKey  string
	// DatabaseURL selects the Postgres snapshot store when set.
	DatabaseURL string
}

// LoadSecrets reads the required secrets from the environment. On failure it
// returns nil and one message per missing variable.
func LoadSecrets() (*Secrets, []string) {
	var errs []string

	read := func(name string) string {
		value := os.Getenv(name)
		if value == "" {
			errs = append(errs, fmt.Sprintf(
				"environment variable %q could not be found", name))
		}
		return value
	}

	secrets := &Secrets{
		CodePostAPIKey: read(EnvCodePostAPIKey),
		SlackToken:     read(EnvSlackToken),
		DecryptionKey:  read(EnvDecryptionKey),
		DatabaseURL:    os.Getenv(EnvDatabaseURL),
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return secrets, nil
}
