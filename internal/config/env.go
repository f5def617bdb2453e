package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvRemoteToken is the variable carrying the artifact-remote bearer token.
const EnvRemoteToken = "SOFTSIM_REMOTE_TOKEN"

// DotEnvPath returns the location of the workspace .env file.
func DotEnvPath(root string) string { return filepath.Join(root, ".env") }

// GetEnvValue returns the effective value for key, using process environment
// variables first and falling back to the workspace .env file.
func GetEnvValue(root, key string) (string, error) {
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	p := DotEnvPath(root)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return "", nil
	}
	env, err := godotenv.Read(p)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", p, err)
	}
	return env[key], nil
}

// EnsureDotEnvTemplate creates the workspace .env if it does not already
// exist, with configuration keys left empty for the user to fill in.
func EnsureDotEnvTemplate(root string) error {
	p := DotEnvPath(root)
	if _, err := os.Stat(p); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot stat %s: %w", p, err)
	}
	body := EnvRemoteToken + "=\n"
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		return fmt.Errorf("cannot write %s: %w", p, err)
	}
	return nil
}
