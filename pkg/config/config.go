// Package config resolves command configuration from the environment.
//
// Commands validate every required variable up front, before opening any
// network connection, so a misconfigured run fails in milliseconds.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// MissingError reports required environment variables that are not set.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	if len(e.Vars) == 1 {
		return fmt.Sprintf("environment variable %s is required", e.Vars[0])
	}
	return fmt.Sprintf("environment variables %s are required", strings.Join(e.Vars, ", "))
}

// Load reads KEY=value pairs from a .env file in the working directory
// into the process environment. Variables already set win over file
// values. A missing file is not an error.
func Load() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Require returns the value of a single required environment variable.
func Require(name string) (string, error) {
	v := os.Getenv(name)
	if strings.TrimSpace(v) == "" {
		return "", &MissingError{Vars: []string{name}}
	}
	return v, nil
}

// RequireAll resolves every named variable and reports all missing ones
// in a single error.
func RequireAll(names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		v := os.Getenv(name)
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
			continue
		}
		values[name] = v
	}
	if len(missing) > 0 {
		return nil, &MissingError{Vars: missing}
	}
	return values, nil
}

// Default returns the value of an environment variable, or the fallback
// when it is unset or blank.
func Default(name, fallback string) string {
	if v := os.Getenv(name); strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
