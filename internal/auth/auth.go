// Package auth provides service token management.
// It implements a simple interface with multiple providers - the first
// provider that yields a token wins.
package auth

import (
	"errors"
	"os"
	"strings"
)

// TokenProvider defines the interface for obtaining a service token.
// Implementations may use different sources (environment, config file, etc).
type TokenProvider interface {
	GetToken() (string, error)
}

// EnvProvider obtains tokens from the TASKDECK_TOKEN environment variable.
// This is the preferred method: it keeps the token out of config files.
type EnvProvider struct{}

// GetToken reads the TASKDECK_TOKEN environment variable.
// Returns an error if the variable is not set or is empty.
func (e *EnvProvider) GetToken() (string, error) {
	token := strings.TrimSpace(os.Getenv("TASKDECK_TOKEN"))
	if token == "" {
		return "", errors.New("TASKDECK_TOKEN environment variable not set or empty")
	}
	return token, nil
}

// StaticProvider returns a token configured elsewhere (the config file).
type StaticProvider struct {
	Token string
}

// GetToken returns the configured token, or an error if it is empty.
func (s *StaticProvider) GetToken() (string, error) {
	token := strings.TrimSpace(s.Token)
	if token == "" {
		return "", errors.New("no token in config")
	}
	return token, nil
}

// GetToken attempts to obtain a service token using the following strategy:
// 1. TASKDECK_TOKEN environment variable
// 2. The token from the config file
// 3. Return a clear, actionable error if both fail
//
// This is the main entry point for token retrieval in the application.
func GetToken(configToken string) (string, error) {
	providers := []TokenProvider{
		&EnvProvider{},
		&StaticProvider{Token: configToken},
	}

	for _, p := range providers {
		if token, err := p.GetToken(); err == nil {
			return token, nil
		}
	}

	return "", errors.New(
		"no service token found.\n" +
			"Please either:\n" +
			"  1. Set the TASKDECK_TOKEN environment variable, or\n" +
			"  2. Add 'token: <your token>' to taskdeck.yaml",
	)
}
