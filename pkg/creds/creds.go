// Package creds supplies CRM login credentials to the core. The core only
// ever reads; writing happens through the external configuration surface
// (the CLI's -set-password path).
//
// Resolution order: environment variables, then the config file for the
// email with the password looked up in the OS keychain.
package creds

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"github.com/talentops/crmlink/pkg/candidate"
)

// KeyringService groups crmlink's secrets in the OS keychain.
const KeyringService = "crmlink"

// Environment variable names.
const (
	EnvEmail    = "CRMLINK_EMAIL"
	EnvPassword = "CRMLINK_PASSWORD"
	EnvBaseURL  = "CRMLINK_BASE_URL"
)

// Credentials is a CRM login pair.
type Credentials struct {
	Email    string
	Password string
}

// Store is a read-only credential source.
type Store interface {
	// Credentials returns the configured login pair, or an error wrapping
	// candidate.ErrNoCredentials when none are available.
	Credentials(ctx context.Context) (Credentials, error)
}

// Config is the on-disk configuration file. The password never lives here;
// it lives in the OS keychain keyed by the email.
type Config struct {
	BaseURL string `yaml:"base_url"`
	Email   string `yaml:"email"`
}

// DefaultPath returns the config file location, ~/.config/crmlink/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "crmlink", "config.yaml")
}

// LoadConfig reads the config file at path. A missing file is not an
// error; it yields a zero Config so env vars can still supply everything.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config file
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes the config file, creating its directory as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// FileStore resolves credentials from the environment, the config file,
// and the OS keychain.
type FileStore struct {
	// ConfigPath overrides the config file location. Empty means DefaultPath.
	ConfigPath string
}

// Credentials implements Store.
func (s FileStore) Credentials(_ context.Context) (Credentials, error) {
	email := strings.TrimSpace(os.Getenv(EnvEmail))
	password := os.Getenv(EnvPassword)
	if email != "" && password != "" {
		return Credentials{Email: email, Password: password}, nil
	}

	path := s.ConfigPath
	if path == "" {
		path = DefaultPath()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return Credentials{}, err
	}
	if email == "" {
		email = strings.TrimSpace(cfg.Email)
	}
	if email == "" {
		return Credentials{}, fmt.Errorf("%w: set %s or email in %s", candidate.ErrNoCredentials, EnvEmail, path)
	}

	if password == "" {
		password, err = keyring.Get(KeyringService, email)
		if err != nil || strings.TrimSpace(password) == "" {
			return Credentials{}, fmt.Errorf("%w: no keychain password for %s (set one with -set-password or %s)",
				candidate.ErrNoCredentials, email, EnvPassword)
		}
	}

	return Credentials{Email: email, Password: password}, nil
}

// StaticStore is a fixed credential pair, used in tests and by callers that
// manage credentials themselves.
type StaticStore Credentials

// Credentials implements Store.
func (s StaticStore) Credentials(_ context.Context) (Credentials, error) {
	if s.Email == "" || s.Password == "" {
		return Credentials{}, candidate.ErrNoCredentials
	}
	return Credentials(s), nil
}

// SetPassword stores a password in the OS keychain for the given email.
// This is the external configuration surface; the core never calls it.
func SetPassword(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("email is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, email, password)
}

// DeletePassword removes the stored password for the given email.
func DeletePassword(email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("email is empty")
	}
	return keyring.Delete(KeyringService, email)
}
