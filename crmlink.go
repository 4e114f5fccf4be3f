// Package crmlink resolves professional-network profile URLs against a
// form-driven recruiting CRM and creates stub records for new candidates.
//
// Basic usage:
//
//	result, err := crmlink.Lookup(ctx, "https://linkedin.com/in/jane-doe-12345", "Jane", "Doe")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if result.Found() {
//	    fmt.Println(result.Record.Name)
//	}
//
// The CRM base URL and login email come from the config file or the
// CRMLINK_* environment variables; the password lives in the OS keychain.
// An existing browser session can be reused instead:
//
//	result, err := crmlink.Lookup(ctx, url, "", "", crmlink.WithBrowserCookies())
package crmlink

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/talentops/crmlink/pkg/candidate"
	"github.com/talentops/crmlink/pkg/creds"
	"github.com/talentops/crmlink/pkg/crm"
	"github.com/talentops/crmlink/pkg/httpfetch"
	"github.com/talentops/crmlink/pkg/session"
)

type (
	// Record re-exports candidate.Record for convenience.
	Record = candidate.Record
	// LookupResult re-exports candidate.LookupResult for convenience.
	LookupResult = candidate.LookupResult
	// CreateResult re-exports candidate.CreateResult for convenience.
	CreateResult = candidate.CreateResult
	// HTTPCache re-exports httpfetch.Cache for convenience.
	HTTPCache = httpfetch.Cache
)

// Re-export common errors.
var (
	ErrAuthRequired  = candidate.ErrAuthRequired
	ErrNoCredentials = candidate.ErrNoCredentials
	ErrTokenMissing  = candidate.ErrTokenMissing
)

// Option configures a call.
type Option func(*config)

type config struct {
	baseURL        string
	cookies        map[string]string
	cache          httpfetch.Cacher
	logger         *slog.Logger
	store          creds.Store
	browserCookies bool
}

// WithBaseURL sets the CRM base URL, overriding the environment and the
// config file.
func WithBaseURL(baseURL string) Option {
	return func(c *config) { c.baseURL = baseURL }
}

// WithCookies seeds the session with explicit cookie values.
func WithCookies(cookies map[string]string) Option {
	return func(c *config) { c.cookies = cookies }
}

// WithBrowserCookies enables importing an existing CRM session from
// browser cookie stores.
func WithBrowserCookies() Option {
	return func(c *config) { c.browserCookies = true }
}

// WithHTTPCache sets the response cache for detail-page GETs.
func WithHTTPCache(cache httpfetch.Cacher) Option {
	return func(c *config) { c.cache = cache }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithCredentialStore overrides the default file/keychain credential store.
func WithCredentialStore(store creds.Store) Option {
	return func(c *config) { c.store = store }
}

// Lookup resolves a profile URL to an existing CRM record. Name hints are
// optional; pass "" when unknown.
func Lookup(ctx context.Context, url string, firstNameHint, lastNameHint string, opts ...Option) (LookupResult, error) {
	client, err := newClient(ctx, opts...)
	if err != nil {
		return LookupResult{}, err
	}
	return client.Lookup(ctx, url, firstNameHint, lastNameHint), nil
}

// Create submits a stub record for a person not yet in the CRM.
// sourcedDate is optional; pass "" to omit it.
func Create(ctx context.Context, firstName, lastName, url, sourcedDate string, opts ...Option) (CreateResult, error) {
	client, err := newClient(ctx, opts...)
	if err != nil {
		return CreateResult{}, err
	}
	return client.Create(ctx, firstName, lastName, url, sourcedDate), nil
}

// CheckAuthenticated reports whether a live CRM session exists.
func CheckAuthenticated(ctx context.Context, opts ...Option) (bool, error) {
	client, err := newClient(ctx, opts...)
	if err != nil {
		return false, err
	}
	return client.CheckAuthenticated(ctx), nil
}

// Login authenticates against the CRM with explicit credentials.
func Login(ctx context.Context, email, password string, opts ...Option) error {
	client, err := newClient(ctx, opts...)
	if err != nil {
		return err
	}
	return client.Login(ctx, email, password)
}

func newClient(ctx context.Context, opts ...Option) (*crm.Client, error) {
	cfg := &config{logger: slog.Default(), store: creds.FileStore{}}
	for _, opt := range opts {
		opt(cfg)
	}

	baseURL, err := resolveBaseURL(cfg.baseURL)
	if err != nil {
		return nil, err
	}

	var sessOpts []session.Option
	sessOpts = append(sessOpts, session.WithLogger(cfg.logger))
	if len(cfg.cookies) > 0 {
		sessOpts = append(sessOpts, session.WithCookies(cfg.cookies))
	}
	if cfg.browserCookies {
		sessOpts = append(sessOpts, session.WithBrowserCookies())
	}

	sess, err := session.New(ctx, baseURL, sessOpts...)
	if err != nil {
		return nil, err
	}

	crmOpts := []crm.Option{
		crm.WithLogger(cfg.logger),
		crm.WithCredentialStore(cfg.store),
	}
	if cfg.cache != nil {
		crmOpts = append(crmOpts, crm.WithHTTPCache(cfg.cache))
	}
	return crm.New(sess, crmOpts...), nil
}

func resolveBaseURL(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(creds.EnvBaseURL); env != "" {
		return env, nil
	}
	fileCfg, err := creds.LoadConfig(creds.DefaultPath())
	if err != nil {
		return "", err
	}
	if fileCfg.BaseURL != "" {
		return fileCfg.BaseURL, nil
	}
	return "", errors.New("no CRM base URL configured: use WithBaseURL, " + creds.EnvBaseURL + ", or the config file")
}
