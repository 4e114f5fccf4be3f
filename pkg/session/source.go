// Package session establishes and maintains an authenticated CRM session.
//
// The CRM authenticates with a Devise-style form login and tracks the
// session entirely through cookies. A Session is an explicit value owning
// its cookie jar; nothing here is ambient or global.
package session

import (
	"context"
	"log/slog"
	"os"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // Import all browser cookie stores
)

// envCookieVars maps environment variable names to CRM cookie names.
var envCookieVars = map[string]string{
	"CRMLINK_SESSION_COOKIE":  "_crm_session",
	"CRMLINK_REMEMBER_COOKIE": "remember_user_token",
}

// Source represents a source of session cookies.
type Source interface {
	// Cookies returns cookies for the CRM host, or nil if unavailable.
	Cookies(ctx context.Context, host string) (map[string]string, error)
}

// ChainSources returns cookies from the first source that provides them.
func ChainSources(ctx context.Context, host string, sources ...Source) (map[string]string, error) {
	for _, src := range sources {
		cookies, err := src.Cookies(ctx, host)
		if err != nil {
			return nil, err
		}
		if len(cookies) > 0 {
			return cookies, nil
		}
	}
	return nil, nil //nolint:nilnil // no source had cookies, but this is not an error
}

// StaticSource provides cookies from a static map.
type StaticSource struct {
	cookies map[string]string
}

// NewStaticSource creates a cookie source from a static map.
func NewStaticSource(cookies map[string]string) *StaticSource {
	return &StaticSource{cookies: cookies}
}

// Cookies returns the static cookies regardless of host.
func (s *StaticSource) Cookies(_ context.Context, _ string) (map[string]string, error) {
	if len(s.cookies) == 0 {
		return nil, nil //nolint:nilnil // empty static source is not an error
	}
	// Return a copy to prevent mutation
	result := make(map[string]string, len(s.cookies))
	for k, v := range s.cookies {
		result[k] = v
	}
	return result, nil
}

// EnvSource reads session cookies from environment variables.
type EnvSource struct{}

// Cookies returns CRM cookies from environment variables.
func (EnvSource) Cookies(_ context.Context, _ string) (map[string]string, error) {
	cookies := make(map[string]string)
	for envVar, cookieName := range envCookieVars {
		if value := os.Getenv(envVar); value != "" {
			cookies[cookieName] = value
		}
	}
	if len(cookies) == 0 {
		return nil, nil //nolint:nilnil // no env vars set is not an error
	}
	return cookies, nil
}

// BrowserSource reads CRM session cookies from browser cookie stores,
// letting a user reuse a session they already have in their browser
// instead of logging in again.
type BrowserSource struct {
	logger *slog.Logger
}

// NewBrowserSource creates a new browser cookie source.
func NewBrowserSource(logger *slog.Logger) *BrowserSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserSource{logger: logger}
}

// Cookies returns cookies for the CRM host from browser stores. The CRM's
// cookie names are deployment-specific, so every cookie scoped to the host
// is imported rather than a fixed essential set.
func (s *BrowserSource) Cookies(ctx context.Context, host string) (map[string]string, error) {
	kookies, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.DomainHasSuffix(host))
	if err != nil {
		s.logger.Debug("failed to read browser cookies", "host", host, "error", err)
		return nil, nil //nolint:nilnil // failed browser read is not a fatal error
	}
	if len(kookies) == 0 {
		return nil, nil //nolint:nilnil // no browser cookies is not an error
	}

	cookies := make(map[string]string, len(kookies))
	for _, c := range kookies {
		cookies[c.Name] = c.Value
	}
	s.logger.Debug("imported browser cookies", "host", host, "count", len(cookies))
	return cookies, nil
}
