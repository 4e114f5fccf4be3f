package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/talentops/crmlink/pkg/candidate"
	"github.com/talentops/crmlink/pkg/creds"
	"github.com/talentops/crmlink/pkg/htmlform"
	"github.com/talentops/crmlink/pkg/httpfetch"
)

// SignInPath is the CRM's login page and login form target.
const SignInPath = "/users/sign_in"

// signOutPath is the logout affordance a logged-in page always links to.
const signOutPath = "/users/sign_out"

// Session is an authenticated (or authenticatable) CRM session. It owns the
// cookie jar; the remote service invalidates sessions implicitly, which
// shows up as redirects back to the sign-in page.
type Session struct {
	base   *url.URL
	client *http.Client
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*config)

type config struct {
	cookies        map[string]string
	logger         *slog.Logger
	timeout        time.Duration
	browserCookies bool
}

// WithCookies seeds the jar with explicit cookie values.
func WithCookies(cookies map[string]string) Option {
	return func(c *config) { c.cookies = cookies }
}

// WithBrowserCookies enables importing an existing CRM session from
// browser cookie stores.
func WithBrowserCookies() Option {
	return func(c *config) { c.browserCookies = true }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithTimeout overrides the transport timeout (default 15s). There is no
// other cancellation; a stalled call blocks its operation until this fires.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New creates a Session for the CRM at baseURL. Cookie sources are checked
// in order: WithCookies > environment > browser. An empty jar is fine; the
// session can still authenticate with Login.
func New(ctx context.Context, baseURL string, opts ...Option) (*Session, error) {
	cfg := &config{logger: slog.Default(), timeout: 15 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid CRM base URL %q", baseURL)
	}

	var sources []Source
	if len(cfg.cookies) > 0 {
		sources = append(sources, NewStaticSource(cfg.cookies))
	}
	sources = append(sources, EnvSource{})
	if cfg.browserCookies {
		sources = append(sources, NewBrowserSource(cfg.logger))
	}

	cookies, err := ChainSources(ctx, base.Hostname(), sources...)
	if err != nil {
		return nil, fmt.Errorf("cookie retrieval failed: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar creation failed: %w", err)
	}
	if len(cookies) > 0 {
		var httpCookies []*http.Cookie
		for name, value := range cookies {
			if value != "" {
				httpCookies = append(httpCookies, &http.Cookie{Name: name, Value: value, Path: "/"})
			}
		}
		jar.SetCookies(base, httpCookies)
		cfg.logger.InfoContext(ctx, "session seeded from cookie source", "cookie_count", len(httpCookies))
	}

	return &Session{
		base:   base,
		client: &http.Client{Jar: jar, Timeout: cfg.timeout},
		logger: cfg.logger,
	}, nil
}

// Client returns the session's HTTP client. Every CRM request must go
// through it so the jar sees each Set-Cookie.
func (s *Session) Client() *http.Client { return s.client }

// BaseURL resolves a CRM path against the session's base URL.
func (s *Session) BaseURL(path string) string {
	ref := &url.URL{Path: path}
	return s.base.ResolveReference(ref).String()
}

// OnSignInPage reports whether a resolved URL landed on the sign-in page.
func OnSignInPage(resolvedURL string) bool {
	u, err := url.Parse(resolvedURL)
	if err != nil {
		return false
	}
	return strings.TrimRight(u.Path, "/") == SignInPath
}

// Active reports whether the session is currently authenticated. It GETs
// the root page; the session is inactive if the resolved URL lands on the
// sign-in path or the page lacks a sign-out affordance.
func (s *Session) Active(ctx context.Context) bool {
	finalURL, body, err := httpfetch.Page(ctx, s.client, s.BaseURL("/"), s.logger)
	if err != nil {
		s.logger.Debug("session probe failed", "error", err)
		return false
	}
	if OnSignInPage(finalURL) {
		return false
	}
	return strings.Contains(string(body), signOutPath)
}

// Login authenticates with the CRM: fetch the sign-in page, extract the
// anti-forgery token, post the credentials. Success is inferred
// structurally: the post-redirect URL is no longer the sign-in path.
func (s *Session) Login(ctx context.Context, email, password string) error {
	_, body, err := httpfetch.Page(ctx, s.client, s.BaseURL(SignInPath), s.logger)
	if err != nil {
		return fmt.Errorf("fetch sign-in page: %w", err)
	}

	token := htmlform.Token(string(body))
	if token == "" {
		return fmt.Errorf("sign-in page: %w", candidate.ErrTokenMissing)
	}

	form := htmlform.HiddenFields(string(body))
	form.Set("authenticity_token", token)
	form.Set("user[email]", email)
	form.Set("user[password]", password)
	form.Set("user[remember_me]", "1")
	form.Set("commit", "Log in")

	resp, err := httpfetch.PostForm(ctx, s.client, s.BaseURL(SignInPath), form, s.logger)
	if err != nil {
		return fmt.Errorf("post credentials: %w", err)
	}
	if OnSignInPage(resp.FinalURL) {
		return fmt.Errorf("%w: login rejected for %s", candidate.ErrAuthRequired, email)
	}

	s.logger.InfoContext(ctx, "logged in", "email", email)
	return nil
}

// Ensure makes the session active if it is not already, reading stored
// credentials and logging in. It never returns an error: every failure
// (missing credentials, rejected login, transport fault) is a negative
// result, logged for diagnosis.
func (s *Session) Ensure(ctx context.Context, store creds.Store) bool {
	if s.Active(ctx) {
		return true
	}

	cr, err := store.Credentials(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "no credentials for login", "error", err)
		return false
	}
	if err := s.Login(ctx, cr.Email, cr.Password); err != nil {
		s.logger.WarnContext(ctx, "login failed", "email", cr.Email, "error", err)
		return false
	}
	return true
}
