// Package crm resolves professional-network profile URLs against a
// recruiting CRM that exposes no API, and creates stub records when no
// match exists. Every operation is a strictly sequential chain of HTTP
// round trips driven through an explicit session; success of each mutating
// step is inferred from where its redirect chain lands.
package crm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/talentops/crmlink/pkg/candidate"
	"github.com/talentops/crmlink/pkg/creds"
	"github.com/talentops/crmlink/pkg/extract"
	"github.com/talentops/crmlink/pkg/htmlform"
	"github.com/talentops/crmlink/pkg/httpfetch"
	"github.com/talentops/crmlink/pkg/session"
)

// CRM paths. The search endpoint uses a Ransack-style query predicate.
const (
	urlCheckFormPath = "/candidates/linkedin_url_check"
	urlCheckPath     = "/candidates/check_linkedin_url"
	searchPath       = "/candidates"
	newCandidatePath = "/candidates/new"
	candidatesPath   = "/candidates"

	searchParam = "q[first_name_or_last_name_cont]"
)

// Client drives the CRM through an authenticated session.
type Client struct {
	sess   *session.Session
	store  creds.Store
	cache  httpfetch.Cacher
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*config)

type config struct {
	store  creds.Store
	cache  httpfetch.Cacher
	logger *slog.Logger
}

// WithCredentialStore sets the credential source used to establish the
// session and to resolve the owner on creation. Defaults to creds.FileStore.
func WithCredentialStore(store creds.Store) Option {
	return func(c *config) { c.store = store }
}

// WithHTTPCache sets the response cache for idempotent detail-page GETs.
func WithHTTPCache(cache httpfetch.Cacher) Option {
	return func(c *config) { c.cache = cache }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// New creates a CRM client on top of an established session value.
func New(sess *session.Session, opts ...Option) *Client {
	cfg := &config{logger: slog.Default(), store: creds.FileStore{}}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Client{
		sess:   sess,
		store:  cfg.store,
		cache:  cfg.cache,
		logger: cfg.logger,
	}
}

// CheckAuthenticated reports whether the session is currently live.
func (c *Client) CheckAuthenticated(ctx context.Context) bool {
	return c.sess.Active(ctx)
}

// Login authenticates the session with explicit credentials.
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.sess.Login(ctx, email, password)
}

// existenceCheck posts a profile URL to the CRM's dedicated check endpoint
// and returns where the redirect chain landed plus the rendered body. A
// landing on a detail page means the candidate already exists.
func (c *Client) existenceCheck(ctx context.Context, profileURL string) (*httpfetch.FormResponse, error) {
	_, body, err := httpfetch.Page(ctx, c.sess.Client(), c.sess.BaseURL(urlCheckFormPath), c.logger)
	if err != nil {
		return nil, fmt.Errorf("fetch url-check form: %w", err)
	}

	token := htmlform.Token(string(body))
	if token == "" {
		return nil, fmt.Errorf("url-check form: %w", candidate.ErrTokenMissing)
	}

	form := htmlform.HiddenFields(string(body))
	form.Set("authenticity_token", token)
	form.Set("linkedin_url", profileURL)

	resp, err := httpfetch.PostForm(ctx, c.sess.Client(), c.sess.BaseURL(urlCheckPath), form, c.logger)
	if err != nil {
		return nil, fmt.Errorf("post url check: %w", err)
	}
	return resp, nil
}

// search runs a name-contains candidate search and returns the listing page.
func (c *Client) search(ctx context.Context, term string) (string, error) {
	q := url.Values{}
	q.Set(searchParam, term)
	q.Set("commit", "Search")
	searchURL := c.sess.BaseURL(searchPath) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", httpfetch.UserAgent)

	// Listings change as records are created; never cached.
	body, err := httpfetch.Fetch(ctx, nil, c.sess.Client(), req, c.logger)
	if err != nil {
		return "", fmt.Errorf("search %q: %w", term, err)
	}
	return string(body), nil
}

// fetchRecord GETs a candidate detail page and parses it. path may be
// relative to the CRM base.
func (c *Client) fetchRecord(ctx context.Context, path string) (*candidate.Record, error) {
	detailURL := path
	if u, err := url.Parse(path); err == nil && !u.IsAbs() {
		detailURL = c.sess.BaseURL(u.Path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, detailURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", httpfetch.UserAgent)

	body, err := httpfetch.Fetch(ctx, c.cache, c.sess.Client(), req, c.logger)
	if err != nil {
		return nil, fmt.Errorf("fetch detail page: %w", err)
	}
	return extract.DetailPage(string(body), detailURL)
}
