package crm

import (
	"context"

	"github.com/talentops/crmlink/pkg/candidate"
	"github.com/talentops/crmlink/pkg/extract"
	"github.com/talentops/crmlink/pkg/profileurl"
)

// Lookup resolves a profile URL to an existing CRM record using three
// ordered strategies, each run sequentially so a hit short-circuits the
// rest:
//
//	A: post the URL to the CRM's existence-check endpoint and follow the
//	   redirect.
//	B: derive name tokens from the URL slug and run a name-contains search
//	   per token, scanning each listing for a row with the same normalized
//	   profile URL.
//	C: the same search with the explicit name hints, covering slugs that
//	   yield no usable tokens.
//
// A strategy fault (transport or parse) is swallowed so the next strategy
// still runs; NotFound means every strategy exhausted without a match. When
// no strategy could even complete, the last fault surfaces as NetworkError.
// Nothing propagates raw.
func (c *Client) Lookup(ctx context.Context, rawURL, firstNameHint, lastNameHint string) candidate.LookupResult {
	if !c.sess.Ensure(ctx, c.store) {
		return candidate.LookupResult{
			Status:  candidate.LookupAuthError,
			Message: "could not establish an authenticated CRM session",
		}
	}

	target := profileurl.Normalize(rawURL)
	c.logger.InfoContext(ctx, "resolving candidate", "url", target)

	type strategy struct {
		name string
		run  func(context.Context, string) (*candidate.Record, error)
	}
	strategies := []strategy{
		{"direct-check", c.strategyDirect},
		{"slug-search", c.strategySlugSearch},
	}
	if firstNameHint != "" || lastNameHint != "" {
		strategies = append(strategies, strategy{"hint-search", func(ctx context.Context, target string) (*candidate.Record, error) {
			return c.strategyHintSearch(ctx, target, firstNameHint, lastNameHint)
		}})
	}

	var lastErr error
	exhausted := false
	for _, st := range strategies {
		rec, err := st.run(ctx, target)
		if err != nil {
			// Swallowed: the next strategy may still resolve the profile.
			c.logger.WarnContext(ctx, "lookup strategy failed", "strategy", st.name, "error", err)
			lastErr = err
			continue
		}
		if rec != nil {
			c.logger.InfoContext(ctx, "candidate resolved", "strategy", st.name, "id", rec.ID)
			return candidate.LookupResult{Status: candidate.LookupFound, Record: rec}
		}
		exhausted = true
	}

	if !exhausted && lastErr != nil {
		return candidate.LookupResult{Status: candidate.LookupNetworkError, Message: lastErr.Error()}
	}
	return candidate.LookupResult{Status: candidate.LookupNotFound}
}

// strategyDirect posts the profile URL to the existence-check endpoint. A
// final resolved URL matching the detail-page pattern exactly means a hit;
// the redirect already rendered the detail page, so its body is parsed
// directly.
func (c *Client) strategyDirect(ctx context.Context, target string) (*candidate.Record, error) {
	resp, err := c.existenceCheck(ctx, target)
	if err != nil {
		return nil, err
	}
	if _, ok := extract.DetailURLID(resp.FinalURL); !ok {
		return nil, nil
	}
	return extract.DetailPage(string(resp.Body), resp.FinalURL)
}

// strategySlugSearch searches for each slug-derived token in slug order and
// scans each listing for the target URL.
func (c *Client) strategySlugSearch(ctx context.Context, target string) (*candidate.Record, error) {
	tokens := profileurl.SlugTokens(profileurl.Slug(target))
	if len(tokens) == 0 {
		return nil, nil
	}
	return c.searchAndScan(ctx, target, tokens)
}

// strategyHintSearch is the slug-search logic using explicit name hints,
// for slugs that carry no usable tokens.
func (c *Client) strategyHintSearch(ctx context.Context, target, first, last string) (*candidate.Record, error) {
	var terms []string
	if first != "" {
		terms = append(terms, first)
	}
	if last != "" {
		terms = append(terms, last)
	}
	return c.searchAndScan(ctx, target, terms)
}

// searchAndScan runs the name-contains search for each term in order,
// scanning listings for a row whose profile link normalizes to target. On
// the first matching row, the row's detail page is fetched and parsed.
func (c *Client) searchAndScan(ctx context.Context, target string, terms []string) (*candidate.Record, error) {
	for _, term := range terms {
		listing, err := c.search(ctx, term)
		if err != nil {
			return nil, err
		}
		path := extract.SearchMatch(listing, target)
		if path == "" {
			c.logger.Debug("no listing match", "term", term)
			continue
		}
		return c.fetchRecord(ctx, path)
	}
	return nil, nil
}
