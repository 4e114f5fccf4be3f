// Package profileurl normalizes and tokenizes professional-network profile URLs.
package profileurl

import (
	"regexp"
	"strings"
)

// Match returns true if the URL is a LinkedIn profile URL.
func Match(urlStr string) bool {
	return strings.Contains(strings.ToLower(urlStr), "linkedin.com/in/")
}

// Normalize canonicalizes a profile URL for comparison: lowercase, https
// scheme, "www." stripped, query/fragment dropped, trailing slashes removed.
// Normalize is idempotent: Normalize(Normalize(u)) == Normalize(u).
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.IndexAny(s, "?#"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimRight(s, "/")
	if s == "" {
		return ""
	}
	return "https://" + s
}

// Slug returns the final path segment of a profile URL, or "" when the URL
// has no path beyond the host.
func Slug(raw string) string {
	s := Normalize(raw)
	s = strings.TrimPrefix(s, "https://")
	idx := strings.LastIndex(s, "/")
	if idx == -1 || idx == len(s)-1 {
		return ""
	}
	return s[idx+1:]
}

// idSuffixPattern matches the trailing identifier LinkedIn appends to
// non-vanity slugs: a hyphen followed by 5+ alphanumeric characters.
var idSuffixPattern = regexp.MustCompile(`-[a-z0-9]{5,}$`)

// SlugTokens derives search tokens from a profile slug. The trailing
// identifier suffix is stripped, the remainder split on hyphens, and tokens
// of length <= 1 discarded. A slug without hyphens yields itself as the
// single token.
//
// This is a heuristic: purely alphabetic vanity slugs whose final segment
// happens to be 5+ characters lose that segment. Callers fall back to
// explicit name hints when token search misses.
func SlugTokens(slug string) []string {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil
	}
	if !strings.Contains(slug, "-") {
		return []string{slug}
	}

	stripped := idSuffixPattern.ReplaceAllString(slug, "")

	var tokens []string
	for _, tok := range strings.Split(stripped, "-") {
		if len(tok) <= 1 {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
