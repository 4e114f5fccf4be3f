// Package htmlform scrapes anti-forgery tokens and form state from
// server-rendered HTML. The CRM exposes no API; every mutating request must
// replay the hidden form fields and authenticity token of the page that
// rendered the form.
package htmlform

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Token extracts the anti-forgery token from a page. Recognized shapes, in
// order: a csrf-token meta tag, then a hidden authenticity_token input.
// HTML entities in the token value are decoded by the parser. Returns ""
// when no recognized shape is present; callers surface that as a
// token-missing error because no mutating request can succeed without it.
func Token(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	if content, ok := doc.Find(`meta[name="csrf-token"]`).First().Attr("content"); ok && content != "" {
		return content
	}
	if value, ok := doc.Find(`input[name="authenticity_token"]`).First().Attr("value"); ok && value != "" {
		return value
	}
	return ""
}

// HiddenFields returns the hidden inputs of the first form on the page as
// form values, authenticity_token included. Inputs without a name are
// skipped.
func HiddenFields(html string) url.Values {
	fields := url.Values{}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fields
	}

	scope := doc.Find("form").First()
	if scope.Length() == 0 {
		scope = doc.Selection
	}
	scope.Find(`input[type="hidden"]`).Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		value, _ := s.Attr("value")
		fields.Set(name, value)
	})
	return fields
}

// SelectOption is one option of a form select field.
type SelectOption struct {
	Value string
	Label string
}

// SelectOptions returns the options of the named select field in document
// order. Returns nil when the field is absent.
func SelectOptions(html, fieldName string) []SelectOption {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var opts []SelectOption
	doc.Find(`select[name="`+fieldName+`"]`).First().Find("option").Each(func(_ int, s *goquery.Selection) {
		value, _ := s.Attr("value")
		opts = append(opts, SelectOption{
			Value: value,
			Label: CollapseSpace(s.Text()),
		})
	})
	return opts
}

// ErrorMessage extracts the first validation or alert message from a page:
// the text of the first container whose class attribute contains "error" or
// "alert", markup stripped and whitespace collapsed. Returns "" when the
// page carries no such container.
func ErrorMessage(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var msg string
	doc.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		lower := strings.ToLower(class)
		if !strings.Contains(lower, "error") && !strings.Contains(lower, "alert") {
			return true
		}
		msg = CollapseSpace(s.Text())
		return msg == ""
	})
	return msg
}

var spacePattern = regexp.MustCompile(`\s+`)

// CollapseSpace trims a string and collapses interior whitespace runs
// (non-breaking spaces included) to single spaces.
func CollapseSpace(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
