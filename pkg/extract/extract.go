// Package extract parses CRM candidate pages into structured records.
//
// The CRM renders everything server-side; the markup shapes here were
// reverse-engineered and are deliberately tolerant: optional fields that
// cannot be located are omitted, malformed table rows are dropped. Only the
// record id is load-bearing and raises a named error when missing.
package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/talentops/crmlink/pkg/candidate"
	"github.com/talentops/crmlink/pkg/htmlform"
	"github.com/talentops/crmlink/pkg/profileurl"
)

var (
	detailPathPattern = regexp.MustCompile(`/candidates/(\d+)/?$`)
	datePattern       = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`)
)

// timelineWindow bounds how far past a milestone label the date may sit.
const timelineWindow = 400

// DetailURLID returns the numeric record id when rawURL is a candidate
// detail-page URL, and reports whether it matched. The path must end in the
// numeric suffix; listing and form paths do not match.
func DetailURLID(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	path := u.Path
	if path == "" {
		path = rawURL
	}
	m := detailPathPattern.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DetailPage parses a candidate detail page fetched from resolvedURL.
// The record id comes from the URL's numeric suffix; everything else comes
// from the page. Missing optional fields are omitted, and the timeline is
// always exactly one entry per milestone in milestone order, dated "N/A"
// when the page carries no date for that stage.
func DetailPage(page, resolvedURL string) (*candidate.Record, error) {
	id, ok := DetailURLID(resolvedURL)
	if !ok {
		return nil, fmt.Errorf("%w: %s", candidate.ErrRecordIDMissing, resolvedURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse detail page: %w", err)
	}

	rec := &candidate.Record{
		ID:       id,
		URL:      resolvedURL,
		Timeline: timeline(page),
	}

	rec.Name = htmlform.CollapseSpace(doc.Find("h1, h2, h3").First().Text())
	rec.SourcedBy = labeledValue(doc, "Sourced By")
	rec.CurrentOwner = labeledValue(doc, "Current Owner")

	if loc := labeledValue(doc, "Location"); loc != "" && !strings.EqualFold(loc, "N/A") {
		rec.Location = loc
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if profileurl.Match(href) {
			rec.LinkedInURL = href
			return false
		}
		return true
	})

	rec.Submissions = submissions(doc)

	return rec, nil
}

// labeledValue locates a field rendered as a label element immediately
// followed by its value container. Returns "" when the label is absent or
// the value is empty.
func labeledValue(doc *goquery.Document, label string) string {
	var value string
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if htmlform.CollapseSpace(ownText(s)) != label {
			return true
		}
		value = htmlform.CollapseSpace(s.Next().Text())
		return value == ""
	})
	return value
}

// ownText returns the text directly inside a node, excluding descendants.
// Distinguishes the label element itself from ancestors that contain it.
func ownText(s *goquery.Selection) string {
	var b strings.Builder
	for _, node := range s.Nodes {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
	}
	return b.String()
}

// timeline scans the raw markup for each milestone label and takes the
// first date token within a bounded window after it. Output order is the
// fixed milestone order, not document order.
func timeline(page string) []candidate.TimelineEntry {
	tl := candidate.EmptyTimeline()
	for i, label := range candidate.Milestones {
		if date := milestoneDate(page, label); date != "" {
			tl[i].Date = date
		}
	}
	return tl
}

// milestoneDate finds a date rendered next to a milestone label. The date
// must sit inside the label's own element: the window ends at the first
// closing tag, so an undated milestone never steals the next one's date.
// Later occurrences of the label are tried when an earlier one carries no
// date (field labels like "Sourced By" shadow the milestone list).
func milestoneDate(page, label string) string {
	for start := 0; ; {
		idx := strings.Index(page[start:], label)
		if idx == -1 {
			return ""
		}
		winStart := start + idx + len(label)
		winEnd := winStart + timelineWindow
		if winEnd > len(page) {
			winEnd = len(page)
		}
		win := page[winStart:winEnd]
		if cut := strings.Index(win, "</"); cut != -1 {
			win = win[:cut]
		}
		if date := datePattern.FindString(win); date != "" {
			return date
		}
		start = winStart
	}
}

// submissions parses the first table on the page. The header row is
// skipped; rows with fewer than five extractable cells are dropped, not
// fatal.
func submissions(doc *goquery.Document) []candidate.Submission {
	var subs []candidate.Submission
	doc.Find("table").First().Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		cells := row.Find("td").Map(func(_ int, c *goquery.Selection) string {
			return htmlform.CollapseSpace(c.Text())
		})
		if extractable(cells) < 5 {
			return
		}
		subs = append(subs, candidate.Submission{
			Role:    cells[0],
			Company: cells[1],
			Stage:   cells[2],
			Dates:   cells[3],
			Owner:   cells[4],
		})
	})
	return subs
}

func extractable(cells []string) int {
	n := 0
	for _, c := range cells {
		if c != "" {
			n++
		}
	}
	return n
}

// SearchMatch scans a listing page for the first row whose profile link
// normalizes to the same URL as target, and returns that row's detail-page
// path. Returns "" when no row matches.
func SearchMatch(page, target string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}

	want := profileurl.Normalize(target)
	var detailPath string

	doc.Find("table").First().Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i == 0 {
			return true // header
		}
		matched := false
		row.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if profileurl.Match(href) && profileurl.Normalize(href) == want {
				matched = true
				return false
			}
			return true
		})
		if !matched {
			return true
		}
		row.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if _, ok := DetailURLID(href); ok {
				detailPath = href
				return false
			}
			return true
		})
		return detailPath == "" // keep scanning only if this row had no detail link
	})

	return detailPath
}
