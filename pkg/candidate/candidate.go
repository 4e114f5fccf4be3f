// Package candidate defines the common types for CRM candidate records.
package candidate

import "errors"

// Common errors returned by crmlink packages.
var (
	ErrAuthRequired    = errors.New("authentication required")
	ErrNoCredentials   = errors.New("no credentials available")
	ErrTokenMissing    = errors.New("no anti-forgery token found")
	ErrRecordIDMissing = errors.New("no record id in detail page URL")
	ErrNotFound        = errors.New("candidate not found")
)

// Milestones are the six fixed recruiting timeline stages, in order.
// A record's Timeline always carries exactly one entry per milestone,
// in this order, regardless of document order on the detail page.
var Milestones = [6]string{
	"Sourced",
	"Contacted",
	"Replied",
	"Screened",
	"Submitted",
	"Interviewed",
}

// TimelineEntry is one milestone with its date, or "N/A" when the
// detail page carries no date for that stage.
type TimelineEntry struct {
	Label string `json:"label"`
	Date  string `json:"date"`
}

// Submission is one row of a candidate's submission history.
type Submission struct {
	Role    string `json:"role"`
	Company string `json:"company"`
	Stage   string `json:"stage"`
	Dates   string `json:"dates"`
	Owner   string `json:"owner"`
}

// Record represents a candidate record extracted from a CRM detail page.
// Optional string fields are empty when the page does not carry them;
// there are no placeholder values.
type Record struct {
	ID           string          `json:"id"`
	URL          string          `json:"url"`
	Name         string          `json:"name"`
	CurrentOwner string          `json:"current_owner,omitempty"`
	SourcedBy    string          `json:"sourced_by,omitempty"`
	Location     string          `json:"location,omitempty"`
	LinkedInURL  string          `json:"linkedin_url,omitempty"`
	Timeline     []TimelineEntry `json:"timeline"`
	Submissions  []Submission    `json:"submissions,omitempty"`
}

// LookupStatus discriminates LookupResult variants.
type LookupStatus string

// Lookup outcomes. NotFound is a successful outcome, not an error.
const (
	LookupFound        LookupStatus = "found"
	LookupNotFound     LookupStatus = "not_found"
	LookupAuthError    LookupStatus = "auth_error"
	LookupNetworkError LookupStatus = "network_error"
)

// LookupResult is the outcome of resolving a profile URL against the CRM.
// Record is non-nil only when Status == LookupFound.
type LookupResult struct {
	Status  LookupStatus `json:"status"`
	Record  *Record      `json:"record,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Found reports whether the lookup resolved to an existing record.
func (r LookupResult) Found() bool { return r.Status == LookupFound }

// CreateStatus discriminates CreateResult variants.
type CreateStatus string

// Create outcomes.
const (
	CreateCreated         CreateStatus = "created"
	CreateAlreadyExists   CreateStatus = "already_exists"
	CreateValidationError CreateStatus = "validation_error"
	CreateAuthError       CreateStatus = "auth_error"
)

// CreateResult is the outcome of submitting a new candidate record.
// Record is non-nil for Created and AlreadyExists.
type CreateResult struct {
	Status  CreateStatus `json:"status"`
	Record  *Record      `json:"record,omitempty"`
	Message string       `json:"message,omitempty"`
}

// EmptyTimeline returns a fresh timeline with every milestone dated "N/A".
func EmptyTimeline() []TimelineEntry {
	tl := make([]TimelineEntry, len(Milestones))
	for i, label := range Milestones {
		tl[i] = TimelineEntry{Label: label, Date: "N/A"}
	}
	return tl
}
