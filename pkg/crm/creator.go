package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/talentops/crmlink/pkg/candidate"
	"github.com/talentops/crmlink/pkg/extract"
	"github.com/talentops/crmlink/pkg/htmlform"
	"github.com/talentops/crmlink/pkg/httpfetch"
	"github.com/talentops/crmlink/pkg/profileurl"
)

// ownerField is the new-candidate form's owner-selection field.
const ownerField = "candidate[owner_id]"

// Create submits a minimal stub record for a person not yet in the CRM.
//
// Before submitting anything it re-runs the existence check: if that
// already resolves to a detail page the record exists and Create returns
// AlreadyExists without posting, so a lookup/create race can never produce
// a duplicate. Ownership is auto-assigned by scanning the owner-selection
// options for a label equal (case-insensitively) to the configured email;
// with no match the owner is left unset.
//
// Create never returns an error: every internal fault becomes a structured
// result with a human-readable message.
func (c *Client) Create(ctx context.Context, firstName, lastName, rawURL, sourcedDate string) candidate.CreateResult {
	if !c.sess.Ensure(ctx, c.store) {
		return candidate.CreateResult{
			Status:  candidate.CreateAuthError,
			Message: "could not establish an authenticated CRM session",
		}
	}

	target := profileurl.Normalize(rawURL)

	// Duplicate short-circuit.
	if resp, err := c.existenceCheck(ctx, target); err == nil {
		if id, ok := extract.DetailURLID(resp.FinalURL); ok {
			rec, perr := extract.DetailPage(string(resp.Body), resp.FinalURL)
			if perr != nil {
				// The record exists even if its page resisted parsing.
				c.logger.WarnContext(ctx, "existing record parse failed", "id", id, "error", perr)
				rec = &candidate.Record{ID: id, URL: resp.FinalURL, Timeline: candidate.EmptyTimeline()}
			}
			return candidate.CreateResult{Status: candidate.CreateAlreadyExists, Record: rec}
		}
	} else {
		c.logger.WarnContext(ctx, "existence check failed, proceeding to create", "error", err)
	}

	_, body, err := httpfetch.Page(ctx, c.sess.Client(), c.sess.BaseURL(newCandidatePath), c.logger)
	if err != nil {
		return validationResult(fmt.Errorf("fetch creation form: %w", err))
	}
	page := string(body)

	token := htmlform.Token(page)
	if token == "" {
		return validationResult(fmt.Errorf("creation form: %w", candidate.ErrTokenMissing))
	}

	form := htmlform.HiddenFields(page)
	form.Set("authenticity_token", token)
	form.Set("candidate[first_name]", firstName)
	form.Set("candidate[last_name]", lastName)
	form.Set("candidate[linkedin_url]", target)
	if sourcedDate != "" {
		form.Set("candidate[sourced_date]", sourcedDate)
	}
	if ownerID := c.ownerID(ctx, page); ownerID != "" {
		form.Set(ownerField, ownerID)
	}
	form.Set("commit", "Create Candidate")

	resp, err := httpfetch.PostForm(ctx, c.sess.Client(), c.sess.BaseURL(candidatesPath), form, c.logger)
	if err != nil {
		return validationResult(fmt.Errorf("submit candidate: %w", err))
	}

	if id, ok := extract.DetailURLID(resp.FinalURL); ok {
		rec, perr := extract.DetailPage(string(resp.Body), resp.FinalURL)
		if perr != nil {
			c.logger.WarnContext(ctx, "created record parse failed", "id", id, "error", perr)
			rec = &candidate.Record{ID: id, URL: resp.FinalURL, Timeline: candidate.EmptyTimeline()}
		}
		c.logger.InfoContext(ctx, "candidate created", "id", rec.ID, "name", firstName+" "+lastName)
		return candidate.CreateResult{Status: candidate.CreateCreated, Record: rec}
	}

	// The POST re-rendered the form: surface the server's complaint.
	msg := htmlform.ErrorMessage(string(resp.Body))
	if msg == "" {
		msg = fmt.Sprintf("creation rejected (HTTP %d)", resp.StatusCode)
	}
	return candidate.CreateResult{Status: candidate.CreateValidationError, Message: msg}
}

// ownerID resolves the authenticated user's owner-selection value by
// matching option labels against the configured email. The CRM renders the
// label as the user's email today; if that ever changes this degrades to an
// unset owner, which the server accepts.
func (c *Client) ownerID(ctx context.Context, formPage string) string {
	cr, err := c.store.Credentials(ctx)
	if err != nil {
		c.logger.Debug("no configured email for owner resolution", "error", err)
		return ""
	}

	for _, opt := range htmlform.SelectOptions(formPage, ownerField) {
		if strings.EqualFold(opt.Label, cr.Email) {
			return opt.Value
		}
	}
	c.logger.WarnContext(ctx, "no owner option matched configured email, leaving owner unset", "email", cr.Email)
	return ""
}

func validationResult(err error) candidate.CreateResult {
	return candidate.CreateResult{Status: candidate.CreateValidationError, Message: err.Error()}
}
