package htmlform

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToken(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "meta tag content before name",
			html: `<head><meta content="tok123" name="csrf-token"></head>`,
			want: "tok123",
		},
		{
			name: "meta tag entities decoded",
			html: `<meta name="csrf-token" content="abc&amp;123">`,
			want: "abc&123",
		},
		{
			name: "meta tag numeric entities decoded",
			html: `<meta name="csrf-token" content="a&#43;b&#x2F;c&#61;">`,
			want: "a+b/c=",
		},
		{
			name: "hidden input value before name",
			html: `<form><input type="hidden" value="formtok" name="authenticity_token"></form>`,
			want: "formtok",
		},
		{
			name: "hidden input value after name",
			html: `<form><input type="hidden" name="authenticity_token" value="formtok2"></form>`,
			want: "formtok2",
		},
		{
			name: "meta preferred over input",
			html: `<meta name="csrf-token" content="metatok"><input name="authenticity_token" value="formtok">`,
			want: "metatok",
		},
		{
			name: "no token",
			html: `<html><body><p>nothing here</p></body></html>`,
			want: "",
		},
		{
			name: "empty input value",
			html: `<input name="authenticity_token" value="">`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Token(tt.html); got != tt.want {
				t.Errorf("Token() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHiddenFields(t *testing.T) {
	html := `<form action="/candidates" method="post">
		<input type="hidden" name="utf8" value="&#x2713;">
		<input type="hidden" name="authenticity_token" value="tok">
		<input type="text" name="candidate[first_name]" value="ignored">
		<input type="hidden" value="nameless">
	</form>
	<form><input type="hidden" name="other_form" value="x"></form>`

	fields := HiddenFields(html)
	if got, want := fields.Get("utf8"), "✓"; got != want {
		t.Errorf("utf8 = %q, want %q", got, want)
	}
	if got := fields.Get("authenticity_token"); got != "tok" {
		t.Errorf("authenticity_token = %q, want %q", got, "tok")
	}
	if fields.Has("candidate[first_name]") {
		t.Error("non-hidden input should not be collected")
	}
	if fields.Has("other_form") {
		t.Error("second form's fields should not be collected")
	}
}

func TestSelectOptions(t *testing.T) {
	html := `<form>
		<select name="candidate[owner_id]">
			<option value="">Select owner</option>
			<option value="7">alice@example.com</option>
			<option value="9">  bob@example.com  </option>
		</select>
		<select name="candidate[stage]"><option value="1">Sourced</option></select>
	</form>`

	want := []SelectOption{
		{Value: "", Label: "Select owner"},
		{Value: "7", Label: "alice@example.com"},
		{Value: "9", Label: "bob@example.com"},
	}
	got := SelectOptions(html, "candidate[owner_id]")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SelectOptions mismatch (-want +got):\n%s", diff)
	}

	if opts := SelectOptions(html, "missing"); opts != nil {
		t.Errorf("SelectOptions for absent field = %v, want nil", opts)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "error container",
			html: `<div class="field-error"><b>LinkedIn URL</b>
				has already   been taken</div>`,
			want: "LinkedIn URL has already been taken",
		},
		{
			name: "alert container",
			html: `<p class="alert alert-danger">Invalid email or password.</p>`,
			want: "Invalid email or password.",
		},
		{
			name: "no container",
			html: `<div class="notice">saved</div>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.html); got != tt.want {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollapseSpace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  a \n\t b  ", "a b"},
		{"a b", "a b"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CollapseSpace(tt.in); got != tt.want {
			t.Errorf("CollapseSpace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
