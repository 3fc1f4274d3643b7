package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"render", "E002", "Render loop", CategoryRender},
		{"component", "E005", "Component failed", CategoryRender},
		{"snapshot", "E102", "Element without a tag", CategorySnapshot},
		{"config", "E122", "Invalid port", CategoryConfig},
		{"export", "E140", "Invalid export destination", CategoryExport},
		{"unknown", "E999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestRegistryCategories(t *testing.T) {
	for code, tmpl := range registry {
		if !strings.HasPrefix(code, "E") || len(code) != 4 {
			t.Errorf("malformed code %q", code)
		}
		if tmpl.Category == "" || tmpl.Message == "" {
			t.Errorf("%s: category and message are required", code)
		}
	}
	if _, ok := Lookup("E001"); !ok {
		t.Error("Lookup(E001) failed")
	}
	if Codes() != len(registry) {
		t.Error("Codes() mismatch")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{New("E001"), "E001: Render pass failed"},
		{&Error{Message: "plain"}, "plain"},
		{New("E141").Wrap(fs.ErrPermission), "E141: Upload failed: permission denied"},
		{Newf(CategoryCLI, "bad flag %q", "x"), `bad flag "x"`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestUnwrap(t *testing.T) {
	err := New("E100").Wrap(fs.ErrNotExist)
	if !stderrors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is should reach the wrapped error")
	}

	outer := fmt.Errorf("loading: %w", err)
	if got := FromError(outer, "E001"); got != err {
		t.Errorf("FromError = %v, want the wrapped *Error", got)
	}
	if got := FromError(fs.ErrClosed, "E160"); got.Code != "E160" || !stderrors.Is(got, fs.ErrClosed) {
		t.Errorf("FromError(plain) = %v", got)
	}
	if FromError(nil, "E001") != nil {
		t.Error("FromError(nil) should be nil")
	}
}

func TestWithLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.yaml")
	content := "tag: div\nchildren:\n  - attrs: {id: x}\n  - hello\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("E102").WithLocation(path, 3, 5)
	if got, want := err.Location.String(), path+":3:5"; got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
	want := []string{"children:", "  - attrs: {id: x}", "  - hello"}
	if strings.Join(err.Context, "\n") != strings.Join(want, "\n") {
		t.Errorf("Context = %q, want %q", err.Context, want)
	}

	missing := New("E102").WithLocation(filepath.Join(t.TempDir(), "nope.yaml"), 1, 0)
	if missing.Context != nil {
		t.Error("unreadable file should leave Context empty")
	}
	if got := missing.Location.String(); !strings.HasSuffix(got, "nope.yaml:1") {
		t.Errorf("Location without column = %q", got)
	}
}

func TestFormat(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	path := filepath.Join(t.TempDir(), "tree.yaml")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0644); err != nil {
		t.Fatal(err)
	}
	err := New("E104").
		WithLocation(path, 2, 1).
		WithSuggestion("Quote the value").
		Wrap(stderrors.New("got a map"))

	out := err.Format()
	for _, want := range []string{
		"ERROR E104: Invalid attribute value",
		path + ":2:1",
		"→    2 │ b",
		"│ ^",
		"Cause: got a map",
		"Hint: Quote the value",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Format() emitted ANSI codes with colors disabled")
	}

	if got, want := err.FormatCompact(), path+":2:1: E104: Invalid attribute value: got a map"; got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E122").WithSuggestion("Use 8080")
	var got map[string]any
	if e := json.Unmarshal([]byte(err.FormatJSON()), &got); e != nil {
		t.Fatalf("FormatJSON() is not JSON: %v", e)
	}
	if got["code"] != "E122" || got["category"] != "config" || got["suggestion"] != "Use 8080" {
		t.Errorf("FormatJSON() = %v", got)
	}
	if _, ok := got["location"]; ok {
		t.Error("location should be omitted")
	}
}

func TestPrint(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	var b strings.Builder
	Print(&b, fmt.Errorf("ctx: %w", New("E161")))
	if !strings.Contains(b.String(), "ERROR E161: Unknown demo") {
		t.Errorf("Print(*Error) = %q", b.String())
	}

	b.Reset()
	Print(&b, stderrors.New("plain failure"))
	if !strings.Contains(b.String(), "ERROR plain failure") {
		t.Errorf("Print(error) = %q", b.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 9)
	want := []string{"one two", "three", "four five", "six"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("wrapText = %q, want %q", lines, want)
	}
}
