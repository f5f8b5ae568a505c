package export

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/illarion/locknote/internal/notes"
)

func sampleNote() notes.Note {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return notes.Note{
		ID:        "n1",
		Title:     "Weekly plan",
		Content:   "<p>Buy   <b>milk</b></p><p>and&nbsp;bread &amp; eggs</p><script>alert(1)</script>",
		Language:  notes.DefaultLanguage,
		Tags:      []string{"home"},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"<p>a</p><p>b</p>", "a b"},
		{"line<br>break", "line break"},
		{"  lots \n\n of\t space ", "lots of space"},
		{"5 &lt; 6 &amp;&amp; 7 &gt; 6", "5 < 6 && 7 > 6"},
		{"<style>p{}</style>kept", "kept"},
		{"<ul><li>one</li><li>two</li></ul>", "one two"},
	}
	for _, tt := range tests {
		if got := StripHTML(tt.in); got != tt.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderText(t *testing.T) {
	a, err := Render(sampleNote(), FormatText)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if a.Filename != "Weekly-plan.txt" || a.MIMEType != "text/plain" {
		t.Errorf("Unexpected artifact meta: %s %s", a.Filename, a.MIMEType)
	}
	want := "Weekly plan\n\nBuy milk and bread & eggs\n"
	if string(a.Data) != want {
		t.Errorf("Text body:\n got %q\nwant %q", a.Data, want)
	}
}

func TestRenderPlainTextKeepsLines(t *testing.T) {
	n := sampleNote()
	n.Content = "# Heading\n\n- one\n- two\n\n5 < 6 & 7 > 6"

	for _, format := range []Format{FormatText, FormatMarkdown} {
		a, err := Render(n, format)
		if err != nil {
			t.Fatalf("Render(%s) failed: %v", format, err)
		}
		if !strings.Contains(string(a.Data), n.Content+"\n") {
			t.Errorf("Render(%s) changed plain content:\n%s", format, a.Data)
		}
	}
}

func TestHasMarkup(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"plain\ntext", false},
		{"a < b and c > d", false},
		{"x <3 y", false},
		{"<p>para</p>", true},
		{"line<br/>break", true},
		{"text with </b> only", true},
	}
	for _, tt := range tests {
		if got := HasMarkup(tt.in); got != tt.want {
			t.Errorf("HasMarkup(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	a, err := Render(sampleNote(), FormatMarkdown)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := string(a.Data)
	if !strings.HasPrefix(out, "---\nid: n1\n") {
		t.Errorf("Missing frontmatter:\n%s", out)
	}
	if !strings.Contains(out, "tags:\n  - home\n") {
		t.Errorf("Tags not in frontmatter:\n%s", out)
	}
	if !strings.Contains(out, "---\n\n# Weekly plan\n\n") {
		t.Errorf("Missing heading:\n%s", out)
	}
	if strings.Contains(out, "<p>") {
		t.Errorf("Markup leaked into markdown:\n%s", out)
	}
}

func TestRenderCodeAndEncryptedVerbatim(t *testing.T) {
	code := sampleNote()
	code.IsCodeMode = true
	code.Language = "go"
	code.Content = "if a < b && c > d {\n\treturn\n}"

	a, err := Render(code, FormatMarkdown)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(string(a.Data), "```go\n"+code.Content+"\n```") {
		t.Errorf("Code not fenced verbatim:\n%s", a.Data)
	}

	enc := sampleNote()
	enc.IsEncrypted = true
	enc.Content = "lkn1$1000$c2FsdA$bm9uY2U"
	a, err = Render(enc, FormatText)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(string(a.Data), enc.Content) {
		t.Errorf("Ciphertext altered:\n%s", a.Data)
	}
}

func TestRenderJSON(t *testing.T) {
	n := sampleNote()
	a, err := Render(n, FormatJSON)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var got notes.Note
	if err := json.Unmarshal(a.Data, &got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if got.ID != n.ID || got.Content != n.Content {
		t.Errorf("JSON mismatch: %+v", got)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"txt": FormatText, "Markdown": FormatMarkdown, " json ": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
	if _, err := Render(sampleNote(), Format("pdf")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Render: expected ErrUnknownFormat, got %v", err)
	}
}

func TestFilename(t *testing.T) {
	tests := map[string]string{
		"":              "note.md",
		"   ":           "note.md",
		"a/b\\c":        "abc.md",
		"v1.2 release":  "v1-2-release.md",
		"../etc/passwd": "etcpasswd.md",
	}
	for title, want := range tests {
		if got := Filename(title, FormatMarkdown); got != want {
			t.Errorf("Filename(%q) = %q, want %q", title, got, want)
		}
	}
}
