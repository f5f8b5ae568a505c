// Package export renders a note as a downloadable artifact.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/illarion/locknote/internal/notes"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

// Format is an export target.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts txt, md/markdown and json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text":
		return FormatText, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, s)
	}
}

// Artifact is a rendered note.
type Artifact struct {
	Filename string
	MIMEType string
	Data     []byte
}

type frontmatter struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Tags      []string  `yaml:"tags,omitempty"`
	Folder    string    `yaml:"folder,omitempty"`
	Language  string    `yaml:"language,omitempty"`
	Encrypted bool      `yaml:"encrypted,omitempty"`
	Favorite  bool      `yaml:"favorite,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Render produces the artifact for note in format.
func Render(note notes.Note, format Format) (Artifact, error) {
	switch format {
	case FormatText:
		var buf bytes.Buffer
		buf.WriteString(note.Title)
		buf.WriteString("\n\n")
		buf.WriteString(body(note))
		buf.WriteString("\n")
		return Artifact{Filename: Filename(note.Title, format), MIMEType: "text/plain", Data: buf.Bytes()}, nil

	case FormatMarkdown:
		var buf bytes.Buffer
		buf.WriteString("---\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(frontmatter{
			ID:        note.ID,
			Title:     note.Title,
			Tags:      note.Tags,
			Folder:    note.FolderID,
			Language:  note.Language,
			Encrypted: note.IsEncrypted,
			Favorite:  note.IsFavorite,
			CreatedAt: note.CreatedAt,
			UpdatedAt: note.UpdatedAt,
		}); err != nil {
			return Artifact{}, fmt.Errorf("failed to encode frontmatter: %w", err)
		}
		enc.Close()
		buf.WriteString("---\n\n# ")
		buf.WriteString(note.Title)
		buf.WriteString("\n\n")
		if note.IsCodeMode && !note.IsEncrypted {
			buf.WriteString("```" + note.Language + "\n")
			buf.WriteString(note.Content)
			buf.WriteString("\n```")
		} else {
			buf.WriteString(body(note))
		}
		buf.WriteString("\n")
		return Artifact{Filename: Filename(note.Title, format), MIMEType: "text/markdown", Data: buf.Bytes()}, nil

	case FormatJSON:
		data, err := json.MarshalIndent(note, "", "  ")
		if err != nil {
			return Artifact{}, fmt.Errorf("failed to encode note: %w", err)
		}
		return Artifact{Filename: Filename(note.Title, format), MIMEType: "application/json", Data: data}, nil

	default:
		return Artifact{}, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// body returns the text content for plain targets. Ciphertext, code and
// content without markup are passed through untouched.
func body(note notes.Note) string {
	if note.IsEncrypted || note.IsCodeMode || !HasMarkup(note.Content) {
		return note.Content
	}
	return StripHTML(note.Content)
}

// HasMarkup reports whether s contains at least one HTML tag.
func HasMarkup(s string) bool {
	if !strings.Contains(s, "<") {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			return true
		}
	}
}

// StripHTML drops markup, decodes entities and collapses runs of
// whitespace to single spaces.
func StripHTML(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var text strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed input; keep what was read
			return strings.Join(strings.Fields(text.String()), " ")
		case html.StartTagToken, html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				if tt == html.StartTagToken {
					skip++
				} else if skip > 0 {
					skip--
				}
			case "br", "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr":
				text.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			text.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				text.Write(z.Text())
			}
		}
	}
}

// Filename builds a safe file name from a note title.
func Filename(title string, format Format) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '.':
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "note"
	}
	return name + "." + string(format)
}
