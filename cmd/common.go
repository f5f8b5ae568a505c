package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/illarion/locknote/internal/core"
	"github.com/illarion/locknote/internal/notes"
)

var errAmbiguousID = errors.New("ambiguous note id")

// HandleError prints err with a hint for known failures.
func HandleError(w io.Writer, err error) {
	switch {
	case errors.Is(err, core.ErrNotInitialized):
		fmt.Fprintf(w, "Error: locknote not initialized\n")
		fmt.Fprintf(w, "Run 'locknote init' first\n")
	case errors.Is(err, core.ErrAlreadyExists):
		fmt.Fprintf(w, "Error: a notes database already exists at this path\n")
		fmt.Fprintf(w, "Use 'locknote status' to see current state\n")
	case errors.Is(err, core.ErrWrongPassword):
		fmt.Fprintf(w, "Error: wrong password\n")
	case errors.Is(err, core.ErrNoPassword):
		fmt.Fprintf(w, "Error: no note password set\n")
		fmt.Fprintf(w, "Use 'locknote passwd' to set one\n")
	case errors.Is(err, core.ErrLocked):
		fmt.Fprintf(w, "Error: notes are locked\n")
		fmt.Fprintf(w, "Use 'locknote unlock' first\n")
	case errors.Is(err, core.ErrBusy):
		fmt.Fprintf(w, "Error: database busy (is 'locknote watch' running?)\n")
	case errors.Is(err, core.ErrNoMirror):
		fmt.Fprintf(w, "Error: no mirror directory configured\n")
		fmt.Fprintf(w, "Pass --mirror or set LOCKNOTE_MIRROR\n")
	default:
		fmt.Fprintf(w, "Error: %s\n", err)
	}
}

// getPassword resolves the note password from the environment, the
// keyring or a prompt.
func getPassword(app *core.App, prompt string) (string, error) {
	return core.PasswordSource{App: app, Prompt: core.ReadPassword}.Get(prompt)
}

// notePassword returns a password only when the note is encrypted.
func notePassword(app *core.App, n notes.Note) (string, error) {
	if !n.IsEncrypted {
		return "", nil
	}
	return getPassword(app, "Enter password: ")
}

// findNote resolves a full id, or a unique id prefix or suffix as shown
// by ls. The trash is searched too.
func findNote(store *notes.Store, ref string) (notes.Note, error) {
	if n, ok := store.Note(ref); ok {
		return n, nil
	}
	if ref == "" {
		return notes.Note{}, core.ErrNoteNotFound
	}

	var matches []notes.Note
	for _, deleted := range []bool{false, true} {
		for _, n := range store.Notes(notes.Filter{Deleted: deleted}) {
			if strings.HasPrefix(n.ID, ref) || strings.HasSuffix(n.ID, ref) {
				matches = append(matches, n)
			}
		}
	}
	switch len(matches) {
	case 0:
		return notes.Note{}, fmt.Errorf("%w: %s", core.ErrNoteNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return notes.Note{}, fmt.Errorf("%w: %s matches %d notes", errAmbiguousID, ref, len(matches))
	}
}

// shortID is the id prefix shown in listings.
func shortID(id string) string {
	if len(id) > 13 {
		return id[len(id)-12:]
	}
	return id
}

// formatSize formats a file size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
