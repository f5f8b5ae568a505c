package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/illarion/locknote/internal/crypto"
	"github.com/illarion/locknote/internal/export"
	"github.com/illarion/locknote/internal/security"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Export renders a note into dir and returns the written path. With a
// password an encrypted note is exported decrypted; without one its
// ciphertext is written as is.
func (a *App) Export(id string, format export.Format, dir, password string) (string, error) {
	n, err := a.note(id)
	if err != nil {
		return "", err
	}
	if n.IsEncrypted && password != "" {
		plaintext, err := a.ReadNote(id, password)
		if err != nil {
			return "", err
		}
		n.Content = plaintext
		n.IsEncrypted = false
	}

	artifact, err := export.Render(n, format)
	if err != nil {
		return "", err
	}

	out, err := security.Open(dir)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if err := out.WriteFile(artifact.Filename, artifact.Data, FilePermSecure); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return filepath.Join(out.Path(), artifact.Filename), nil
}

// DiffNote returns a patch from the note content to other, or "" when
// they are equal. Encrypted notes are compared in plain text.
func (a *App) DiffNote(id, label, other, password string) (string, error) {
	n, err := a.note(id)
	if err != nil {
		return "", err
	}
	content, err := a.ReadNote(id, password)
	if err != nil {
		return "", err
	}
	return unifiedDiff(n.Title, label, content, other), nil
}

// DiffMirror compares a note with its mirror copy.
func (a *App) DiffMirror(ctx context.Context, id, password string) (string, error) {
	if a.mirror == nil {
		return "", ErrNoMirror
	}
	remote, err := a.mirror.LoadNote(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to read mirror copy: %w", err)
	}
	other := remote.Content
	if remote.IsEncrypted {
		if other, err = a.decryptWith(remote.Content, password); err != nil {
			return "", err
		}
	}
	return a.DiffNote(id, "mirror", other, password)
}

func (a *App) decryptWith(blob, password string) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}
	plaintext, err := crypto.DecryptText(blob, password)
	if err != nil {
		a.log.Warn().Err(err).Msg("decrypt failed")
		return "", ErrWrongPassword
	}
	return plaintext, nil
}

func unifiedDiff(from, to, a, b string) string {
	if a == b {
		return ""
	}
	dmp := diffmatchpatch.New()

	// Line-mode diff for better output
	ca, cb, lineArray := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffMain(ca, cb, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	patches := dmp.PatchMake(a, diffs)
	if len(patches) == 0 {
		return ""
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("--- a/%s\n", from))
	result.WriteString(fmt.Sprintf("+++ b/%s\n", to))
	result.WriteString(dmp.PatchToText(patches))
	return result.String()
}
