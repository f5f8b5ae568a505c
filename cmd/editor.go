package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/illarion/locknote/internal/crypto"
	"github.com/illarion/locknote/internal/notes"
)

// getEditor returns the editor to use, checking environment variables with fallback
func getEditor() string {
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if runtime.GOOS == "windows" {
		return "notepad"
	}
	return "vi"
}

// editorExt picks a temp file extension so editors highlight code notes.
func editorExt(n notes.Note) string {
	if !n.IsCodeMode {
		return ".md"
	}
	switch n.Language {
	case "go":
		return ".go"
	case "python":
		return ".py"
	case "javascript":
		return ".js"
	case "typescript":
		return ".ts"
	case "json":
		return ".json"
	case "yaml":
		return ".yaml"
	case "bash", "shell":
		return ".sh"
	default:
		return ".txt"
	}
}

// editText opens content in the user's editor and returns the result. The
// temp file is private and removed afterwards.
func editText(content, ext string) (string, error) {
	tmpFile, err := os.CreateTemp("", "locknote-edit-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := tmpFile.Name()
	defer os.Remove(name)

	if err := os.Chmod(name, 0600); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to set temp file permissions: %w", err)
	}
	if _, err := io.WriteString(tmpFile, content); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := invokeEditor(name); err != nil {
		return "", err
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read edited file: %w", err)
	}
	defer crypto.ClearBytes(data)

	// overwrite plaintext before the file is removed
	if zero := make([]byte, len(data)); len(zero) > 0 {
		os.WriteFile(name, zero, 0600)
	}
	return string(data), nil
}

// invokeEditor opens the specified editor and waits for user to finish
func invokeEditor(filename string) error {
	editor := getEditor()

	if _, err := exec.LookPath(editor); err != nil {
		return fmt.Errorf("editor '%s' not found: %w\nPlease set VISUAL or EDITOR environment variable", editor, err)
	}

	cmd := exec.Command(editor, filename)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("editor exited with code %d", exitErr.ExitCode())
	}
	return err
}
