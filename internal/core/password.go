package core

import (
	"fmt"
	"os"

	"github.com/illarion/locknote/internal/config"
	"github.com/illarion/locknote/internal/crypto"
	"golang.org/x/term"
)

// ReadPassword reads a password from the terminal without echoing
func ReadPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

// ReadPasswordConfirm reads a password twice and ensures they match
func ReadPasswordConfirm(prompt string) ([]byte, error) {
	password1, err := ReadPassword(prompt)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password1)

	password2, err := ReadPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password2)

	if !crypto.ConstantTimeCompare(password1, password2) {
		return nil, fmt.Errorf("passwords do not match")
	}

	// Return a copy of the password
	result := make([]byte, len(password1))
	copy(result, password1)
	return result, nil
}

// IsTerminal reports whether stdin is interactive.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// PasswordSource resolves the note password for a command.
type PasswordSource struct {
	App    *App
	Prompt func(prompt string) ([]byte, error)
}

// Get tries LOCKNOTE_PASSWORD, then the OS keyring when biometric unlock
// is enabled, then the prompt.
func (ps PasswordSource) Get(prompt string) (string, error) {
	if pw := config.PasswordFromEnv(); pw != nil {
		return string(pw), nil
	}
	if ps.App != nil && ps.App.Store().Settings().BiometricAuth {
		if pw, err := ps.App.KeyringPassword(); err == nil {
			return pw, nil
		}
	}
	if ps.Prompt == nil {
		return "", ErrPasswordRequired
	}
	pw, err := ps.Prompt(prompt)
	if err != nil {
		return "", err
	}
	defer crypto.ClearBytes(pw)
	if len(pw) == 0 {
		return "", ErrPasswordRequired
	}
	return string(pw), nil
}
