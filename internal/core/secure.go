package core

import (
	"fmt"

	"github.com/illarion/locknote/internal/crypto"
	"github.com/illarion/locknote/internal/keyring"
	"github.com/illarion/locknote/internal/notes"
)

const passwordCheckString = "locknote-password-check"

func (a *App) encrypt(plaintext, password string) (string, error) {
	return crypto.EncryptWithIterations(plaintext, password, a.opts.iterations())
}

// SetPassword sets the note password for the first time.
func (a *App) SetPassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if a.store.Session().HasPassword {
		return ErrPasswordAlreadySet
	}
	check, err := a.encrypt(passwordCheckString, password)
	if err != nil {
		return fmt.Errorf("failed to encrypt password check: %w", err)
	}
	snap := a.store.Snapshot()
	snap.Session.HasPassword = true
	if err := a.commitPasswordCheck(snap, check); err != nil {
		return err
	}
	a.store.SetPassword(password)
	return nil
}

// commitPasswordCheck writes snap together with the verifier check. Saves
// already running are drained first so none of them can land afterwards
// with the previous state.
func (a *App) commitPasswordCheck(snap notes.Snapshot, check string) error {
	if err := a.persister.Flush(); err != nil {
		a.log.Warn().Err(err).Msg("earlier save failed, writing full state")
	}
	data, err := snap.Encode()
	if err != nil {
		return err
	}
	if err := a.db.SaveStateWithCheck(data, check); err != nil {
		return fmt.Errorf("failed to store password check: %w", err)
	}
	return nil
}

// VerifyPassword checks password against the stored verifier.
func (a *App) VerifyPassword(password string) error {
	if !a.store.Session().HasPassword {
		return ErrNoPassword
	}
	if password == "" {
		return ErrPasswordRequired
	}
	check, err := a.db.GetPasswordCheck()
	if err != nil {
		return err
	}
	if check == "" {
		return ErrNoPassword
	}
	got, err := crypto.DecryptText(check, password)
	if err != nil || got != passwordCheckString {
		return ErrWrongPassword
	}
	return nil
}

// ChangePassword re-encrypts every note sealed with current under next.
// Notes that current cannot open are left as they are and counted in
// skipped.
func (a *App) ChangePassword(current, next string) (changed, skipped int, err error) {
	if err := a.VerifyPassword(current); err != nil {
		return 0, 0, err
	}
	if next == "" {
		return 0, 0, ErrPasswordRequired
	}

	type resealed struct {
		id, content string
	}
	var updates []resealed
	for _, deleted := range []bool{false, true} {
		for _, n := range a.store.Notes(notes.Filter{Deleted: deleted}) {
			if !n.IsEncrypted {
				continue
			}
			plaintext, err := crypto.DecryptText(n.Content, current)
			if err != nil {
				a.log.Warn().Str("note", n.ID).Err(err).Msg("note not sealed with current password, skipping")
				skipped++
				continue
			}
			blob, err := a.encrypt(plaintext, next)
			if err != nil {
				return 0, 0, fmt.Errorf("failed to re-encrypt note %s: %w", n.ID, err)
			}
			updates = append(updates, resealed{n.ID, blob})
		}
	}

	check, err := a.encrypt(passwordCheckString, next)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to encrypt password check: %w", err)
	}
	snap := a.store.Snapshot()
	for i, n := range snap.Notes {
		for _, u := range updates {
			if u.id == n.ID {
				snap.Notes[i].Content = u.content
			}
		}
	}
	if err := a.commitPasswordCheck(snap, check); err != nil {
		return 0, 0, err
	}
	for _, u := range updates {
		a.store.UpdateNote(u.id, notes.NotePatch{Content: notes.Ptr(u.content)})
	}
	return len(updates), skipped, nil
}

func (a *App) note(id string) (notes.Note, error) {
	n, ok := a.store.Note(id)
	if !ok {
		return notes.Note{}, ErrNoteNotFound
	}
	return n, nil
}

// EncryptNote replaces a note's content with ciphertext under password.
func (a *App) EncryptNote(id, password string) error {
	n, err := a.note(id)
	if err != nil {
		return err
	}
	if n.IsEncrypted {
		return ErrAlreadyEncrypted
	}
	if err := a.VerifyPassword(password); err != nil {
		return err
	}
	blob, err := a.encrypt(n.Content, password)
	if err != nil {
		return fmt.Errorf("failed to encrypt note: %w", err)
	}
	a.store.UpdateNote(id, notes.NotePatch{Content: notes.Ptr(blob), IsEncrypted: notes.Ptr(true)})
	return nil
}

// ReadNote returns the note content, decrypted when it is encrypted. The
// stored note is not changed.
func (a *App) ReadNote(id, password string) (string, error) {
	n, err := a.note(id)
	if err != nil {
		return "", err
	}
	if !n.IsEncrypted {
		return n.Content, nil
	}
	return a.decryptWith(n.Content, password)
}

// RemoveEncryption stores the decrypted content back in plain text. A
// failed decrypt never touches the note.
func (a *App) RemoveEncryption(id, password string) error {
	n, err := a.note(id)
	if err != nil {
		return err
	}
	if !n.IsEncrypted {
		return ErrNotEncrypted
	}
	plaintext, err := a.ReadNote(id, password)
	if err != nil {
		return err
	}
	a.store.UpdateNote(id, notes.NotePatch{Content: notes.Ptr(plaintext), IsEncrypted: notes.Ptr(false)})
	return nil
}

// WriteNote replaces a note's content. Encrypted notes are sealed again
// with password, which must be the note password.
func (a *App) WriteNote(id, content, password string) error {
	n, err := a.note(id)
	if err != nil {
		return err
	}
	if !n.IsEncrypted {
		a.store.UpdateNote(id, notes.NotePatch{Content: notes.Ptr(content)})
		return nil
	}
	if _, err := a.ReadNote(id, password); err != nil {
		return err
	}
	blob, err := a.encrypt(content, password)
	if err != nil {
		return fmt.Errorf("failed to encrypt note: %w", err)
	}
	a.store.UpdateNote(id, notes.NotePatch{Content: notes.Ptr(blob)})
	return nil
}

// SavePasswordToKeyring verifies password and remembers it in the OS
// keyring for biometric unlock.
func (a *App) SavePasswordToKeyring(password string) error {
	if err := a.VerifyPassword(password); err != nil {
		return err
	}
	vaultID, err := a.VaultID()
	if err != nil {
		return err
	}
	return keyring.SavePassword(vaultID, password)
}

// KeyringPassword returns the remembered password. It is verified so a
// stale entry is reported as ErrWrongPassword.
func (a *App) KeyringPassword() (string, error) {
	vaultID, err := a.VaultID()
	if err != nil {
		return "", err
	}
	password, err := keyring.GetPassword(vaultID)
	if err != nil {
		return "", err
	}
	if err := a.VerifyPassword(password); err != nil {
		return "", err
	}
	return password, nil
}

// ForgetKeyringPassword removes the remembered password.
func (a *App) ForgetKeyringPassword() error {
	vaultID, err := a.VaultID()
	if err != nil {
		return err
	}
	return keyring.DeletePassword(vaultID)
}

// HasKeyringPassword reports whether a password is remembered.
func (a *App) HasKeyringPassword() bool {
	vaultID, err := a.VaultID()
	if err != nil {
		return false
	}
	return keyring.HasPassword(vaultID)
}
