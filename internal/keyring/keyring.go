// Package keyring keeps the note password in the OS credential store,
// keyed by database vault id.
package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "locknote"

// ErrNotFound is returned when no password is stored for a vault.
var ErrNotFound = keyring.ErrNotFound

// SavePassword stores a password in the OS keyring
func SavePassword(vaultID string, password string) error {
	return keyring.Set(serviceName, vaultID, password)
}

// GetPassword retrieves a password from the OS keyring
func GetPassword(vaultID string) (string, error) {
	return keyring.Get(serviceName, vaultID)
}

// DeletePassword removes a password from the OS keyring. Deleting an
// absent entry succeeds.
func DeletePassword(vaultID string) error {
	if err := keyring.Delete(serviceName, vaultID); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// HasPassword checks if a password is stored in the keyring
func HasPassword(vaultID string) bool {
	_, err := keyring.Get(serviceName, vaultID)
	return err == nil
}
