package storage

import (
	"time"
)

// Info describes an opened database for status output.
type Info struct {
	Path      string    `json:"path"`
	Version   string    `json:"version"`
	VaultID   string    `json:"vaultId"`
	Created   time.Time `json:"created"`
	Modified  time.Time `json:"modified"`
	StateSize int       `json:"stateSize"`
	Accounts  int       `json:"accounts"`
}

// Age returns how long ago the state was last saved.
func (i Info) Age(now time.Time) time.Duration {
	if i.Modified.IsZero() {
		return 0
	}
	return now.Sub(i.Modified)
}
