package notes

import (
	"encoding/json"
	"fmt"
	"slices"
)

// SnapshotVersion is the current persisted record version.
const SnapshotVersion = 1

// PersistedSession is the part of the session that survives a restart.
type PersistedSession struct {
	HasPassword bool `json:"hasPassword"`
	IsLocked    bool `json:"isLocked"`
}

// Snapshot is the serializable projection of the store.
type Snapshot struct {
	Version  int              `json:"version"`
	Notes    []Note           `json:"notes"`
	Folders  []Folder         `json:"folders"`
	Projects []Project        `json:"projects"`
	Lanes    []Lane           `json:"lanes"`
	Settings Settings         `json:"settings"`
	Session  PersistedSession `json:"session"`
}

// DefaultSnapshot is the projection of an empty store.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Version:  SnapshotVersion,
		Notes:    []Note{},
		Folders:  []Folder{},
		Projects: []Project{},
		Lanes:    []Lane{},
		Settings: DefaultSettings(),
	}
}

// DecodeSnapshot parses a persisted record. Fields missing from data keep
// their defaults, so older and partial records load.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	snap := DefaultSnapshot()
	if len(data) == 0 {
		return snap, nil
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return DefaultSnapshot(), fmt.Errorf("failed to decode snapshot: %w", err)
	}

	notes := make([]Note, 0, len(snap.Notes))
	for _, n := range snap.Notes {
		if n.ID == "" {
			continue
		}
		notes = append(notes, normalizeNote(n))
	}
	snap.Notes = notes
	if snap.Folders == nil {
		snap.Folders = []Folder{}
	}
	if snap.Projects == nil {
		snap.Projects = []Project{}
	}
	if snap.Lanes == nil {
		snap.Lanes = []Lane{}
	}
	return snap, nil
}

// Encode serializes the snapshot.
func (snap Snapshot) Encode() ([]byte, error) {
	return json.Marshal(snap)
}

// Snapshot returns the current serializable projection.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := make([]Note, len(s.notes))
	for i, n := range s.notes {
		notes[i] = n.clone()
	}
	return Snapshot{
		Version:  SnapshotVersion,
		Notes:    notes,
		Folders:  slices.Clone(s.folders),
		Projects: slices.Clone(s.projects),
		Lanes:    slices.Clone(s.lanes),
		Settings: s.settings,
		Session: PersistedSession{
			HasPassword: s.session.HasPassword,
			IsLocked:    s.session.IsLocked,
		},
	}
}

// Restore installs a persisted projection. The session comes back
// unauthenticated with fresh activity; HasPassword and IsLocked are kept.
// Restore does not notify subscribers: the data is already persisted.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes = make([]Note, 0, len(snap.Notes))
	for _, n := range snap.Notes {
		s.notes = append(s.notes, n.clone())
	}
	s.folders = slices.Clone(snap.Folders)
	s.projects = slices.Clone(snap.Projects)
	s.lanes = slices.Clone(snap.Lanes)
	s.settings = snap.Settings
	s.session = Session{
		HasPassword:  snap.Session.HasPassword,
		IsLocked:     snap.Session.IsLocked,
		LastActivity: s.now(),
	}
	s.activeID = ""
}
