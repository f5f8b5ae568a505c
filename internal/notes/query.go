package notes

import (
	"cmp"
	"slices"
	"strings"

	"github.com/illarion/locknote/internal/ordering"
)

// Filter selects notes. Zero value lists every note that is not deleted.
type Filter struct {
	Deleted       bool // list the trash instead of live notes
	FavoritesOnly bool
	FolderID      string
	ProjectID     string
	LaneID        string
	Tag           string
	Query         string // case-insensitive substring of title, tags or plain content
}

func (f Filter) match(n Note) bool {
	if n.IsDeleted != f.Deleted {
		return false
	}
	if f.FavoritesOnly && !n.IsFavorite {
		return false
	}
	if f.FolderID != "" && n.FolderID != f.FolderID {
		return false
	}
	if f.ProjectID != "" && n.ProjectID != f.ProjectID {
		return false
	}
	if f.LaneID != "" && n.LaneID != f.LaneID {
		return false
	}
	if f.Tag != "" && !n.HasTag(f.Tag) {
		return false
	}
	if f.Query == "" {
		return true
	}

	q := strings.ToLower(f.Query)
	if strings.Contains(strings.ToLower(n.Title), q) {
		return true
	}
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	// ciphertext is opaque and never searched
	return !n.IsEncrypted && strings.Contains(strings.ToLower(n.Content), q)
}

func compareNotes(a, b Note) int {
	switch {
	case ordering.Less(a.Position, b.Position, a.UpdatedAt, b.UpdatedAt):
		return -1
	case ordering.Less(b.Position, a.Position, b.UpdatedAt, a.UpdatedAt):
		return 1
	default:
		return cmp.Compare(a.ID, b.ID)
	}
}

// Note returns a copy of the note with the given id.
func (s *Store) Note(id string) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.noteIndex(id)
	if i < 0 {
		return Note{}, false
	}
	return s.notes[i].clone(), true
}

// Notes returns copies of the matching notes in display order.
func (s *Store) Notes(f Filter) []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		if f.match(n) {
			out = append(out, n.clone())
		}
	}
	slices.SortStableFunc(out, compareNotes)
	return out
}

// Tags returns the distinct tags of live notes, sorted.
func (s *Store) Tags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tags []string
	for _, n := range s.notes {
		if n.IsDeleted {
			continue
		}
		for _, t := range n.Tags {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}
	slices.Sort(tags)
	return tags
}

// Folders returns all folders, highest position first.
func (s *Store) Folders() []Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.folders)
	slices.SortStableFunc(out, func(a, b Folder) int { return cmp.Compare(b.Position, a.Position) })
	return out
}

// Folder returns the folder with the given id.
func (s *Store) Folder(id string) (Folder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.folderIndex(id)
	if i < 0 {
		return Folder{}, false
	}
	return s.folders[i], true
}

// Projects returns all projects, highest position first.
func (s *Store) Projects() []Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.projects)
	slices.SortStableFunc(out, func(a, b Project) int { return cmp.Compare(b.Position, a.Position) })
	return out
}

// Lanes returns the lanes of a project, highest position first.
func (s *Store) Lanes(projectID string) []Lane {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Lane
	for _, l := range s.lanes {
		if l.ProjectID == projectID {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, func(a, b Lane) int { return cmp.Compare(b.Position, a.Position) })
	return out
}

// Settings returns the current settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Session returns the current session flags.
func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// ActiveNoteID returns the selected note id, or "".
func (s *Store) ActiveNoteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}
