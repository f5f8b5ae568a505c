package notes

import (
	"slices"
)

// LoadNotes merges notes hydrated from the remote mirror. A known id is
// replaced only when the incoming copy is strictly newer by UpdatedAt;
// unknown ids are added.
func (s *Store) LoadNotes(incoming []Note) {
	s.mutate(func() []Change {
		var changes []Change
		for _, in := range incoming {
			if in.ID == "" {
				continue
			}
			in = normalizeNote(in)
			i := s.noteIndex(in.ID)
			switch {
			case i < 0:
				s.notes = append(s.notes, in)
			case in.UpdatedAt.After(s.notes[i].UpdatedAt):
				s.notes[i] = in
			default:
				continue
			}
			changes = append(changes, Change{Kind: ChangeNotes, ID: in.ID})
		}
		return changes
	})
}

// LoadFolders replaces the folder collection. Parents and note folders
// that no longer exist are cleared, as DeleteFolder would.
func (s *Store) LoadFolders(folders []Folder) {
	s.mutate(func() []Change {
		s.folders = slices.Clone(folders)
		for i := range s.folders {
			if s.folderIndex(s.folders[i].ParentID) < 0 {
				s.folders[i].ParentID = ""
			}
		}
		changes := []Change{{Kind: ChangeFolders}}
		return s.repairNotes(changes, func(n *Note) bool {
			if n.FolderID == "" || s.folderIndex(n.FolderID) >= 0 {
				return false
			}
			n.FolderID = ""
			return true
		})
	})
}

// LoadProjects replaces the project collection. Lanes of missing projects
// are dropped and notes on them leave the board.
func (s *Store) LoadProjects(projects []Project) {
	s.mutate(func() []Change {
		s.projects = slices.Clone(projects)
		s.lanes = slices.DeleteFunc(s.lanes, func(l Lane) bool { return s.projectIndex(l.ProjectID) < 0 })
		changes := []Change{{Kind: ChangeProjects}}
		return s.repairNotes(changes, func(n *Note) bool {
			switch {
			case n.ProjectID != "" && s.projectIndex(n.ProjectID) < 0:
				n.ProjectID = ""
				n.LaneID = ""
			case n.LaneID != "" && s.laneIndex(n.LaneID) < 0:
				n.LaneID = ""
			default:
				return false
			}
			return true
		})
	})
}

// LoadLanes replaces the lane collection. Notes on lanes that no longer
// exist keep their project but lose the lane.
func (s *Store) LoadLanes(lanes []Lane) {
	s.mutate(func() []Change {
		s.lanes = slices.Clone(lanes)
		changes := []Change{{Kind: ChangeProjects}}
		return s.repairNotes(changes, func(n *Note) bool {
			if n.LaneID == "" || s.laneIndex(n.LaneID) >= 0 {
				return false
			}
			n.LaneID = ""
			return true
		})
	})
}

// repairNotes applies fix to every note and records the ones it changed.
func (s *Store) repairNotes(changes []Change, fix func(n *Note) bool) []Change {
	for i := range s.notes {
		n := &s.notes[i]
		if !fix(n) {
			continue
		}
		n.UpdatedAt = s.stamp(n.UpdatedAt)
		changes = append(changes, Change{Kind: ChangeNotes, ID: n.ID})
	}
	return changes
}

// LoadSettings replaces the settings record.
func (s *Store) LoadSettings(settings Settings) {
	s.mutate(func() []Change {
		s.settings = settings
		return []Change{{Kind: ChangeSettings}}
	})
}

// normalizeNote fills fields an older or partial record may lack.
func normalizeNote(n Note) Note {
	n.Tags = normalizeTags(n.Tags)
	if n.Language == "" {
		n.Language = DefaultLanguage
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = n.UpdatedAt
	}
	if n.UpdatedAt.Before(n.CreatedAt) {
		n.UpdatedAt = n.CreatedAt
	}
	return n
}
