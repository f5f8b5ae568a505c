package notes

import (
	"slices"
	"sync"
	"time"

	"github.com/illarion/locknote/internal/ident"
	"github.com/illarion/locknote/internal/ordering"
	"github.com/rs/zerolog"
)

// ChangeKind classifies a store change.
type ChangeKind int

const (
	ChangeNotes ChangeKind = iota
	ChangeFolders
	ChangeProjects
	ChangeSettings
	ChangeSession
	ChangeActivity // lastActivity only; not part of the persisted projection
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeNotes:
		return "notes"
	case ChangeFolders:
		return "folders"
	case ChangeProjects:
		return "projects"
	case ChangeSettings:
		return "settings"
	case ChangeSession:
		return "session"
	case ChangeActivity:
		return "activity"
	default:
		return "unknown"
	}
}

// Change is emitted to subscribers after a mutation commits.
type Change struct {
	Kind ChangeKind
	ID   string // affected entity, empty for collection-wide changes
}

// Persistent reports whether the change touches the persisted projection.
func (c Change) Persistent() bool {
	return c.Kind != ChangeActivity
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator sets the identifier source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store owns every entity collection.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	newID    func() string
	log      zerolog.Logger
	notes    []Note
	folders  []Folder
	projects []Project
	lanes    []Lane
	settings Settings
	session  Session
	activeID string

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// New creates an empty store with default settings and an
// unauthenticated, unlocked session.
func New(opts ...Option) *Store {
	s := &Store{
		now:      time.Now,
		newID:    ident.NewID,
		log:      zerolog.Nop(),
		settings: DefaultSettings(),
		subs:     make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.session.LastActivity = s.now()
	return s
}

// Subscribe registers fn for every committed change. fn runs on the
// mutating goroutine after the store lock is released. The returned
// function unsubscribes.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) emit(changes []Change) {
	if len(changes) == 0 {
		return
	}
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, c := range changes {
		s.log.Debug().Stringer("kind", c.Kind).Str("id", c.ID).Msg("store change")
		for _, fn := range fns {
			fn(c)
		}
	}
}

// mutate runs fn under the store lock and emits what it returns.
func (s *Store) mutate(fn func() []Change) {
	s.mu.Lock()
	changes := fn()
	s.mu.Unlock()
	s.emit(changes)
}

// stamp returns the current time, never earlier than prev.
func (s *Store) stamp(prev time.Time) time.Time {
	now := s.now()
	if now.Before(prev) {
		return prev
	}
	return now
}

// touch records user activity. Caller holds mu.
func (s *Store) touch() {
	s.session.LastActivity = s.stamp(s.session.LastActivity)
}

func (s *Store) noteIndex(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.notes, func(n Note) bool { return n.ID == id })
}

func (s *Store) folderIndex(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.folders, func(f Folder) bool { return f.ID == id })
}

func (s *Store) projectIndex(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.projects, func(p Project) bool { return p.ID == id })
}

func (s *Store) laneIndex(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.lanes, func(l Lane) bool { return l.ID == id })
}

// --- notes ---

// CreateNote creates a note with default fields at the head of the list,
// optionally inside folderID, and makes it the active note.
func (s *Store) CreateNote(folderID string) Note {
	var created Note
	s.mutate(func() []Change {
		positions := make([]float64, len(s.notes))
		for i, n := range s.notes {
			positions[i] = n.Position
		}
		now := s.now()
		created = Note{
			ID:        s.newID(),
			Title:     DefaultNoteTitle,
			Language:  DefaultLanguage,
			FolderID:  folderID,
			Position:  ordering.HeadPosition(positions),
			Tags:      []string{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.notes = slices.Insert(s.notes, 0, created)
		s.activeID = created.ID
		s.touch()
		return []Change{{Kind: ChangeNotes, ID: created.ID}}
	})
	return created.clone()
}

// UpdateNote merges p into the note. Unknown ids are ignored. Any update
// counts as user activity.
func (s *Store) UpdateNote(id string, p NotePatch) {
	s.mutate(func() []Change {
		i := s.noteIndex(id)
		if i < 0 {
			return nil
		}
		n := &s.notes[i]
		p.apply(n)
		n.UpdatedAt = s.stamp(n.UpdatedAt)
		s.touch()
		return []Change{{Kind: ChangeNotes, ID: id}}
	})
}

func (s *Store) setDeleted(id string, deleted bool) {
	s.mutate(func() []Change {
		i := s.noteIndex(id)
		if i < 0 {
			return nil
		}
		n := &s.notes[i]
		n.IsDeleted = deleted
		n.UpdatedAt = s.stamp(n.UpdatedAt)
		if deleted && s.activeID == id {
			s.activeID = ""
		}
		return []Change{{Kind: ChangeNotes, ID: id}}
	})
}

// DeleteNote soft-deletes a note. Deleting the active note clears the
// active selection.
func (s *Store) DeleteNote(id string) {
	s.setDeleted(id, true)
}

// RestoreNote undoes DeleteNote.
func (s *Store) RestoreNote(id string) {
	s.setDeleted(id, false)
}

// ToggleNoteFavorite flips the favorite flag.
func (s *Store) ToggleNoteFavorite(id string) {
	s.mutate(func() []Change {
		i := s.noteIndex(id)
		if i < 0 {
			return nil
		}
		n := &s.notes[i]
		n.IsFavorite = !n.IsFavorite
		n.UpdatedAt = s.stamp(n.UpdatedAt)
		return []Change{{Kind: ChangeNotes, ID: id}}
	})
}

// MoveNote places a note between the notes prevID (displayed above) and
// nextID (displayed below). An empty or unknown neighbour id means that
// side is the end of the list. Only the moved note changes.
func (s *Store) MoveNote(id, prevID, nextID string) {
	s.mutate(func() []Change {
		i := s.noteIndex(id)
		if i < 0 {
			return nil
		}
		var prev, next *float64
		if j := s.noteIndex(prevID); j >= 0 && j != i {
			prev = &s.notes[j].Position
		}
		if j := s.noteIndex(nextID); j >= 0 && j != i {
			next = &s.notes[j].Position
		}
		n := &s.notes[i]
		n.Position = ordering.PositionBetween(prev, next)
		n.UpdatedAt = s.stamp(n.UpdatedAt)
		s.touch()
		return []Change{{Kind: ChangeNotes, ID: id}}
	})
}

// RenormalizeNotes rewrites every note position to evenly spaced values
// while keeping the current display order.
func (s *Store) RenormalizeNotes() {
	s.mutate(func() []Change {
		if len(s.notes) == 0 {
			return nil
		}
		order := make([]int, len(s.notes))
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			return compareNotes(s.notes[a], s.notes[b])
		})
		positions := ordering.Renormalize(len(order))
		changed := false
		for rank, i := range order {
			n := &s.notes[i]
			if n.Position == positions[rank] {
				continue
			}
			n.Position = positions[rank]
			n.UpdatedAt = s.stamp(n.UpdatedAt)
			changed = true
		}
		if !changed {
			return nil
		}
		return []Change{{Kind: ChangeNotes}}
	})
}

// SetActiveNote selects a note; "" clears the selection. Counts as
// activity. Unknown ids are ignored.
func (s *Store) SetActiveNote(id string) {
	s.mutate(func() []Change {
		if id != "" && s.noteIndex(id) < 0 {
			return nil
		}
		s.activeID = id
		s.touch()
		return []Change{{Kind: ChangeActivity, ID: id}}
	})
}

// --- folders ---

// CreateFolder creates a folder, optionally nested under parentID.
func (s *Store) CreateFolder(name, parentID string) Folder {
	var created Folder
	s.mutate(func() []Change {
		if s.folderIndex(parentID) < 0 {
			parentID = ""
		}
		positions := make([]float64, len(s.folders))
		for i, f := range s.folders {
			positions[i] = f.Position
		}
		created = Folder{
			ID:        s.newID(),
			Name:      name,
			Color:     DefaultFolderColor,
			ParentID:  parentID,
			Position:  ordering.HeadPosition(positions),
			CreatedAt: s.now(),
		}
		s.folders = append(s.folders, created)
		return []Change{{Kind: ChangeFolders, ID: created.ID}}
	})
	return created
}

// UpdateFolder merges p into the folder. A parent change that would make
// the folder its own ancestor is ignored.
func (s *Store) UpdateFolder(id string, p FolderPatch) {
	s.mutate(func() []Change {
		i := s.folderIndex(id)
		if i < 0 {
			return nil
		}
		f := &s.folders[i]
		if p.Name != nil {
			f.Name = *p.Name
		}
		if p.Color != nil {
			f.Color = *p.Color
		}
		if p.Position != nil {
			f.Position = *p.Position
		}
		if p.ParentID != nil && !s.wouldCycle(id, *p.ParentID) {
			f.ParentID = *p.ParentID
		}
		return []Change{{Kind: ChangeFolders, ID: id}}
	})
}

// wouldCycle reports whether making parentID the parent of id creates a
// cycle. Caller holds mu.
func (s *Store) wouldCycle(id, parentID string) bool {
	for cur, hops := parentID, 0; cur != "" && hops <= len(s.folders); hops++ {
		if cur == id {
			return true
		}
		j := s.folderIndex(cur)
		if j < 0 {
			return false
		}
		cur = s.folders[j].ParentID
	}
	return false
}

// DeleteFolder removes a folder. Its notes stay and lose the folder
// reference; child folders move up to the deleted folder's parent.
func (s *Store) DeleteFolder(id string) {
	s.mutate(func() []Change {
		i := s.folderIndex(id)
		if i < 0 {
			return nil
		}
		parent := s.folders[i].ParentID
		s.folders = slices.Delete(s.folders, i, i+1)
		for j := range s.folders {
			if s.folders[j].ParentID == id {
				s.folders[j].ParentID = parent
			}
		}

		changes := []Change{{Kind: ChangeFolders, ID: id}}
		for j := range s.notes {
			n := &s.notes[j]
			if n.FolderID != id {
				continue
			}
			n.FolderID = ""
			n.UpdatedAt = s.stamp(n.UpdatedAt)
			changes = append(changes, Change{Kind: ChangeNotes, ID: n.ID})
		}
		return changes
	})
}

// --- projects and lanes ---

// CreateProject creates a project with the default lanes.
func (s *Store) CreateProject(name string) Project {
	var created Project
	s.mutate(func() []Change {
		positions := make([]float64, len(s.projects))
		for i, p := range s.projects {
			positions[i] = p.Position
		}
		now := s.now()
		created = Project{
			ID:        s.newID(),
			Name:      name,
			Color:     DefaultProjectColor,
			Position:  ordering.HeadPosition(positions),
			CreatedAt: now,
		}
		s.projects = append(s.projects, created)
		// lanes read left to right, so the first default gets the highest position
		for i, laneName := range DefaultLanes {
			s.lanes = append(s.lanes, Lane{
				ID:        s.newID(),
				ProjectID: created.ID,
				Name:      laneName,
				Color:     DefaultProjectColor,
				Position:  float64(len(DefaultLanes)-i) * ordering.Gap,
				CreatedAt: now,
			})
		}
		return []Change{{Kind: ChangeProjects, ID: created.ID}}
	})
	return created
}

// UpdateProject merges p into the project.
func (s *Store) UpdateProject(id string, p ProjectPatch) {
	s.mutate(func() []Change {
		i := s.projectIndex(id)
		if i < 0 {
			return nil
		}
		p.apply(&s.projects[i])
		return []Change{{Kind: ChangeProjects, ID: id}}
	})
}

// DeleteProject removes a project and its lanes. Notes stay and lose
// their project and lane references.
func (s *Store) DeleteProject(id string) {
	s.mutate(func() []Change {
		i := s.projectIndex(id)
		if i < 0 {
			return nil
		}
		s.projects = slices.Delete(s.projects, i, i+1)
		s.lanes = slices.DeleteFunc(s.lanes, func(l Lane) bool { return l.ProjectID == id })

		changes := []Change{{Kind: ChangeProjects, ID: id}}
		for j := range s.notes {
			n := &s.notes[j]
			if n.ProjectID != id {
				continue
			}
			n.ProjectID = ""
			n.LaneID = ""
			n.UpdatedAt = s.stamp(n.UpdatedAt)
			changes = append(changes, Change{Kind: ChangeNotes, ID: n.ID})
		}
		return changes
	})
}

// CreateLane adds a lane to the end of a project board. It returns the
// zero Lane when the project does not exist.
func (s *Store) CreateLane(projectID, name string) Lane {
	var created Lane
	s.mutate(func() []Change {
		if s.projectIndex(projectID) < 0 {
			return nil
		}
		var last *float64
		for i := range s.lanes {
			l := &s.lanes[i]
			if l.ProjectID == projectID && (last == nil || l.Position < *last) {
				last = &l.Position
			}
		}
		created = Lane{
			ID:        s.newID(),
			ProjectID: projectID,
			Name:      name,
			Color:     DefaultProjectColor,
			Position:  ordering.PositionBetween(last, nil),
			CreatedAt: s.now(),
		}
		s.lanes = append(s.lanes, created)
		return []Change{{Kind: ChangeProjects, ID: projectID}}
	})
	return created
}

// UpdateLane merges p into the lane.
func (s *Store) UpdateLane(id string, p LanePatch) {
	s.mutate(func() []Change {
		i := s.laneIndex(id)
		if i < 0 {
			return nil
		}
		p.apply(&s.lanes[i])
		return []Change{{Kind: ChangeProjects, ID: s.lanes[i].ProjectID}}
	})
}

// DeleteLane removes a lane; its notes stay in the project without a lane.
func (s *Store) DeleteLane(id string) {
	s.mutate(func() []Change {
		i := s.laneIndex(id)
		if i < 0 {
			return nil
		}
		projectID := s.lanes[i].ProjectID
		s.lanes = slices.Delete(s.lanes, i, i+1)

		changes := []Change{{Kind: ChangeProjects, ID: projectID}}
		for j := range s.notes {
			n := &s.notes[j]
			if n.LaneID != id {
				continue
			}
			n.LaneID = ""
			n.UpdatedAt = s.stamp(n.UpdatedAt)
			changes = append(changes, Change{Kind: ChangeNotes, ID: n.ID})
		}
		return changes
	})
}

// --- settings ---

// UpdateSettings shallow-merges p into the settings.
func (s *Store) UpdateSettings(p SettingsPatch) {
	s.mutate(func() []Change {
		p.apply(&s.settings)
		return []Change{{Kind: ChangeSettings}}
	})
}

// --- session ---

// Authenticate opens the local session. Credential checks belong to the
// auth collaborator; this only flips the local flags and always succeeds.
func (s *Store) Authenticate(password string) bool {
	s.mutate(func() []Change {
		s.session.IsAuthenticated = true
		s.session.IsLocked = false
		s.touch()
		return []Change{{Kind: ChangeSession}}
	})
	return true
}

// Lock closes the local session. Data stays in place.
func (s *Store) Lock() {
	s.mutate(func() []Change {
		s.session.IsLocked = true
		s.session.IsAuthenticated = false
		return []Change{{Kind: ChangeSession}}
	})
}

// SetPassword records that a note password exists. The password itself
// is never kept.
func (s *Store) SetPassword(password string) {
	s.mutate(func() []Change {
		s.session.HasPassword = true
		return []Change{{Kind: ChangeSession}}
	})
}

// SignOut returns the session to its boot state.
func (s *Store) SignOut() {
	s.mutate(func() []Change {
		s.session.IsAuthenticated = false
		s.session.IsLocked = false
		s.activeID = ""
		return []Change{{Kind: ChangeSession}}
	})
}

// Touch records user activity without changing any entity.
func (s *Store) Touch() {
	s.mutate(func() []Change {
		s.touch()
		return []Change{{Kind: ChangeActivity}}
	})
}
