package notes

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newTestStore() (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return New(WithClock(clock.now), WithIDGenerator(sequentialIDs())), clock
}

func TestCreateNoteDefaults(t *testing.T) {
	s, clock := newTestStore()

	first := s.CreateNote("")
	clock.advance(time.Second)
	second := s.CreateNote("folder-x")

	if first.Title != DefaultNoteTitle || first.Language != DefaultLanguage {
		t.Errorf("Unexpected defaults: %+v", first)
	}
	if first.IsDeleted || first.IsEncrypted || first.IsFavorite {
		t.Errorf("New note should have all flags off: %+v", first)
	}
	if first.Position != 1000 {
		t.Errorf("First position: got %v, want 1000", first.Position)
	}
	if second.Position != 2000 {
		t.Errorf("Second position: got %v, want 2000", second.Position)
	}
	if second.FolderID != "folder-x" {
		t.Errorf("FolderID: got %q, want folder-x", second.FolderID)
	}
	if s.ActiveNoteID() != second.ID {
		t.Errorf("Active note: got %q, want %q", s.ActiveNoteID(), second.ID)
	}

	listed := s.Notes(Filter{})
	if len(listed) != 2 || listed[0].ID != second.ID {
		t.Errorf("Newest note should be listed first: %+v", listed)
	}
}

func TestUpdateNoteMergesAndStamps(t *testing.T) {
	s, clock := newTestStore()
	n := s.CreateNote("")

	clock.advance(time.Minute)
	s.UpdateNote(n.ID, NotePatch{Content: Ptr("hello"), Tags: []string{"a", "b", "a", ""}})

	got, ok := s.Note(n.ID)
	if !ok {
		t.Fatal("Note should exist")
	}
	if got.Content != "hello" || got.Title != DefaultNoteTitle {
		t.Errorf("Unexpected merge result: %+v", got)
	}
	if len(got.Tags) != 2 {
		t.Errorf("Tags should be deduplicated: %v", got.Tags)
	}
	if !got.UpdatedAt.Equal(clock.t) {
		t.Errorf("UpdatedAt: got %v, want %v", got.UpdatedAt, clock.t)
	}
	if !s.Session().LastActivity.Equal(clock.t) {
		t.Error("UpdateNote should count as activity")
	}

	// clock going backwards must not move UpdatedAt back
	clock.advance(-time.Hour)
	s.UpdateNote(n.ID, NotePatch{Title: Ptr("T")})
	again, _ := s.Note(n.ID)
	if again.UpdatedAt.Before(got.UpdatedAt) {
		t.Errorf("UpdatedAt decreased: %v -> %v", got.UpdatedAt, again.UpdatedAt)
	}
}

func TestReturnedNotesAreCopies(t *testing.T) {
	s, _ := newTestStore()
	n := s.CreateNote("")
	s.UpdateNote(n.ID, NotePatch{Tags: []string{"x"}})

	got, _ := s.Note(n.ID)
	got.Tags[0] = "mutated"
	got.Title = "mutated"

	fresh, _ := s.Note(n.ID)
	if fresh.Tags[0] != "x" || fresh.Title == "mutated" {
		t.Errorf("Store state leaked through a returned note: %+v", fresh)
	}
}

func TestMissingIDMutationsAreNoOps(t *testing.T) {
	s, _ := newTestStore()
	s.CreateNote("")
	before := s.Snapshot()

	changes := 0
	s.Subscribe(func(Change) { changes++ })

	s.UpdateNote("nope", NotePatch{Title: Ptr("x")})
	s.DeleteNote("nope")
	s.RestoreNote("nope")
	s.ToggleNoteFavorite("nope")
	s.MoveNote("nope", "", "")
	s.UpdateFolder("nope", FolderPatch{Name: Ptr("x")})
	s.DeleteFolder("nope")
	s.UpdateProject("nope", ProjectPatch{Name: Ptr("x")})
	s.DeleteProject("nope")
	s.DeleteLane("nope")
	s.SetActiveNote("nope")
	if l := s.CreateLane("nope", "lane"); l.ID != "" {
		t.Errorf("CreateLane on unknown project should return zero lane, got %+v", l)
	}

	if changes != 0 {
		t.Errorf("Expected no change notifications, got %d", changes)
	}
	after := s.Snapshot()
	if len(after.Notes) != len(before.Notes) || after.Notes[0].Title != before.Notes[0].Title {
		t.Error("State changed after no-op mutations")
	}
}

func TestDeleteActiveNoteClearsSelection(t *testing.T) {
	s, _ := newTestStore()
	n := s.CreateNote("")
	if s.ActiveNoteID() != n.ID {
		t.Fatal("New note should be active")
	}

	s.DeleteNote(n.ID)
	if s.ActiveNoteID() != "" {
		t.Error("Deleting the active note should clear the selection")
	}
	if len(s.Notes(Filter{})) != 0 {
		t.Error("Deleted note should not be listed")
	}
	if trash := s.Notes(Filter{Deleted: true}); len(trash) != 1 {
		t.Errorf("Trash should hold 1 note, got %d", len(trash))
	}
}

func TestSoftDeleteIdempotenceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, _ := newTestStore()
		n := s.CreateNote("")
		title := rapid.String().Draw(t, "title")
		content := rapid.String().Draw(t, "content")
		s.UpdateNote(n.ID, NotePatch{Title: &title, Content: &content})

		deletes := rapid.IntRange(1, 3).Draw(t, "deletes")
		for i := 0; i < deletes; i++ {
			s.DeleteNote(n.ID)
		}
		s.RestoreNote(n.ID)

		got, _ := s.Note(n.ID)
		if got.IsDeleted {
			t.Fatal("Restored note is still deleted")
		}
		if got.Title != title || got.Content != content {
			t.Fatalf("Restore changed note: %+v", got)
		}
	})
}

func TestToggleFavorite(t *testing.T) {
	s, _ := newTestStore()
	n := s.CreateNote("")

	s.ToggleNoteFavorite(n.ID)
	if favs := s.Notes(Filter{FavoritesOnly: true}); len(favs) != 1 {
		t.Fatalf("Expected 1 favorite, got %d", len(favs))
	}
	s.ToggleNoteFavorite(n.ID)
	if favs := s.Notes(Filter{FavoritesOnly: true}); len(favs) != 0 {
		t.Fatalf("Expected 0 favorites, got %d", len(favs))
	}
}

func TestMoveNoteBetweenNeighbours(t *testing.T) {
	s, _ := newTestStore()
	a := s.CreateNote("")
	b := s.CreateNote("")
	c := s.CreateNote("")
	s.UpdateNote(c.ID, NotePatch{Position: Ptr(3000.0)})
	s.UpdateNote(b.ID, NotePatch{Position: Ptr(2000.0)})
	s.UpdateNote(a.ID, NotePatch{Position: Ptr(1000.0)})

	// move the third (a, 1000) between the first (c, 3000) and second (b, 2000)
	s.MoveNote(a.ID, c.ID, b.ID)

	moved, _ := s.Note(a.ID)
	if moved.Position != 2500 {
		t.Errorf("Moved position: got %v, want 2500", moved.Position)
	}
	for _, n := range []Note{b, c} {
		got, _ := s.Note(n.ID)
		if got.Position != map[string]float64{b.ID: 2000, c.ID: 3000}[n.ID] {
			t.Errorf("Neighbour %s moved to %v", n.ID, got.Position)
		}
	}

	order := s.Notes(Filter{})
	if order[0].ID != c.ID || order[1].ID != a.ID || order[2].ID != b.ID {
		t.Errorf("Unexpected order: %s %s %s", order[0].ID, order[1].ID, order[2].ID)
	}

	// to the head
	s.MoveNote(b.ID, "", c.ID)
	head, _ := s.Note(b.ID)
	if head.Position != 4000 {
		t.Errorf("Head position: got %v, want 4000", head.Position)
	}
}

func TestRenormalizeKeepsOrder(t *testing.T) {
	s, _ := newTestStore()
	var ids []string
	for i := 0; i < 4; i++ {
		ids = append(ids, s.CreateNote("").ID)
	}
	// squeeze the oldest note towards the head many times
	for i := 0; i < 30; i++ {
		s.MoveNote(ids[0], ids[3], ids[2])
	}
	before := s.Notes(Filter{})

	s.RenormalizeNotes()

	after := s.Notes(Filter{})
	want := []float64{4000, 3000, 2000, 1000}
	for i := range after {
		if after[i].ID != before[i].ID {
			t.Fatalf("Order changed at %d: %s vs %s", i, after[i].ID, before[i].ID)
		}
		if after[i].Position != want[i] {
			t.Errorf("Position %d: got %v, want %v", i, after[i].Position, want[i])
		}
	}
}

func TestDeleteFolderRepairsReferences(t *testing.T) {
	s, _ := newTestStore()
	parent := s.CreateFolder("parent", "")
	f := s.CreateFolder("work", parent.ID)
	child := s.CreateFolder("child", f.ID)
	n1 := s.CreateNote(f.ID)
	n2 := s.CreateNote(f.ID)
	other := s.CreateNote(parent.ID)

	s.DeleteFolder(f.ID)

	for _, id := range []string{n1.ID, n2.ID} {
		got, ok := s.Note(id)
		if !ok {
			t.Fatalf("Note %s vanished", id)
		}
		if got.FolderID != "" {
			t.Errorf("Note %s still references deleted folder", id)
		}
		if got.IsDeleted {
			t.Errorf("Note %s was deleted with its folder", id)
		}
	}
	if got, _ := s.Note(other.ID); got.FolderID != parent.ID {
		t.Error("Unrelated note lost its folder")
	}
	if got, _ := s.Folder(child.ID); got.ParentID != parent.ID {
		t.Errorf("Child folder should move up to %s, got %q", parent.ID, got.ParentID)
	}
	if _, ok := s.Folder(f.ID); ok {
		t.Error("Folder should be gone")
	}
}

func TestReferentialRepairProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, _ := newTestStore()
		folders := []Folder{s.CreateFolder("a", ""), s.CreateFolder("b", "")}
		count := rapid.IntRange(0, 8).Draw(t, "notes")
		for i := 0; i < count; i++ {
			pick := rapid.IntRange(-1, 1).Draw(t, "folder")
			folderID := ""
			if pick >= 0 {
				folderID = folders[pick].ID
			}
			s.CreateNote(folderID)
		}

		victim := folders[rapid.IntRange(0, 1).Draw(t, "victim")]
		s.DeleteFolder(victim.ID)

		all := append(s.Notes(Filter{}), s.Notes(Filter{Deleted: true})...)
		if len(all) != count {
			t.Fatalf("Note count changed: got %d, want %d", len(all), count)
		}
		for _, n := range all {
			if n.FolderID == victim.ID {
				t.Fatalf("Note %s still references %s", n.ID, victim.ID)
			}
			if n.IsDeleted {
				t.Fatalf("Note %s deleted by folder removal", n.ID)
			}
		}
	})
}

func TestUpdateFolderRejectsCycles(t *testing.T) {
	s, _ := newTestStore()
	a := s.CreateFolder("a", "")
	b := s.CreateFolder("b", a.ID)

	s.UpdateFolder(a.ID, FolderPatch{ParentID: Ptr(b.ID)})
	if got, _ := s.Folder(a.ID); got.ParentID != "" {
		t.Errorf("Cycle accepted: a.ParentID = %q", got.ParentID)
	}
	s.UpdateFolder(a.ID, FolderPatch{ParentID: Ptr(a.ID), Name: Ptr("renamed")})
	got, _ := s.Folder(a.ID)
	if got.ParentID != "" || got.Name != "renamed" {
		t.Errorf("Unexpected folder after self-parent patch: %+v", got)
	}
}

func TestProjectsAndLanes(t *testing.T) {
	s, _ := newTestStore()
	p := s.CreateProject("Launch")

	lanes := s.Lanes(p.ID)
	if len(lanes) != len(DefaultLanes) || lanes[0].Name != "To Do" {
		t.Fatalf("Unexpected default lanes: %+v", lanes)
	}
	extra := s.CreateLane(p.ID, "Blocked")
	lanes = s.Lanes(p.ID)
	if lanes[len(lanes)-1].ID != extra.ID {
		t.Error("New lane should be appended at the end of the board")
	}

	n := s.CreateNote("")
	s.UpdateNote(n.ID, NotePatch{ProjectID: &p.ID, LaneID: &extra.ID})

	s.DeleteLane(extra.ID)
	got, _ := s.Note(n.ID)
	if got.LaneID != "" || got.ProjectID != p.ID {
		t.Errorf("Lane delete repair wrong: %+v", got)
	}

	s.UpdateNote(n.ID, NotePatch{LaneID: &lanes[0].ID})
	s.DeleteProject(p.ID)
	got, _ = s.Note(n.ID)
	if got.ProjectID != "" || got.LaneID != "" {
		t.Errorf("Project delete repair wrong: %+v", got)
	}
	if len(s.Lanes(p.ID)) != 0 {
		t.Error("Project lanes should be removed")
	}
}

func TestQueryFilters(t *testing.T) {
	s, _ := newTestStore()
	a := s.CreateNote("")
	s.UpdateNote(a.ID, NotePatch{Title: Ptr("Groceries"), Content: Ptr("milk and eggs"), Tags: []string{"home"}})
	b := s.CreateNote("")
	s.UpdateNote(b.ID, NotePatch{Title: Ptr("Secret"), Content: Ptr("lkn1$milk"), IsEncrypted: Ptr(true)})
	c := s.CreateNote("")
	s.UpdateNote(c.ID, NotePatch{Title: Ptr("Work log"), Tags: []string{"work", "home"}})

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all live", Filter{}, 3},
		{"content search", Filter{Query: "MILK"}, 1},
		{"title search", Filter{Query: "secret"}, 1},
		{"tag search", Filter{Query: "work"}, 1},
		{"by tag", Filter{Tag: "home"}, 2},
		{"nothing", Filter{Query: "zzz"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Notes(tt.filter); len(got) != tt.want {
				t.Errorf("got %d notes, want %d", len(got), tt.want)
			}
		})
	}

	if tags := s.Tags(); len(tags) != 2 || tags[0] != "home" || tags[1] != "work" {
		t.Errorf("Tags() = %v", tags)
	}
}

func TestSessionFlags(t *testing.T) {
	s, _ := newTestStore()
	if sess := s.Session(); sess.IsAuthenticated || sess.IsLocked || sess.HasPassword {
		t.Fatalf("Unexpected boot session: %+v", sess)
	}

	if !s.Authenticate("anything") {
		t.Fatal("Authenticate should succeed")
	}
	if sess := s.Session(); !sess.IsAuthenticated || sess.IsLocked {
		t.Errorf("After authenticate: %+v", sess)
	}

	s.Lock()
	if sess := s.Session(); sess.IsAuthenticated || !sess.IsLocked {
		t.Errorf("After lock: %+v", sess)
	}

	s.SetPassword("pw")
	if !s.Session().HasPassword {
		t.Error("SetPassword should record HasPassword")
	}

	s.SignOut()
	if sess := s.Session(); sess.IsAuthenticated || sess.IsLocked || !sess.HasPassword {
		t.Errorf("After sign out: %+v", sess)
	}
}

func TestSettingsPatch(t *testing.T) {
	s, _ := newTestStore()
	s.UpdateSettings(SettingsPatch{AutoLock: Ptr(true), FontSize: Ptr(400)})

	got := s.Settings()
	if !got.AutoLock || got.FontSize != 400 {
		t.Errorf("Patch not applied: %+v", got)
	}
	if got.Theme != DefaultSettings().Theme {
		t.Error("Untouched fields should keep their values")
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	s, _ := newTestStore()
	var kinds []ChangeKind
	cancel := s.Subscribe(func(c Change) { kinds = append(kinds, c.Kind) })

	n := s.CreateNote("")
	s.SetActiveNote(n.ID)
	s.UpdateSettings(SettingsPatch{Theme: Ptr("dark")})
	cancel()
	s.DeleteNote(n.ID)

	want := []ChangeKind{ChangeNotes, ChangeActivity, ChangeSettings}
	if len(kinds) != len(want) {
		t.Fatalf("Got changes %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("Change %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
}
