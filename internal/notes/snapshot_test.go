package notes

import (
	"slices"
	"testing"
	"time"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s, _ := newTestStore()
	f := s.CreateFolder("work", "")
	n := s.CreateNote(f.ID)
	s.UpdateNote(n.ID, NotePatch{Content: Ptr("hello"), Tags: []string{"t"}})
	s.CreateProject("p")
	s.UpdateSettings(SettingsPatch{AutoLock: Ptr(true)})
	s.SetPassword("pw")
	s.Authenticate("")
	s.Lock()

	data, err := s.Snapshot().Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot failed: %v", err)
	}

	restored, _ := newTestStore()
	restored.Restore(snap)

	got, ok := restored.Note(n.ID)
	if !ok || got.Content != "hello" || got.FolderID != f.ID || !got.HasTag("t") {
		t.Errorf("Restored note mismatch: %+v", got)
	}
	if len(restored.Projects()) != 1 || len(restored.Lanes(restored.Projects()[0].ID)) != len(DefaultLanes) {
		t.Error("Projects and lanes should survive")
	}
	if !restored.Settings().AutoLock {
		t.Error("Settings should survive")
	}

	sess := restored.Session()
	if !sess.HasPassword || !sess.IsLocked {
		t.Errorf("Persisted session flags lost: %+v", sess)
	}
	if sess.IsAuthenticated {
		t.Error("IsAuthenticated must not survive a restart")
	}
	if restored.ActiveNoteID() != "" {
		t.Error("Active note must not survive a restart")
	}
}

func TestDecodeSnapshotPartialRecords(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		check func(t *testing.T, snap Snapshot)
	}{
		{
			name: "empty input",
			data: "",
			check: func(t *testing.T, snap Snapshot) {
				if snap.Settings != DefaultSettings() || len(snap.Notes) != 0 {
					t.Errorf("Expected defaults, got %+v", snap)
				}
			},
		},
		{
			name: "settings subset",
			data: `{"settings":{"theme":"dark"}}`,
			check: func(t *testing.T, snap Snapshot) {
				want := DefaultSettings()
				want.Theme = "dark"
				if snap.Settings != want {
					t.Errorf("Settings: got %+v, want %+v", snap.Settings, want)
				}
			},
		},
		{
			name: "note with missing fields",
			data: `{"notes":[{"id":"n1","title":"x","updatedAt":"2024-01-01T00:00:00Z"},{"title":"no id"}]}`,
			check: func(t *testing.T, snap Snapshot) {
				if len(snap.Notes) != 1 {
					t.Fatalf("Expected 1 addressable note, got %d", len(snap.Notes))
				}
				n := snap.Notes[0]
				if n.Language != DefaultLanguage || n.Tags == nil {
					t.Errorf("Defaults not applied: %+v", n)
				}
				if !n.CreatedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
					t.Errorf("CreatedAt should fall back to UpdatedAt, got %v", n.CreatedAt)
				}
			},
		},
		{
			name: "null collections and unknown fields",
			data: `{"folders":null,"lanes":null,"future":{"x":1},"session":{"isLocked":true}}`,
			check: func(t *testing.T, snap Snapshot) {
				if snap.Folders == nil || snap.Lanes == nil {
					t.Error("Collections should never decode to nil")
				}
				if !snap.Session.IsLocked || snap.Session.HasPassword {
					t.Errorf("Session: %+v", snap.Session)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := DecodeSnapshot([]byte(tt.data))
			if err != nil {
				t.Fatalf("DecodeSnapshot failed: %v", err)
			}
			tt.check(t, snap)
		})
	}
}

func TestDecodeSnapshotCorrupt(t *testing.T) {
	snap, err := DecodeSnapshot([]byte("{not json"))
	if err == nil {
		t.Fatal("Expected error for corrupt record")
	}
	if snap.Settings != DefaultSettings() {
		t.Error("Corrupt record should still yield defaults")
	}
}

func TestLoadNotesLastWriteWins(t *testing.T) {
	s, clock := newTestStore()
	n := s.CreateNote("")
	s.UpdateNote(n.ID, NotePatch{Content: Ptr("local")})
	local, _ := s.Note(n.ID)

	stale := local
	stale.Content = "stale remote"
	stale.UpdatedAt = local.UpdatedAt.Add(-time.Minute)

	fresh := Note{ID: "remote-only", Title: "r", UpdatedAt: clock.t}

	s.LoadNotes([]Note{stale, fresh})
	if got, _ := s.Note(n.ID); got.Content != "local" {
		t.Errorf("Older remote copy overwrote local: %q", got.Content)
	}
	if _, ok := s.Note("remote-only"); !ok {
		t.Error("Unknown remote note should be added")
	}

	newer := local
	newer.Content = "newer remote"
	newer.UpdatedAt = local.UpdatedAt.Add(time.Minute)
	s.LoadNotes([]Note{newer})
	if got, _ := s.Note(n.ID); got.Content != "newer remote" {
		t.Errorf("Newer remote copy ignored: %q", got.Content)
	}
}

func TestLoadCollectionsRepairReferences(t *testing.T) {
	s, clock := newTestStore()
	s.LoadFolders([]Folder{{ID: "f1"}, {ID: "f2", ParentID: "f1"}})
	s.LoadProjects([]Project{{ID: "p1"}})
	s.LoadLanes([]Lane{{ID: "l1", ProjectID: "p1"}, {ID: "l2", ProjectID: "p1"}})
	s.LoadNotes([]Note{
		{ID: "a", FolderID: "f1", ProjectID: "p1", LaneID: "l1", UpdatedAt: clock.t},
		{ID: "b", FolderID: "f2", ProjectID: "p1", LaneID: "l2", UpdatedAt: clock.t},
	})

	var changed []string
	cancel := s.Subscribe(func(c Change) {
		if c.Kind == ChangeNotes {
			changed = append(changed, c.ID)
		}
	})
	defer cancel()

	s.LoadFolders([]Folder{{ID: "f2", ParentID: "f1"}})
	if got := s.Folders()[0].ParentID; got != "" {
		t.Errorf("Dangling parent kept: %q", got)
	}
	if a, _ := s.Note("a"); a.FolderID != "" {
		t.Errorf("Note a still in removed folder %q", a.FolderID)
	}
	if b, _ := s.Note("b"); b.FolderID != "f2" {
		t.Errorf("Note b lost its folder: %q", b.FolderID)
	}

	s.LoadLanes([]Lane{{ID: "l1", ProjectID: "p1"}})
	if b, _ := s.Note("b"); b.ProjectID != "p1" || b.LaneID != "" {
		t.Errorf("Note b after lane removal: project %q lane %q", b.ProjectID, b.LaneID)
	}

	s.LoadProjects(nil)
	if a, _ := s.Note("a"); a.ProjectID != "" || a.LaneID != "" {
		t.Errorf("Note a still on removed board: project %q lane %q", a.ProjectID, a.LaneID)
	}
	if len(s.Lanes("p1")) != 0 {
		t.Error("Lanes of a removed project should be dropped")
	}

	if want := []string{"a", "b", "a", "b"}; !slices.Equal(changed, want) {
		t.Errorf("Repaired notes reported as %v, want %v", changed, want)
	}
}
