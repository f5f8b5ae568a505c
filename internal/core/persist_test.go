package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/illarion/locknote/internal/notes"
	"github.com/rs/zerolog"
)

type blockingSaver struct {
	mu      sync.Mutex
	saves   [][]byte
	entered chan struct{}
	release chan struct{}
	err     error
}

func (s *blockingSaver) SaveState(data []byte) error {
	s.mu.Lock()
	first := len(s.saves) == 0
	s.saves = append(s.saves, data)
	s.mu.Unlock()
	if first && s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	return s.err
}

func TestPersisterCoalesces(t *testing.T) {
	store := notes.New()
	saver := &blockingSaver{entered: make(chan struct{}), release: make(chan struct{})}
	p := NewPersister(store, saver, zerolog.Nop())

	n := store.CreateNote("")
	<-saver.entered

	for i := 0; i < 10; i++ {
		store.UpdateNote(n.ID, notes.NotePatch{Title: notes.Ptr("t")})
	}
	close(saver.release)

	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(saver.saves) != 2 {
		t.Fatalf("Expected 2 saves, got %d", len(saver.saves))
	}

	snap, err := notes.DecodeSnapshot(saver.saves[1])
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Notes) != 1 || snap.Notes[0].Title != "t" {
		t.Errorf("Last save should hold the latest state: %+v", snap.Notes)
	}

	// unsubscribed after Close
	store.CreateNote("")
	if err := p.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(saver.saves) != 2 {
		t.Errorf("Closed persister saved again: %d", len(saver.saves))
	}
}

func TestPersisterIgnoresActivity(t *testing.T) {
	store := notes.New()
	saver := &blockingSaver{}
	p := NewPersister(store, saver, zerolog.Nop())
	defer p.Close()

	store.Touch()
	store.SetActiveNote("")
	if err := p.Flush(); err != nil {
		t.Fatal(err)
	}
	if p.Saves() != 0 {
		t.Errorf("Activity must not be saved, got %d saves", p.Saves())
	}
}

func TestPersisterFailureIsReported(t *testing.T) {
	store := notes.New()
	saver := &blockingSaver{err: errors.New("disk full")}
	p := NewPersister(store, saver, zerolog.Nop())

	store.CreateNote("")
	if err := p.Close(); err == nil || err.Error() != "disk full" {
		t.Errorf("Expected save failure from Close, got %v", err)
	}
}
