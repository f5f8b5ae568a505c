package core

import (
	"sync"

	"github.com/illarion/locknote/internal/notes"
	"github.com/rs/zerolog"
)

// StateSaver stores the serialized projection.
type StateSaver interface {
	SaveState(data []byte) error
}

// Persister writes the store projection after every persistent change.
// Changes that arrive while a save is running collapse into one more
// save, so at most one save is pending at any time.
type Persister struct {
	store *notes.Store
	saver StateSaver
	log   zerolog.Logger

	mu      sync.Mutex
	pending bool
	running bool
	saves   int
	lastErr error
	wg      sync.WaitGroup
	cancel  func()
}

// NewPersister subscribes to store and saves through saver.
func NewPersister(store *notes.Store, saver StateSaver, log zerolog.Logger) *Persister {
	p := &Persister{store: store, saver: saver, log: log}
	p.cancel = store.Subscribe(p.notify)
	return p
}

func (p *Persister) notify(c notes.Change) {
	if !c.Persistent() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = true
	if p.running {
		return
	}
	p.running = true
	p.wg.Add(1)
	go p.loop()
}

func (p *Persister) loop() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		if !p.pending {
			p.running = false
			p.mu.Unlock()
			return
		}
		p.pending = false
		p.mu.Unlock()

		err := p.save()

		p.mu.Lock()
		p.saves++
		p.lastErr = err
		p.mu.Unlock()
	}
}

func (p *Persister) save() error {
	data, err := p.store.Snapshot().Encode()
	if err != nil {
		p.log.Error().Err(err).Msg("failed to encode state")
		return err
	}
	if err := p.saver.SaveState(data); err != nil {
		p.log.Error().Err(err).Msg("failed to save state")
		return err
	}
	p.log.Debug().Int("bytes", len(data)).Msg("state saved")
	return nil
}

// Flush waits for running saves and returns the result of the last one.
func (p *Persister) Flush() error {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Saves returns how many saves have completed.
func (p *Persister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

// Close stops listening and flushes.
func (p *Persister) Close() error {
	p.cancel()
	return p.Flush()
}
