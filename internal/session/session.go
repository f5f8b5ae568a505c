// Package session drives the activity lock of the note store.
//
// The controller samples the store's last-activity time on a fixed
// interval and locks the session when the configured auto-lock timeout has
// passed. Locking is a presentation gate: note data stays loaded and
// addressable; confidentiality of sensitive notes comes from encryption.
package session

import (
	"context"
	"time"

	"github.com/illarion/locknote/internal/notes"
	"github.com/rs/zerolog"
)

// DefaultInterval is how often Run checks for inactivity.
const DefaultInterval = 10 * time.Second

// State is the controller state derived from the session flags.
type State int

const (
	Unauthenticated State = iota
	Unlocked
	Locked
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Unlocked:
		return "unlocked"
	case Locked:
		return "locked"
	default:
		return "unknown"
	}
}

// StateOf derives the state from session flags.
func StateOf(sess notes.Session) State {
	switch {
	case sess.IsLocked:
		return Locked
	case sess.IsAuthenticated:
		return Unlocked
	default:
		return Unauthenticated
	}
}

// Store is the part of the note store the controller needs.
type Store interface {
	Session() notes.Session
	Settings() notes.Settings
	Touch()
	Lock()
	Authenticate(password string) bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithInterval sets the check interval.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) { c.interval = d }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// Controller applies the auto-lock policy to a store.
type Controller struct {
	store    Store
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// New creates a controller for store.
func New(store Store, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		interval: DefaultInterval,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return StateOf(c.store.Session())
}

// RecordActivity advances the activity clock without changing lock state.
func (c *Controller) RecordActivity() {
	c.store.Touch()
}

// Lock forces the locked state regardless of timeout.
func (c *Controller) Lock() {
	c.store.Lock()
	c.log.Info().Msg("session locked")
}

// Unlock returns to the unlocked state. Credentials are checked by the
// auth collaborator before this is called.
func (c *Controller) Unlock() {
	c.store.Authenticate("")
	c.log.Info().Msg("session unlocked")
}

// Check locks the session if auto-lock is enabled, the session is
// unlocked and it has been idle longer than the timeout. It reports
// whether it locked.
func (c *Controller) Check() bool {
	settings := c.store.Settings()
	if !settings.AutoLock || settings.AutoLockTimeout <= 0 {
		return false
	}
	sess := c.store.Session()
	if StateOf(sess) != Unlocked {
		return false
	}
	idle := c.now().Sub(sess.LastActivity)
	if idle <= settings.AutoLockAfter() {
		return false
	}

	c.store.Lock()
	c.log.Info().Dur("idle", idle).Msg("session auto-locked")
	return true
}

// Run checks for inactivity every interval until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Check()
		}
	}
}
