package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/illarion/locknote/internal/auth"
	"github.com/illarion/locknote/internal/crypto"
	"github.com/illarion/locknote/internal/mirror"
	"github.com/illarion/locknote/internal/notes"
	"github.com/illarion/locknote/internal/session"
	"github.com/illarion/locknote/internal/storage"
	"github.com/rs/zerolog"
)

const (
	DirPermSecure  = 0700 // Directory: owner rwx only
	FilePermSecure = 0600 // File: owner rw only
)

// Options configures an App.
type Options struct {
	DBPath        string
	MirrorDir     string // empty disables Pull and Push
	CheckInterval time.Duration
	Logger        zerolog.Logger
	Clock         func() time.Time
	KDFIterations int // 0 means crypto.DefaultIters
	AuthCost      int // bcrypt cost for local accounts, 0 means default
}

func (o Options) iterations() int {
	if o.KDFIterations > 0 {
		return o.KDFIterations
	}
	return crypto.DefaultIters
}

// App is an open locknote database.
type App struct {
	opts      Options
	log       zerolog.Logger
	db        *storage.Storage
	store     *notes.Store
	persister *Persister
	session   *session.Controller
	mirror    *mirror.Dir
	accounts  *auth.Local
}

// Init creates a new database at opts.DBPath and opens it.
func Init(opts Options) (*App, error) {
	if _, err := os.Stat(opts.DBPath); err == nil {
		return nil, ErrAlreadyExists
	}

	db, err := storage.Open(opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if _, err := db.GetOrCreateVaultID(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create vault id: %w", err)
	}
	data, err := notes.DefaultSnapshot().Encode()
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := db.SaveState(data); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to write initial state: %w", err)
	}
	db.Close()

	opts.Logger.Info().Str("path", opts.DBPath).Msg("database created")
	return Open(opts)
}

// Open opens an existing database and restores the store from it.
func Open(opts Options) (*App, error) {
	if _, err := os.Stat(opts.DBPath); err != nil {
		return nil, ErrNotInitialized
	}

	db, err := storage.Open(opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	initialized, err := db.IsInitialized()
	if err != nil || !initialized {
		db.Close()
		return nil, ErrNotInitialized
	}

	data, err := db.LoadState()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	snap, err := notes.DecodeSnapshot(data)
	if err != nil {
		db.Close()
		return nil, err
	}

	storeOpts := []notes.Option{notes.WithLogger(opts.Logger)}
	sessionOpts := []session.Option{session.WithLogger(opts.Logger)}
	if opts.Clock != nil {
		storeOpts = append(storeOpts, notes.WithClock(opts.Clock))
		sessionOpts = append(sessionOpts, session.WithClock(opts.Clock))
	}
	if opts.CheckInterval > 0 {
		sessionOpts = append(sessionOpts, session.WithInterval(opts.CheckInterval))
	}

	store := notes.New(storeOpts...)
	store.Restore(snap)

	authOpts := []auth.LocalOption{auth.WithLogger(opts.Logger), auth.WithExistsError(storage.ErrAccountExists)}
	if opts.AuthCost > 0 {
		authOpts = append(authOpts, auth.WithCost(opts.AuthCost))
	}

	app := &App{
		opts:      opts,
		log:       opts.Logger,
		db:        db,
		store:     store,
		persister: NewPersister(store, db, opts.Logger),
		session:   session.New(store, sessionOpts...),
		accounts:  auth.NewLocal(db, authOpts...),
	}

	if opts.MirrorDir != "" {
		m, err := mirror.Open(opts.MirrorDir, opts.Logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.mirror = m
	}

	app.log.Debug().Int("notes", len(snap.Notes)).Msg("database opened")
	return app, nil
}

// Close flushes pending saves and releases the database.
func (a *App) Close() error {
	var errs []error
	if err := a.persister.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to save state: %w", err))
	}
	if a.mirror != nil {
		if err := a.mirror.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Store returns the note store.
func (a *App) Store() *notes.Store {
	return a.store
}

// Session returns the lock controller.
func (a *App) Session() *session.Controller {
	return a.session
}

// Flush waits for pending background saves.
func (a *App) Flush() error {
	return a.persister.Flush()
}

// RequireUnlocked fails with ErrLocked while the session is locked.
func (a *App) RequireUnlocked() error {
	if a.store.Session().IsLocked {
		return ErrLocked
	}
	return nil
}

// Lock locks the session.
func (a *App) Lock() {
	a.session.Lock()
}

// Unlock opens the session. When a note password is set it must match.
func (a *App) Unlock(password string) error {
	if a.store.Session().HasPassword {
		if err := a.VerifyPassword(password); err != nil {
			return err
		}
	}
	a.session.Unlock()
	return nil
}

// Watch applies the auto-lock policy until ctx is done or the session
// locks. Every value received from activity counts as user activity; a
// nil or closed channel means none arrives. onLock runs when it
// auto-locks.
func (a *App) Watch(ctx context.Context, activity <-chan struct{}, onLock func()) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-activity:
				if !ok {
					activity = nil
					continue
				}
				a.session.RecordActivity()
			}
		}
	}()

	done := a.store.Subscribe(func(c notes.Change) {
		if c.Kind == notes.ChangeSession && a.store.Session().IsLocked {
			if onLock != nil {
				onLock()
			}
			cancel()
		}
	})
	defer done()

	err := a.session.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Compact flushes and compacts the database file.
func (a *App) Compact() error {
	if err := a.persister.Flush(); err != nil {
		return err
	}
	return a.db.Compact()
}

// VaultID returns the database's keyring id.
func (a *App) VaultID() (string, error) {
	return a.db.GetOrCreateVaultID()
}

// StatusInfo summarizes the database and its contents.
type StatusInfo struct {
	Storage     storage.Info
	State       session.State
	HasPassword bool
	Notes       int
	Deleted     int
	Encrypted   int
	Favorites   int
	Folders     int
	Projects    int
	Tags        int
	MirrorDir   string
	AutoLock    bool
	LockAfter   time.Duration
}

// Status reports counts and flags without needing a password.
func (a *App) Status() (*StatusInfo, error) {
	if err := a.persister.Flush(); err != nil {
		a.log.Warn().Err(err).Msg("status: last save failed")
	}
	info, err := a.db.Info()
	if err != nil {
		return nil, err
	}

	sess := a.store.Session()
	settings := a.store.Settings()
	st := &StatusInfo{
		Storage:     info,
		State:       session.StateOf(sess),
		HasPassword: sess.HasPassword,
		Folders:     len(a.store.Folders()),
		Projects:    len(a.store.Projects()),
		Tags:        len(a.store.Tags()),
		AutoLock:    settings.AutoLock,
		LockAfter:   settings.AutoLockAfter(),
	}
	if a.mirror != nil {
		st.MirrorDir = a.mirror.Path()
	}
	for _, n := range a.store.Notes(notes.Filter{}) {
		st.Notes++
		if n.IsEncrypted {
			st.Encrypted++
		}
		if n.IsFavorite {
			st.Favorites++
		}
	}
	st.Deleted = len(a.store.Notes(notes.Filter{Deleted: true}))
	return st, nil
}
