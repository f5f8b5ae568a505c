package core

import (
	"context"
	"fmt"

	"github.com/illarion/locknote/internal/auth"
)

// PullResult counts what a pull brought in.
type PullResult struct {
	Notes    int
	Folders  int
	Projects int
	Lanes    int
	Settings bool
}

// Pull hydrates the store from the mirror. Notes merge last-write-wins;
// collections present in the mirror replace the local ones.
func (a *App) Pull(ctx context.Context) (*PullResult, error) {
	if a.mirror == nil {
		return nil, ErrNoMirror
	}

	loaded, err := a.mirror.LoadNotes(ctx)
	if err != nil {
		return nil, err
	}
	folders, err := a.mirror.LoadFolders(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := a.mirror.LoadProjects(ctx)
	if err != nil {
		return nil, err
	}
	lanes, err := a.mirror.LoadLanes(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := a.mirror.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}

	res := &PullResult{Notes: len(loaded)}
	a.store.LoadNotes(loaded)
	if folders != nil {
		a.store.LoadFolders(folders)
		res.Folders = len(folders)
	}
	if projects != nil {
		a.store.LoadProjects(projects)
		res.Projects = len(projects)
	}
	if lanes != nil {
		a.store.LoadLanes(lanes)
		res.Lanes = len(lanes)
	}
	if settings != nil {
		a.store.LoadSettings(*settings)
		res.Settings = true
	}

	a.log.Info().Int("notes", res.Notes).Str("dir", a.mirror.Path()).Msg("pulled from mirror")
	return res, nil
}

// Push writes the current state to the mirror.
func (a *App) Push(ctx context.Context) error {
	if a.mirror == nil {
		return ErrNoMirror
	}
	if err := a.mirror.Push(ctx, a.store.Snapshot()); err != nil {
		return fmt.Errorf("failed to push to mirror: %w", err)
	}
	return nil
}

// SignUp creates a local account and opens the session.
func (a *App) SignUp(ctx context.Context, email, password string) auth.Result {
	res := a.accounts.SignUp(ctx, email, password)
	if res.OK {
		a.session.Unlock()
	}
	return res
}

// SignIn checks the account, hydrates from the mirror when one is
// configured, and opens the session. On failure the session is unchanged.
func (a *App) SignIn(ctx context.Context, email, password string) auth.Result {
	res := a.accounts.SignIn(ctx, email, password)
	if !res.OK {
		return res
	}
	if a.mirror != nil {
		if _, err := a.Pull(ctx); err != nil {
			a.log.Warn().Err(err).Msg("pull after sign in failed")
		}
	}
	a.session.Unlock()
	return res
}

// SignOut ends the account session.
func (a *App) SignOut(ctx context.Context) auth.Result {
	res := a.accounts.SignOut(ctx)
	if res.OK {
		a.store.SignOut()
	}
	return res
}
