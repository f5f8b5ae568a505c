package core

import (
	"errors"

	"github.com/illarion/locknote/internal/storage"
)

var (
	ErrNotInitialized     = errors.New("locknote not initialized")
	ErrAlreadyExists      = errors.New("locknote already exists")
	ErrWrongPassword      = errors.New("wrong password")
	ErrPasswordRequired   = errors.New("password required")
	ErrNoteNotFound       = errors.New("note not found")
	ErrAlreadyEncrypted   = errors.New("note is already encrypted")
	ErrNotEncrypted       = errors.New("note is not encrypted")
	ErrNoPassword         = errors.New("no note password set")
	ErrPasswordAlreadySet = errors.New("note password already set")
	ErrLocked             = errors.New("notes are locked")
	ErrNoMirror           = errors.New("no mirror directory configured")
	ErrBusy               = storage.ErrBusy
)
