// Package core provides the locknote application facade.
//
// An App owns the note store, its bbolt persistence, the session lock
// controller and the optional collaborators (directory mirror, local
// accounts, OS keyring).
//
// Core operations include:
//   - Open/Init: load or create the database and restore the store
//   - EncryptNote/RemoveEncryption/ReadNote: per-note password encryption
//   - SetPassword/ChangePassword/VerifyPassword: the note password
//   - Lock/Unlock/Watch: the session and its auto-lock policy
//   - Pull/Push: hydrate from or write to the mirror directory
//   - Export/DiffNote: artifacts and content diffs for a single note
//
// Every store change is saved in the background by a Persister; Close
// waits for pending saves.
package core
