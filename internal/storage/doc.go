// Package storage provides the BBolt database interface for locknote.
//
// Database structure uses three buckets:
//   - config: format version, timestamps, vault id
//   - state: the note store's serializable projection, one JSON record
//   - accounts: local auth collaborator credentials (email -> record)
//
// The state record is rewritten whole on every save. Note content inside
// it is stored as the store holds it: encrypted notes are ciphertext.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
