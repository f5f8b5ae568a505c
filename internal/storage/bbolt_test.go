package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) (*Storage, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "notes.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		t.Fatalf("Failed to initialize: %v", err)
	}
	return db, dbPath
}

func TestOpenAndInitialize(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Close()

	initialized, err := db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if !initialized {
		t.Error("Database should be initialized")
	}

	created, err := db.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}

	// Initialize again keeps the original creation time
	if err := db.Initialize(); err != nil {
		t.Fatalf("Second initialize failed: %v", err)
	}
	again, err := db.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if !again.Created.Equal(created.Created) {
		t.Errorf("Created changed on re-initialize: %v -> %v", created.Created, again.Created)
	}
	if again.Version != "1" {
		t.Errorf("Version: got %q, want 1", again.Version)
	}
}

func TestStateRecord(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Close()

	data, err := db.LoadState()
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if data != nil {
		t.Errorf("Expected no state before first save, got %q", data)
	}

	before, err := db.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}

	if err := db.SaveState([]byte(`{"version":1}`)); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}
	if err := db.SaveState([]byte(`{"version":2}`)); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	data, err = db.LoadState()
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if string(data) != `{"version":2}` {
		t.Errorf("State mismatch: got %s", data)
	}

	after, err := db.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if after.Modified.Before(before.Modified) {
		t.Errorf("Modified time went backwards: %v -> %v", before.Modified, after.Modified)
	}
}

func TestStateRequiresInitialize(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "raw.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.SaveState([]byte("x")); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SaveState on raw db: got %v, want ErrNotInitialized", err)
	}
	if _, err := db.LoadState(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("LoadState on raw db: got %v, want ErrNotInitialized", err)
	}
}

func TestVaultID(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Close()

	if _, err := db.GetVaultID(); err == nil {
		t.Error("Expected error before vault id exists")
	}

	id, err := db.GetOrCreateVaultID()
	if err != nil {
		t.Fatalf("GetOrCreateVaultID failed: %v", err)
	}
	if len(id) != 32 {
		t.Errorf("Unexpected vault id %q", id)
	}

	again, err := db.GetOrCreateVaultID()
	if err != nil {
		t.Fatalf("GetOrCreateVaultID failed: %v", err)
	}
	if again != id {
		t.Errorf("Vault id changed: %s -> %s", id, again)
	}
}

func TestPasswordCheck(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Close()

	if blob, err := db.GetPasswordCheck(); err != nil || blob != "" {
		t.Errorf("Expected empty verifier, got %q, %v", blob, err)
	}
	if err := db.SaveStateWithCheck([]byte("{}"), "lkn1$1$a$b"); err != nil {
		t.Fatalf("SaveStateWithCheck failed: %v", err)
	}
	if blob, _ := db.GetPasswordCheck(); blob != "lkn1$1$a$b" {
		t.Errorf("Verifier mismatch: %q", blob)
	}
	if err := db.SaveStateWithCheck([]byte("{}"), ""); err != nil {
		t.Fatalf("Clearing verifier failed: %v", err)
	}
	if blob, _ := db.GetPasswordCheck(); blob != "" {
		t.Errorf("Verifier should be cleared, got %q", blob)
	}
}

func TestSaveStateWithCheck(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Close()

	if err := db.SaveStateWithCheck([]byte(`{"v":1}`), "lkn1$1$new$check"); err != nil {
		t.Fatalf("SaveStateWithCheck failed: %v", err)
	}
	data, err := db.LoadState()
	if err != nil || string(data) != `{"v":1}` {
		t.Errorf("State mismatch: %q, %v", data, err)
	}
	if blob, _ := db.GetPasswordCheck(); blob != "lkn1$1$new$check" {
		t.Errorf("Verifier mismatch: %q", blob)
	}

	raw, err := Open(filepath.Join(t.TempDir(), "raw.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer raw.Close()
	if err := raw.SaveStateWithCheck([]byte("x"), "c"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}

func TestOpenBusy(t *testing.T) {
	db, dbPath := openTestDB(t)
	defer db.Close()

	// a second handle waits for the exclusive file lock, then gives up
	if _, err := Open(dbPath); !errors.Is(err, ErrBusy) {
		t.Errorf("Second open: got %v, want ErrBusy", err)
	}
}

func TestAccounts(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Close()

	if err := db.PutAccount("a@example.com", []byte("rec1"), true); err != nil {
		t.Fatalf("PutAccount failed: %v", err)
	}
	if err := db.PutAccount("a@example.com", []byte("rec2"), true); !errors.Is(err, ErrAccountExists) {
		t.Errorf("Expected ErrAccountExists, got %v", err)
	}
	if err := db.PutAccount("a@example.com", []byte("rec3"), false); err != nil {
		t.Fatalf("PutAccount overwrite failed: %v", err)
	}

	rec, err := db.GetAccount("a@example.com")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if string(rec) != "rec3" {
		t.Errorf("Record mismatch: got %s", rec)
	}

	missing, err := db.GetAccount("nobody")
	if err != nil || missing != nil {
		t.Errorf("Missing account: got %q, %v", missing, err)
	}

	info, err := db.Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Accounts != 1 {
		t.Errorf("Accounts: got %d, want 1", info.Accounts)
	}
}

func TestPersistenceAndCompact(t *testing.T) {
	db, dbPath := openTestDB(t)

	for i := 0; i < 20; i++ {
		if err := db.SaveState([]byte(`{"notes":[]}`)); err != nil {
			t.Fatalf("SaveState failed: %v", err)
		}
	}
	if err := db.Compact(); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}
	if info, err := db.Info(); err != nil || info.Path != dbPath {
		t.Errorf("Path changed after compact: %s, %v", info.Path, err)
	}
	db.Close()

	db2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db2.Close()

	data, err := db2.LoadState()
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if string(data) != `{"notes":[]}` {
		t.Error("State not persisted correctly")
	}
}
