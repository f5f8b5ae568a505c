package storage

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket   = []byte("config")   // version, timestamps, vault id - unencrypted
	StateBucket    = []byte("state")    // serialized store projection
	AccountsBucket = []byte("accounts") // local auth records
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
	ConfigVaultID  = []byte("vault_id")
	ConfigPwCheck  = []byte("password_check")
)

// StateKey is the key of the single state record.
var StateKey = []byte("snapshot")

const formatVersion = "1"

var (
	ErrNotInitialized = errors.New("database not initialized")
	ErrAccountExists  = errors.New("account already exists")
	ErrBusy           = errors.New("database is in use by another process")
)

// Storage provides BBolt-based storage for locknote
type Storage struct {
	db *bolt.DB
}

// Open opens or creates a locknote database, creating its directory.
func Open(path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if errors.Is(err, bolt.ErrTimeout) {
		return nil, fmt.Errorf("failed to open database: %w", ErrBusy)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Initialize creates the bucket structure. It is idempotent: an existing
// database keeps its creation time and data.
func (s *Storage) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, StateBucket, AccountsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}
		if err := config.Put(ConfigVersion, []byte(formatVersion)); err != nil {
			return err
		}

		created, _ := time.Now().MarshalBinary()
		if err := config.Put(ConfigCreated, created); err != nil {
			return err
		}
		return config.Put(ConfigModified, created)
	})
}

// IsInitialized checks if the database has been initialized
func (s *Storage) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config != nil && config.Get(ConfigVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// SaveState replaces the state record and bumps the modified time in the
// same transaction.
func (s *Storage) SaveState(data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		state := tx.Bucket(StateBucket)
		config := tx.Bucket(ConfigBucket)
		if state == nil || config == nil {
			return ErrNotInitialized
		}
		if err := state.Put(StateKey, data); err != nil {
			return fmt.Errorf("failed to store state: %w", err)
		}
		modified, _ := time.Now().MarshalBinary()
		return config.Put(ConfigModified, modified)
	})
}

// SaveStateWithCheck replaces the state record and the password verifier
// in one transaction, so neither can be committed without the other. An
// empty check removes the verifier.
func (s *Storage) SaveStateWithCheck(data []byte, check string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		state := tx.Bucket(StateBucket)
		config := tx.Bucket(ConfigBucket)
		if state == nil || config == nil {
			return ErrNotInitialized
		}
		if err := state.Put(StateKey, data); err != nil {
			return fmt.Errorf("failed to store state: %w", err)
		}
		var err error
		if check == "" {
			err = config.Delete(ConfigPwCheck)
		} else {
			err = config.Put(ConfigPwCheck, []byte(check))
		}
		if err != nil {
			return fmt.Errorf("failed to store password check: %w", err)
		}
		modified, _ := time.Now().MarshalBinary()
		return config.Put(ConfigModified, modified)
	})
}

// LoadState returns the state record, or nil if none was saved yet.
func (s *Storage) LoadState() ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		state := tx.Bucket(StateBucket)
		if state == nil {
			return ErrNotInitialized
		}
		if v := state.Get(StateKey); v != nil {
			// Make a copy since the slice is only valid during the transaction
			data = append([]byte(nil), v...)
		}
		return nil
	})
	return data, err
}

// GetVaultID retrieves the vault ID from config bucket
func (s *Storage) GetVaultID() (string, error) {
	var vaultID string
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(ConfigVaultID)
		if data == nil {
			return fmt.Errorf("vault_id not found")
		}
		vaultID = string(data)
		return nil
	})
	return vaultID, err
}

// GetOrCreateVaultID retrieves existing vault ID or generates a new one
func (s *Storage) GetOrCreateVaultID() (string, error) {
	vaultID, err := s.GetVaultID()
	if err == nil {
		return vaultID, nil
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate vault ID: %w", err)
	}
	vaultID = hex.EncodeToString(b)

	err = s.db.Update(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		return config.Put(ConfigVaultID, []byte(vaultID))
	})
	if err != nil {
		return "", err
	}

	return vaultID, nil
}

// GetPasswordCheck returns the password verifier, or "" if none is set.
func (s *Storage) GetPasswordCheck() (string, error) {
	var blob string
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		blob = string(config.Get(ConfigPwCheck))
		return nil
	})
	return blob, err
}

// PutAccount stores an account record. With create set it fails with
// ErrAccountExists when the key is taken.
func (s *Storage) PutAccount(key string, record []byte, create bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		accounts := tx.Bucket(AccountsBucket)
		if accounts == nil {
			return ErrNotInitialized
		}
		if create && accounts.Get([]byte(key)) != nil {
			return ErrAccountExists
		}
		return accounts.Put([]byte(key), record)
	})
}

// GetAccount returns an account record, or nil if absent.
func (s *Storage) GetAccount(key string) ([]byte, error) {
	var record []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		accounts := tx.Bucket(AccountsBucket)
		if accounts == nil {
			return ErrNotInitialized
		}
		if v := accounts.Get([]byte(key)); v != nil {
			record = append([]byte(nil), v...)
		}
		return nil
	})
	return record, err
}

// Info summarizes the database.
func (s *Storage) Info() (Info, error) {
	info := Info{Path: s.db.Path()}
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		info.Version = string(config.Get(ConfigVersion))
		info.VaultID = string(config.Get(ConfigVaultID))
		if v := config.Get(ConfigCreated); v != nil {
			if err := info.Created.UnmarshalBinary(v); err != nil {
				return err
			}
		}
		if v := config.Get(ConfigModified); v != nil {
			if err := info.Modified.UnmarshalBinary(v); err != nil {
				return err
			}
		}
		if state := tx.Bucket(StateBucket); state != nil {
			info.StateSize = len(state.Get(StateKey))
		}
		if accounts := tx.Bucket(AccountsBucket); accounts != nil {
			info.Accounts = accounts.Stats().KeyN
		}
		return nil
	})
	return info, err
}

// Compact creates a compacted copy of the database, removing unused space.
// Repeated state rewrites leave free pages behind; this reclaims them.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	err = s.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	s.db, err = bolt.Open(srcPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return nil
}
