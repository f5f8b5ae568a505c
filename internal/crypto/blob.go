package crypto

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	blobPrefix = "lkn1"
	blobSep    = "$"
	blobParts  = 4
)

var b64 = base64.RawStdEncoding

var (
	logMu  sync.RWMutex
	logger = zerolog.Nop()
)

// SetLogger routes decrypt/encrypt failure logs to l.
func SetLogger(l zerolog.Logger) {
	logMu.Lock()
	logger = l
	logMu.Unlock()
}

func blobLogger() *zerolog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	l := logger
	return &l
}

// Encrypt seals plaintext under password and returns a self-describing blob.
// Unlike a silent fallback, a failure is always reported as an error and the
// returned string is empty.
func Encrypt(plaintext, password string) (string, error) {
	return EncryptWithIterations(plaintext, password, DefaultIters)
}

// EncryptWithIterations is Encrypt with an explicit PBKDF2 cost.
func EncryptWithIterations(plaintext, password string, iterations int) (string, error) {
	kdf, err := NewKDFWithIterations(iterations)
	if err != nil {
		blobLogger().Error().Err(err).Msg("encrypt: key derivation setup failed")
		return "", err
	}

	pw := []byte(password)
	key := kdf.DeriveKey(pw)
	ClearBytes(pw)

	enc := NewEncryptor(key)
	defer enc.Destroy()

	pt := []byte(plaintext)
	sealed, err := enc.Encrypt(pt)
	ClearBytes(pt)
	if err != nil {
		blobLogger().Error().Err(err).Msg("encrypt failed")
		return "", err
	}

	return strings.Join([]string{
		blobPrefix,
		strconv.Itoa(kdf.Iterations),
		b64.EncodeToString(kdf.Salt),
		b64.EncodeToString(sealed),
	}, blobSep), nil
}

// Decrypt opens a blob produced by Encrypt. Any failure (wrong password,
// corrupted or foreign blob) yields an empty string; partial plaintext is
// never returned.
func Decrypt(blob, password string) string {
	plaintext, err := DecryptText(blob, password)
	if err != nil {
		blobLogger().Warn().Err(err).Msg("decrypt failed")
		return ""
	}
	return plaintext
}

// DecryptText is Decrypt with the failure reason.
func DecryptText(blob, password string) (string, error) {
	kdf, sealed, err := parseBlob(blob)
	if err != nil {
		return "", err
	}

	pw := []byte(password)
	key := kdf.DeriveKey(pw)
	ClearBytes(pw)

	enc := NewEncryptor(key)
	defer enc.Destroy()

	plaintext, err := enc.Decrypt(sealed)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// IsBlob reports whether s looks like a blob produced by Encrypt.
func IsBlob(s string) bool {
	_, _, err := parseBlob(s)
	return err == nil
}

func parseBlob(blob string) (*KDF, []byte, error) {
	parts := strings.Split(blob, blobSep)
	if len(parts) != blobParts || parts[0] != blobPrefix {
		return nil, nil, ErrUnsupportedBlob
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations < 1 || iterations > MaxIters {
		return nil, nil, fmt.Errorf("%w: bad iteration count", ErrInvalidCiphertext)
	}

	salt, err := b64.DecodeString(parts[2])
	if err != nil || len(salt) != SaltSize {
		return nil, nil, fmt.Errorf("%w: bad salt", ErrInvalidCiphertext)
	}

	sealed, err := b64.DecodeString(parts[3])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad payload", ErrInvalidCiphertext)
	}
	if len(sealed) < NonceSize+TagSize {
		return nil, nil, ErrInvalidCiphertext
	}

	return &KDF{Salt: salt, Iterations: iterations}, sealed, nil
}
