// Package auth is the account collaborator. Outcomes are reported as a
// Result with a user-facing message rather than as errors.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted account password.
const MinPasswordLength = 6

// Result is the outcome of an auth operation.
type Result struct {
	OK      bool
	Message string
}

func ok(msg string) Result   { return Result{OK: true, Message: msg} }
func fail(msg string) Result { return Result{Message: msg} }

// Provider signs users up, in and out.
type Provider interface {
	SignUp(ctx context.Context, email, password string) Result
	SignIn(ctx context.Context, email, password string) Result
	SignOut(ctx context.Context) Result
}

// AccountStore persists account records by key.
type AccountStore interface {
	PutAccount(key string, record []byte, create bool) error
	GetAccount(key string) ([]byte, error)
}

type account struct {
	Email   string    `json:"email"`
	Hash    string    `json:"hash"`
	Created time.Time `json:"created"`
}

// Local keeps bcrypt password hashes in an AccountStore.
type Local struct {
	store   AccountStore
	cost    int
	log     zerolog.Logger
	exists  error
	mu      sync.Mutex
	current string
}

// LocalOption configures Local.
type LocalOption func(*Local)

// WithCost sets the bcrypt cost.
func WithCost(cost int) LocalOption {
	return func(l *Local) { l.cost = cost }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) LocalOption {
	return func(l *Local) { l.log = log }
}

// WithExistsError names the error the store returns for a taken key.
func WithExistsError(err error) LocalOption {
	return func(l *Local) { l.exists = err }
}

// NewLocal creates a local provider.
func NewLocal(store AccountStore, opts ...LocalOption) *Local {
	l := &Local{store: store, cost: bcrypt.DefaultCost, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validate(email, password string) (string, bool) {
	at := strings.Index(email, "@")
	switch {
	case at <= 0 || at == len(email)-1:
		return "Please enter a valid email address", false
	case len(password) < MinPasswordLength:
		return "Password must be at least 6 characters", false
	}
	return "", true
}

// SignUp registers an account and signs it in.
func (l *Local) SignUp(ctx context.Context, email, password string) Result {
	if err := ctx.Err(); err != nil {
		return fail(err.Error())
	}
	email = normalizeEmail(email)
	if msg, valid := validate(email, password); !valid {
		return fail(msg)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		l.log.Error().Err(err).Msg("failed to hash account password")
		return fail("Could not create account")
	}
	record, err := json.Marshal(account{Email: email, Hash: string(hash), Created: time.Now().UTC()})
	if err != nil {
		return fail("Could not create account")
	}

	if err := l.store.PutAccount(email, record, true); err != nil {
		if l.exists != nil && errors.Is(err, l.exists) {
			return fail("An account with this email already exists")
		}
		l.log.Error().Err(err).Str("email", email).Msg("failed to store account")
		return fail("Could not create account")
	}

	l.setCurrent(email)
	l.log.Info().Str("email", email).Msg("account created")
	return ok("Account created")
}

// SignIn checks the credentials.
func (l *Local) SignIn(ctx context.Context, email, password string) Result {
	if err := ctx.Err(); err != nil {
		return fail(err.Error())
	}
	email = normalizeEmail(email)

	record, err := l.store.GetAccount(email)
	if err != nil {
		l.log.Error().Err(err).Msg("failed to read account")
		return fail("Could not sign in")
	}
	if record == nil {
		return fail("Invalid email or password")
	}

	var acc account
	if err := json.Unmarshal(record, &acc); err != nil {
		l.log.Error().Err(err).Str("email", email).Msg("corrupt account record")
		return fail("Could not sign in")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.Hash), []byte(password)); err != nil {
		return fail("Invalid email or password")
	}

	l.setCurrent(email)
	return ok("Signed in")
}

// SignOut forgets the signed-in account.
func (l *Local) SignOut(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return fail(err.Error())
	}
	l.setCurrent("")
	return ok("Signed out")
}

// Current returns the signed-in email, if any.
func (l *Local) Current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

func (l *Local) setCurrent(email string) {
	l.mu.Lock()
	l.current = email
	l.mu.Unlock()
}
