package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"billed/internal/core"
)

const (
	// UserKey holds the serialized core.Session.
	UserKey = "user"
	// TokenKey holds the bearer token returned by the remote login.
	TokenKey = "jwt"
)

var ErrNoSession = errors.New("no session")

// Reader is the read-only view of the session handed to controllers other than login.
type Reader interface {
	Current() (core.Session, bool)
	Token() string
}

// Store is the session context object. It is created once per client, written
// by the login flow only, and replaced wholesale on each successful login.
type Store struct {
	storage Storage
	logger  *slog.Logger

	mu      sync.RWMutex
	current *core.Session
}

var _ Reader = (*Store)(nil)

// New loads a previously persisted session from storage, if any. A malformed
// record is logged and ignored rather than treated as a session.
func New(storage Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{storage: storage, logger: logger}

	raw, ok := storage.GetItem(UserKey)
	if !ok || raw == "" {
		return s
	}
	var sess core.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		logger.Warn("Ignoring malformed session record", "error", err)
		return s
	}
	if !sess.IsConnected() {
		logger.Warn("Ignoring session record that is not connected", "user_type", sess.Type, "status", sess.Status)
		return s
	}
	s.current = &sess
	return s
}

// Current returns a copy of the active session.
func (s *Store) Current() (core.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return core.Session{}, false
	}
	return *s.current, true
}

// Save persists sess under UserKey and makes it the active session.
// Nothing changes in memory when the write fails.
func (s *Store) Save(sess core.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.SetItem(UserKey, string(data)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.current = &sess
	return nil
}

// Token returns the persisted bearer token, or "" when none is stored.
func (s *Store) Token() string {
	tok, _ := s.storage.GetItem(TokenKey)
	return tok
}

func (s *Store) SaveToken(token string) error {
	if err := s.storage.SetItem(TokenKey, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

// Clear drops both the session record and the token.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	return errors.Join(s.storage.RemoveItem(UserKey), s.storage.RemoveItem(TokenKey))
}
