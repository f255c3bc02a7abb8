// Package memory is a process-local Remote Bill Store, used for demos and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"billed/internal/auth"
	"billed/internal/core"
	"billed/internal/store"
)

type user struct {
	userType     core.UserType
	passwordHash string
}

type Store struct {
	mu       sync.Mutex
	bills    []core.Bill
	receipts map[string][]byte
	users    map[string]user
	issuer   *auth.Issuer
}

var (
	_ store.Bills         = (*Store)(nil)
	_ store.Authenticator = (*Store)(nil)
)

func New(issuer *auth.Issuer, bills ...core.Bill) *Store {
	return &Store{
		bills:    append([]core.Bill(nil), bills...),
		receipts: make(map[string][]byte),
		users:    make(map[string]user),
		issuer:   issuer,
	}
}

// NewFromFile seeds the store with the JSON array of bills at path.
// A missing file falls back to the built-in fixtures.
func NewFromFile(path string, issuer *auth.Issuer) (*Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(issuer, Fixtures()...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var bills []core.Bill
	if err := json.Unmarshal(data, &bills); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return New(issuer, bills...), nil
}

// AddUser registers credentials accepted by Login.
func (s *Store) AddUser(_ context.Context, email string, userType core.UserType, password string) error {
	if !userType.IsValid() {
		return core.ErrInvalidUserType
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(email)] = user{userType: userType, passwordHash: hash}
	return nil
}

// Login checks the credentials and the requested role.
func (s *Store) Login(_ context.Context, c store.Credentials) (string, error) {
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(c.Email)]
	s.mu.Unlock()
	if !ok || !auth.CheckPassword(u.passwordHash, c.Password) {
		return "", &store.Error{Kind: store.KindUnauthorized, Op: "login", Message: "Erreur 401", Err: store.ErrInvalidCredentials}
	}
	if c.Type != "" && c.Type != u.userType {
		return "", &store.Error{Kind: store.KindUnauthorized, Op: "login", Message: "Erreur 403", Err: store.ErrInvalidCredentials}
	}
	if s.issuer == nil {
		return "", nil
	}
	return s.issuer.Issue(c.Email, u.userType)
}

// List returns a copy of every stored bill.
func (s *Store) List(_ context.Context) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Bill(nil), s.bills...), nil
}

// Create stores the receipt and a pending bill referencing it.
func (s *Store) Create(_ context.Context, u store.Upload) (store.Receipt, error) {
	if u.FileName == "" {
		return store.Receipt{}, &store.Error{Kind: store.KindUnknown, Op: "create", Message: "Erreur 400"}
	}
	key := uuid.NewString()
	rec := store.Receipt{
		FileURL:  "memory://receipts/" + key + "/" + url.PathEscape(u.FileName),
		FileName: u.FileName,
		Key:      key,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[key] = append([]byte(nil), u.Content...)
	s.bills = append(s.bills, core.Bill{
		ID:       key,
		Email:    u.Email,
		FileURL:  rec.FileURL,
		FileName: rec.FileName,
		Status:   core.StatusPending,
	})
	return rec, nil
}

// Update overwrites the bill's employee-supplied fields. Receipt references,
// owner and id stay as stored unless the update carries a full receipt pair.
func (s *Store) Update(_ context.Context, id string, b core.Bill) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bills {
		if s.bills[i].ID != id {
			continue
		}
		merged := mergeBill(s.bills[i], b)
		s.bills[i] = merged
		return merged, nil
	}
	return core.Bill{}, &store.Error{Kind: store.KindNotFound, Op: "update", Message: "Erreur 404", Err: store.ErrNotFound}
}

// Get returns the bill with the given id.
func (s *Store) Get(_ context.Context, id string) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bills {
		if b.ID == id {
			return b, nil
		}
	}
	return core.Bill{}, store.ErrNotFound
}

// Receipt returns the uploaded content stored under key.
func (s *Store) Receipt(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.receipts[key]
	return data, ok
}

func mergeBill(stored, b core.Bill) core.Bill {
	b.ID = stored.ID
	if b.Email == "" {
		b.Email = stored.Email
	}
	if !b.HasReceipt() {
		b.FileURL, b.FileName = stored.FileURL, stored.FileName
	}
	if b.Status == "" {
		b.Status = stored.Status
	}
	return b
}
