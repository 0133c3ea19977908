package systems

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/haryoiro/vidstream/internal/database"
	"github.com/haryoiro/vidstream/internal/logger"
	"github.com/haryoiro/vidstream/internal/structures"
)

// SessionKey is the storage key of the persisted session
const SessionKey = "auth-storage"

type persistedSession struct {
	Identity *structures.Identity `json:"identity"`
	Token    string               `json:"token"`
}

// SessionStore holds the signed-in identity and its token
type SessionStore struct {
	notifier

	gateway Gateway
	db      database.DB

	mu       sync.RWMutex
	identity *structures.Identity
	token    string
	inflight int
}

// NewSessionStore creates an empty session store
func NewSessionStore(gateway Gateway, db database.DB) *SessionStore {
	return &SessionStore{gateway: gateway, db: db}
}

// Restore loads the persisted session. A missing record leaves the store
// empty; a corrupt one is removed.
func (s *SessionStore) Restore() error {
	raw, err := s.db.Get(SessionKey)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	var p persistedSession
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.Identity == nil || p.Token == "" {
		if delErr := s.db.Delete(SessionKey); delErr != nil {
			logger.Warn("Failed to remove corrupt session: %v", delErr)
		}
		if err == nil {
			err = errors.New("incomplete record")
		}
		return fmt.Errorf("discarded persisted session: %w", err)
	}

	s.mu.Lock()
	s.identity = p.Identity
	s.token = p.Token
	s.mu.Unlock()

	logger.Info("Restored session for %s", p.Identity.Email)
	s.notify()
	return nil
}

// Session returns a snapshot of the current state
func (s *SessionStore) Session() structures.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := structures.Session{Token: s.token, IsLoading: s.inflight > 0}
	if s.identity != nil {
		id := s.identity.Clone()
		out.Identity = &id
	}
	return out
}

// Identity returns the signed-in identity
func (s *SessionStore) Identity() (structures.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.identity == nil {
		return structures.Identity{}, false
	}
	return s.identity.Clone(), true
}

// Token returns the bearer token, empty when signed out
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether both an identity and a token are present
func (s *SessionStore) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil && s.token != ""
}

// IsLoading reports whether a session call is in flight
func (s *SessionStore) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// TokenExpiry reads the exp claim of a JWT token without verifying it. It is
// informational only.
func (s *SessionStore) TokenExpiry() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// SignIn authenticates and stores the confirmed identity and token
func (s *SessionStore) SignIn(ctx context.Context, creds structures.Credentials) (structures.Identity, error) {
	s.begin()
	defer s.end()

	result, err := s.gateway.SignIn(ctx, creds)
	if err != nil {
		logger.Warn("Sign in failed: %v", err)
		return structures.Identity{}, structures.Wrap(structures.ErrAuth, "signIn", err)
	}
	return s.establish(result)
}

// SignUp creates an account and stores the confirmed identity and token
func (s *SessionStore) SignUp(ctx context.Context, profile structures.Profile) (structures.Identity, error) {
	s.begin()
	defer s.end()

	result, err := s.gateway.SignUp(ctx, profile)
	if err != nil {
		logger.Warn("Sign up failed: %v", err)
		return structures.Identity{}, structures.Wrap(structures.ErrAuth, "signUp", err)
	}
	return s.establish(result)
}

func (s *SessionStore) establish(result structures.AuthResult) (structures.Identity, error) {
	if result.Token == "" || result.Identity.ID == "" {
		return structures.Identity{}, structures.Wrap(structures.ErrAuth, "establishSession", errors.New("response without token or identity"))
	}

	identity := result.Identity.Clone()

	s.mu.Lock()
	s.identity = &identity
	s.token = result.Token
	s.mu.Unlock()

	if !s.persist(identity, result.Token) {
		return structures.Identity{}, structures.Wrap(structures.ErrAuth, "establishSession", structures.ErrNotAuthenticated)
	}
	logger.Info("Signed in as %s", identity.Email)
	s.notify()
	return identity.Clone(), nil
}

// Logout clears the session from memory and storage. It is safe to call
// when already signed out.
func (s *SessionStore) Logout() error {
	s.mu.Lock()
	wasSignedIn := s.identity != nil || s.token != ""
	s.identity = nil
	s.token = ""
	s.mu.Unlock()

	if err := s.db.Delete(SessionKey); err != nil {
		return fmt.Errorf("remove persisted session: %w", err)
	}

	if wasSignedIn {
		logger.Info("Signed out")
		s.notify()
	}
	return nil
}

// UpdateName renames the signed-in account. Only the name changes locally,
// and only after the server confirms.
func (s *SessionStore) UpdateName(ctx context.Context, name string) (structures.Identity, error) {
	token := s.Token()
	if token == "" {
		return structures.Identity{}, structures.Wrap(structures.ErrAuth, "updateName", structures.ErrNotAuthenticated)
	}

	s.begin()
	defer s.end()

	confirmed, err := s.gateway.UpdateName(ctx, token, name)
	if err != nil {
		logger.Warn("Rename failed: %v", err)
		return structures.Identity{}, structures.Wrap(structures.ErrAuth, "updateName", err)
	}

	s.mu.Lock()
	if s.identity == nil || s.token != token {
		s.mu.Unlock()
		return structures.Identity{}, structures.Wrap(structures.ErrAuth, "updateName", structures.ErrNotAuthenticated)
	}
	s.identity.Name = confirmed.Name
	identity := s.identity.Clone()
	s.mu.Unlock()

	if !s.persist(identity, token) {
		return structures.Identity{}, structures.Wrap(structures.ErrAuth, "updateName", structures.ErrNotAuthenticated)
	}
	s.notify()
	return identity, nil
}

// persist writes the session record for token. It reports false when the
// session was ended or replaced around the write; storage then mirrors
// whatever the store holds now. A storage failure is only logged, the
// in-memory session stays valid for this run.
func (s *SessionStore) persist(identity structures.Identity, token string) bool {
	if s.Token() != token {
		return false
	}

	data, err := json.Marshal(persistedSession{Identity: &identity, Token: token})
	if err != nil {
		logger.Error("Failed to encode session: %v", err)
		return true
	}
	if err := s.db.Put(SessionKey, string(data)); err != nil {
		logger.Error("Failed to persist session: %v", err)
	}

	// A logout that cleared memory before our Put must not be undone by it
	if s.Token() == token {
		return true
	}
	s.resync()
	return false
}

// resync rewrites the stored record from the in-memory session
func (s *SessionStore) resync() {
	s.mu.RLock()
	var current *persistedSession
	if s.identity != nil && s.token != "" {
		id := s.identity.Clone()
		current = &persistedSession{Identity: &id, Token: s.token}
	}
	s.mu.RUnlock()

	if current == nil {
		if err := s.db.Delete(SessionKey); err != nil {
			logger.Error("Failed to remove session: %v", err)
		}
		return
	}

	data, err := json.Marshal(current)
	if err != nil {
		logger.Error("Failed to encode session: %v", err)
		return
	}
	if err := s.db.Put(SessionKey, string(data)); err != nil {
		logger.Error("Failed to persist session: %v", err)
	}
}

func (s *SessionStore) begin() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
	s.notify()
}

func (s *SessionStore) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
	s.notify()
}
