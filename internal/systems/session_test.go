package systems

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/haryoiro/vidstream/internal/database"
	"github.com/haryoiro/vidstream/internal/structures"
)

func TestSignInStoresAndPersists(t *testing.T) {
	db := openTestDB(t)
	gw := &stubGateway{auth: ann()}
	store := NewSessionStore(gw, db)

	identity, err := store.SignIn(context.Background(), structures.Credentials{Email: "ann@x.com", Password: "p"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if identity.Name != "Ann" || !store.Authenticated() || store.Token() != "tok" {
		t.Fatalf("unexpected state %+v token=%q", identity, store.Token())
	}
	if store.IsLoading() {
		t.Fatal("loading flag should be cleared")
	}

	raw, err := db.Get(SessionKey)
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	var p persistedSession
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(err)
	}
	if p.Token != "tok" || p.Identity == nil || p.Identity.ID != "u1" {
		t.Fatalf("unexpected persisted session %s", raw)
	}
}

func TestSignInFailureIsAuthError(t *testing.T) {
	db := openTestDB(t)
	gw := &stubGateway{authErr: errServer}
	store := NewSessionStore(gw, db)

	_, err := store.SignIn(context.Background(), structures.Credentials{Email: "ann@x.com", Password: "bad"})
	if !errors.Is(err, structures.ErrAuth) || !errors.Is(err, errServer) {
		t.Fatalf("expected ErrAuth wrapping the cause, got %v", err)
	}
	if msg := structures.UserMessage(err); msg != "Invalid credentials" {
		t.Fatalf("unexpected user message %q", msg)
	}
	if store.Authenticated() || store.IsLoading() {
		t.Fatal("failed sign in must leave the store empty and idle")
	}
	if _, err := db.Get(SessionKey); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("nothing should be persisted, got %v", err)
	}
}

func TestSignUpWithoutTokenIsRejected(t *testing.T) {
	result := ann()
	result.Token = ""
	store := NewSessionStore(&stubGateway{auth: result}, openTestDB(t))

	if _, err := store.SignUp(context.Background(), structures.Profile{Name: "Ann"}); !errors.Is(err, structures.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if store.Authenticated() {
		t.Fatal("identity stored without token")
	}
}

func TestLogoutClearsMemoryAndStorage(t *testing.T) {
	db := openTestDB(t)
	store := NewSessionStore(&stubGateway{auth: ann()}, db)
	if _, err := store.SignIn(context.Background(), structures.Credentials{}); err != nil {
		t.Fatal(err)
	}

	if err := store.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := store.Identity(); ok || store.Token() != "" {
		t.Fatal("identity or token survived logout")
	}
	if _, err := db.Get(SessionKey); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("storage still holds the session: %v", err)
	}

	if err := store.Logout(); err != nil {
		t.Fatalf("second logout should be a no-op: %v", err)
	}
}

func TestUpdateNameChangesOnlyName(t *testing.T) {
	db := openTestDB(t)
	gw := &stubGateway{
		auth:    ann(),
		renamed: structures.Identity{ID: "u1", Name: "Annie", Email: "server@changed.com"},
	}
	store := NewSessionStore(gw, db)
	if _, err := store.SignIn(context.Background(), structures.Credentials{}); err != nil {
		t.Fatal(err)
	}

	identity, err := store.UpdateName(context.Background(), "Annie")
	if err != nil {
		t.Fatalf("update name: %v", err)
	}
	if identity.Name != "Annie" || identity.Email != "ann@x.com" || len(identity.OwnedVideoIDs) != 1 {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if gw.lastToken != "tok" {
		t.Fatalf("rename sent token %q", gw.lastToken)
	}

	raw, _ := db.Get(SessionKey)
	var p persistedSession
	json.Unmarshal([]byte(raw), &p)
	if p.Identity == nil || p.Identity.Name != "Annie" {
		t.Fatalf("rename not persisted: %s", raw)
	}
}

func TestUpdateNameFailureLeavesIdentity(t *testing.T) {
	gw := &stubGateway{auth: ann(), renameErr: errServer}
	store := NewSessionStore(gw, openTestDB(t))
	if _, err := store.SignIn(context.Background(), structures.Credentials{}); err != nil {
		t.Fatal(err)
	}

	_, err := store.UpdateName(context.Background(), "Annie")
	if !errors.Is(err, structures.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if msg := structures.UserMessage(err); msg != "Could not update name" {
		t.Fatalf("unexpected user message %q", msg)
	}
	identity, _ := store.Identity()
	if identity.Name != "Ann" {
		t.Fatalf("name changed on failure: %+v", identity)
	}
}

func TestLogoutDuringRenameLeavesStorageEmpty(t *testing.T) {
	db := &hookDB{DB: openTestDB(t)}
	gw := &stubGateway{auth: ann(), renamed: structures.Identity{ID: "u1", Name: "Annie"}}
	store := NewSessionStore(gw, db)
	if _, err := store.SignIn(context.Background(), structures.Credentials{}); err != nil {
		t.Fatal(err)
	}

	db.mu.Lock()
	db.beforePut = func() {
		if err := store.Logout(); err != nil {
			t.Errorf("logout: %v", err)
		}
	}
	db.mu.Unlock()

	_, err := store.UpdateName(context.Background(), "Annie")
	if !errors.Is(err, structures.ErrNotAuthenticated) {
		t.Fatalf("rename across a logout should fail, got %v", err)
	}
	if store.Authenticated() {
		t.Fatal("logout undone by the rename")
	}
	if raw, err := db.Get(SessionKey); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("token written back after logout: %q, %v", raw, err)
	}
}

func TestLogoutDuringSignInLeavesStorageEmpty(t *testing.T) {
	db := &hookDB{DB: openTestDB(t)}
	store := NewSessionStore(&stubGateway{auth: ann()}, db)
	db.beforePut = func() {
		if err := store.Logout(); err != nil {
			t.Errorf("logout: %v", err)
		}
	}

	if _, err := store.SignIn(context.Background(), structures.Credentials{}); !errors.Is(err, structures.ErrNotAuthenticated) {
		t.Fatalf("sign in ended by logout should fail, got %v", err)
	}
	if store.Authenticated() {
		t.Fatal("logout undone by the sign in")
	}
	if _, err := db.Get(SessionKey); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected no stored session, got %v", err)
	}

	// A later sign in persists normally
	if _, err := store.SignIn(context.Background(), structures.Credentials{}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Get(SessionKey); err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
}

func TestUpdateNameRequiresSession(t *testing.T) {
	gw := &stubGateway{}
	store := NewSessionStore(gw, openTestDB(t))

	_, err := store.UpdateName(context.Background(), "Annie")
	if !errors.Is(err, structures.ErrAuth) || !errors.Is(err, structures.ErrNotAuthenticated) {
		t.Fatalf("expected ErrAuth and ErrNotAuthenticated, got %v", err)
	}
	if gw.callCount() != 0 {
		t.Fatalf("no request should be issued, got %v", gw.calls)
	}
}

func TestRestore(t *testing.T) {
	db := openTestDB(t)
	first := NewSessionStore(&stubGateway{auth: ann()}, db)
	if _, err := first.SignIn(context.Background(), structures.Credentials{}); err != nil {
		t.Fatal(err)
	}

	second := NewSessionStore(&stubGateway{}, db)
	if err := second.Restore(); err != nil {
		t.Fatalf("restore: %v", err)
	}
	identity, ok := second.Identity()
	if !ok || identity.Name != "Ann" || second.Token() != "tok" {
		t.Fatalf("unexpected restored session %+v %q", identity, second.Token())
	}
}

func TestRestoreWithoutRecord(t *testing.T) {
	store := NewSessionStore(&stubGateway{}, openTestDB(t))
	if err := store.Restore(); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if store.Authenticated() {
		t.Fatal("expected empty session")
	}
}

func TestRestoreDiscardsCorruptRecord(t *testing.T) {
	tests := map[string]string{
		"not json":      "{oops",
		"missing token": `{"identity":{"id":"u1"}}`,
		"missing user":  `{"token":"tok"}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			db := openTestDB(t)
			if err := db.Put(SessionKey, raw); err != nil {
				t.Fatal(err)
			}

			store := NewSessionStore(&stubGateway{}, db)
			if err := store.Restore(); err == nil {
				t.Fatal("expected an error for a corrupt record")
			}
			if store.Authenticated() {
				t.Fatal("corrupt record must not authenticate")
			}
			if _, err := db.Get(SessionKey); !errors.Is(err, database.ErrNotFound) {
				t.Fatalf("corrupt record should be removed, got %v", err)
			}
		})
	}
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	result := ann()
	result.Token = signed
	store := NewSessionStore(&stubGateway{auth: result}, openTestDB(t))

	if _, ok := store.TokenExpiry(); ok {
		t.Fatal("no expiry without a session")
	}
	if _, err := store.SignIn(context.Background(), structures.Credentials{}); err != nil {
		t.Fatal(err)
	}

	got, ok := store.TokenExpiry()
	if !ok || !got.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v (%v)", exp, got, ok)
	}
}

func TestTokenExpiryOpaqueToken(t *testing.T) {
	store := NewSessionStore(&stubGateway{auth: ann()}, openTestDB(t))
	if _, err := store.SignIn(context.Background(), structures.Credentials{}); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.TokenExpiry(); ok {
		t.Fatal("an opaque token has no expiry")
	}
}

func TestSessionLoadingFlagDuringCall(t *testing.T) {
	gw := &stubGateway{auth: ann(), block: make(chan struct{})}
	store := NewSessionStore(gw, openTestDB(t))
	changes, cancel := store.Subscribe()
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := store.SignIn(context.Background(), structures.Credentials{})
		done <- err
	}()

	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("no notification when the call started")
	}
	if !store.IsLoading() {
		t.Fatal("expected loading while the call is in flight")
	}

	close(gw.block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if store.IsLoading() {
		t.Fatal("loading flag should be cleared")
	}
	if snap := store.Session(); snap.IsLoading || snap.Identity == nil || snap.Token != "tok" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
