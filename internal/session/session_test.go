package session

import (
	"testing"
)

// newTestStore creates an in-memory SQLite store.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	return store
}

func TestStore_SetGet(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set("token", "tok-abc"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := store.Get("token")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "tok-abc" {
		t.Errorf("Get() = %q, want tok-abc", got)
	}
}

func TestStore_GetMissingKey(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get("nope")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "" {
		t.Errorf("Get() = %q, want empty for missing key", got)
	}
}

func TestStore_SetOverwrites(t *testing.T) {
	store := newTestStore(t)

	store.Set("balance", "100")
	store.Set("balance", "250")

	got, _ := store.Get("balance")
	if got != "250" {
		t.Errorf("Get() = %q, want 250", got)
	}
}

func TestSession_LoginLogoutLifecycle(t *testing.T) {
	store := newTestStore(t)

	sess, err := Load(store)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sess.Authenticated() {
		t.Error("fresh store must yield unauthenticated session")
	}

	if err := sess.Begin("tok-abc", "crio", 500000); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if !sess.Authenticated() || sess.Username() != "crio" || sess.Balance() != 500000 {
		t.Errorf("session = %q/%q/%d after login", sess.Token(), sess.Username(), sess.Balance())
	}

	// A reload sees the persisted state.
	reloaded, err := Load(store)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reloaded.Token() != "tok-abc" || reloaded.Balance() != 500000 {
		t.Errorf("reloaded = %q/%d, want persisted values", reloaded.Token(), reloaded.Balance())
	}

	// Logout clears everything in bulk.
	if err := sess.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	cleared, _ := Load(store)
	if cleared.Authenticated() || cleared.Username() != "" || cleared.Balance() != 0 {
		t.Errorf("after logout: %q/%q/%d, want all cleared",
			cleared.Token(), cleared.Username(), cleared.Balance())
	}
}

func TestSession_SetBalancePersists(t *testing.T) {
	store := newTestStore(t)
	sess, _ := Load(store)
	sess.Begin("tok", "u", 20000)

	if err := sess.SetBalance(15000); err != nil {
		t.Fatalf("SetBalance() error = %v", err)
	}

	reloaded, _ := Load(store)
	if reloaded.Balance() != 15000 {
		t.Errorf("Balance = %d, want 15000 persisted", reloaded.Balance())
	}
}
