package authkit

import (
	"context"
	"testing"
	"time"
)

func TestMemorySessionStorePutOverwrites(t *testing.T) {
	t.Parallel()

	clock := &controllableClock{current: time.Unix(1700000000, 0).UTC()}
	store := NewMemorySessionStore(clock)
	ctx := context.Background()

	if err := store.Put(ctx, "user-1", KindRefresh, "first", time.Hour); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	if err := store.Put(ctx, "user-1", KindRefresh, "second", time.Hour); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	token, found, getErr := store.Get(ctx, "user-1", KindRefresh)
	if getErr != nil || !found {
		t.Fatalf("expected stored token, found=%v err=%v", found, getErr)
	}
	if token != "second" {
		t.Fatalf("expected overwrite to win, got %q", token)
	}
}

func TestMemorySessionStoreKindsAreIndependent(t *testing.T) {
	t.Parallel()

	store := NewMemorySessionStore(NewSystemClock())
	ctx := context.Background()

	if err := store.Put(ctx, "user-1", KindAccess, "access-token", time.Hour); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	if _, found, _ := store.Get(ctx, "user-1", KindRefresh); found {
		t.Fatalf("expected refresh kind to be absent")
	}
	if err := store.Delete(ctx, "user-1", KindAccess); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if _, found, _ := store.Get(ctx, "user-1", KindAccess); found {
		t.Fatalf("expected access kind gone after delete")
	}
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	t.Parallel()

	clock := &controllableClock{current: time.Unix(1700000000, 0).UTC()}
	store := NewMemorySessionStore(clock)
	ctx := context.Background()

	if err := store.Put(ctx, "user-1", KindAccess, "token", time.Minute); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	clock.Advance(2 * time.Minute)
	if _, found, err := store.Get(ctx, "user-1", KindAccess); err != nil || found {
		t.Fatalf("expected expired key to read as absent, found=%v err=%v", found, err)
	}
}

func TestMemorySessionStoreDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewMemorySessionStore(NewSystemClock())
	if err := store.Delete(context.Background(), "missing", KindRefresh); err != nil {
		t.Fatalf("expected no error deleting absent key, got %v", err)
	}
}

func TestSessionKeyFormat(t *testing.T) {
	t.Parallel()

	if key := SessionKey(KindAccess, "u-1"); key != "access_token:u-1" {
		t.Fatalf("unexpected access key %q", key)
	}
	if key := SessionKey(KindRefresh, "u-1"); key != "refresh_token:u-1" {
		t.Fatalf("unexpected refresh key %q", key)
	}
}
