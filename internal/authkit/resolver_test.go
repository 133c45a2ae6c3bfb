package authkit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHeaderAssertionResolver(t *testing.T) {
	t.Parallel()

	resolver := &HeaderAssertionResolver{}
	ctx := context.Background()

	cases := []struct {
		name   string
		header string
		wantID string
	}{
		{name: "missing header", header: ""},
		{name: "malformed json", header: "{not json"},
		{name: "unauthenticated caller", header: `{"user":{"user_id":"u-1","email":"a@x.com","is_authenticated":false}}`},
		{name: "missing user id", header: `{"user":{"email":"a@x.com","is_authenticated":true}}`},
		{name: "authenticated caller", header: `{"user":{"user_id":"u-1","email":"a@x.com","is_authenticated":true}}`, wantID: "u-1"},
	}
	for _, testCase := range cases {
		identity, err := resolver.Resolve(ctx, AssertionInput{AssertionHeader: testCase.header})
		if testCase.wantID == "" {
			if !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("%s: expected ErrUnauthenticated, got %v", testCase.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", testCase.name, err)
		}
		if identity.UserID != testCase.wantID || identity.Email != "a@x.com" {
			t.Fatalf("%s: unexpected identity %+v", testCase.name, identity)
		}
	}
}

func TestBearerRefreshResolverRejectsAccessToken(t *testing.T) {
	t.Parallel()

	clock := fixedClock{timestamp: time.Unix(1700000000, 0).UTC()}
	codec := NewTokenCodec(newTestServerConfig(), clock)
	sessions := NewMemorySessionStore(clock)
	resolver := &BearerRefreshResolver{codec: codec, sessions: sessions}

	accessToken, _, mintErr := codec.CreateAccessToken("u-1", "a@x.com")
	if mintErr != nil {
		t.Fatalf("unexpected mint error: %v", mintErr)
	}
	if _, err := resolver.Resolve(context.Background(), AssertionInput{RefreshToken: accessToken}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected access token to be rejected, got %v", err)
	}
}

func TestBearerRefreshResolverCrossChecksStore(t *testing.T) {
	t.Parallel()

	clock := fixedClock{timestamp: time.Unix(1700000000, 0).UTC()}
	codec := NewTokenCodec(newTestServerConfig(), clock)
	sessions := NewMemorySessionStore(clock)
	resolver := &BearerRefreshResolver{codec: codec, sessions: sessions}
	ctx := context.Background()

	refreshToken, _, mintErr := codec.CreateRefreshToken("u-1", "a@x.com")
	if mintErr != nil {
		t.Fatalf("unexpected mint error: %v", mintErr)
	}

	// Cryptographically valid but no stored session.
	if _, err := resolver.Resolve(ctx, AssertionInput{RefreshToken: refreshToken}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected rejection without stored session, got %v", err)
	}

	if err := sessions.Put(ctx, "u-1", KindRefresh, refreshToken, time.Hour); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	identity, resolveErr := resolver.Resolve(ctx, AssertionInput{RefreshToken: refreshToken})
	if resolveErr != nil {
		t.Fatalf("unexpected resolve error: %v", resolveErr)
	}
	if identity.UserID != "u-1" || identity.Email != "a@x.com" {
		t.Fatalf("unexpected identity %+v", identity)
	}

	// A superseding token in the store makes the presented one stale.
	superseding, _, supersedeErr := codec.CreateRefreshToken("u-1", "a@x.com")
	if supersedeErr != nil {
		t.Fatalf("unexpected mint error: %v", supersedeErr)
	}
	if err := sessions.Put(ctx, "u-1", KindRefresh, superseding, time.Hour); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	if _, err := resolver.Resolve(ctx, AssertionInput{RefreshToken: refreshToken}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected superseded token to be rejected, got %v", err)
	}
}

func TestBearerRefreshResolverRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	clock := fixedClock{timestamp: time.Unix(1700000000, 0).UTC()}
	codec := NewTokenCodec(newTestServerConfig(), clock)
	resolver := &BearerRefreshResolver{codec: codec, sessions: NewMemorySessionStore(clock)}

	if _, err := resolver.Resolve(context.Background(), AssertionInput{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty input, got %v", err)
	}
}

func TestNewIdentityResolverModeSelection(t *testing.T) {
	t.Parallel()

	clock := fixedClock{timestamp: time.Unix(1700000000, 0).UTC()}
	codec := NewTokenCodec(newTestServerConfig(), clock)
	sessions := NewMemorySessionStore(clock)

	if _, err := NewIdentityResolver(IdentityModeHeader, nil, nil); err != nil {
		t.Fatalf("header mode needs no collaborators: %v", err)
	}
	if _, err := NewIdentityResolver(IdentityModeBearer, codec, sessions); err != nil {
		t.Fatalf("unexpected bearer construction error: %v", err)
	}
	if _, err := NewIdentityResolver(IdentityModeBearer, nil, nil); err == nil {
		t.Fatalf("expected error for bearer mode without collaborators")
	}
	if _, err := NewIdentityResolver("carrier-pigeon", codec, sessions); err == nil {
		t.Fatalf("expected error for unsupported mode")
	}
}
