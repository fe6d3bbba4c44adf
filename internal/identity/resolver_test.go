package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/user/devsocial/internal/config"
	"github.com/user/devsocial/internal/store/storetest"
	"github.com/user/devsocial/internal/types"
)

func newResolver(t *testing.T, mode config.AuthMode) (*Resolver, *storetest.Fake, *MemorySessionStore) {
	t.Helper()
	fake := storetest.NewFake()
	sessions := NewMemorySessionStore()
	return NewResolver(fake, sessions, mode), fake, sessions
}

func TestSignupValidation(t *testing.T) {
	r, _, _ := newResolver(t, config.AuthModeBasic)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		bio      string
	}{
		{"short username", "ab", "secret1", ""},
		{"long username", strings.Repeat("a", 21), "secret1", ""},
		{"short password", "alice", "12345", ""},
		{"long bio", "alice", "secret1", strings.Repeat("x", 501)},
		{"long bio multibyte", "alice", "secret1", strings.Repeat("é", 501)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := r.Signup(ctx, tt.username, tt.password, tt.bio)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if types.KindOf(err) != types.KindValidation {
				t.Errorf("expected validation kind, got %s", types.KindOf(err))
			}
		})
	}
}

func TestSignupLimitsCountCharactersNotBytes(t *testing.T) {
	r, _, _ := newResolver(t, config.AuthModeBasic)
	ctx := context.Background()

	// 20 runes but 40 bytes; the username limit is 20 characters.
	username := strings.Repeat("å", 20)
	// 500 runes but 1000 bytes; the bio limit is 500 characters.
	bio := strings.Repeat("ß", 500)
	if _, _, err := r.Signup(ctx, username, "secret1", bio); err != nil {
		t.Fatalf("multibyte values within the character limits rejected: %v", err)
	}
}

func TestSignupConflict(t *testing.T) {
	r, _, _ := newResolver(t, config.AuthModeBasic)
	ctx := context.Background()

	if _, _, err := r.Signup(ctx, "alice", "secret1", ""); err != nil {
		t.Fatal(err)
	}
	_, _, err := r.Signup(ctx, "alice", "other77", "")
	if types.KindOf(err) != types.KindConflict {
		t.Fatalf("expected conflict on duplicate signup, got %v", err)
	}
	if !strings.Contains(err.Error(), "already taken") {
		t.Errorf("conflict message should say taken, got %q", err)
	}
}

func TestLoginDoesNotRevealWhichPartFailed(t *testing.T) {
	r, _, _ := newResolver(t, config.AuthModeBasic)
	ctx := context.Background()

	if _, _, err := r.Signup(ctx, "alice", "secret1", ""); err != nil {
		t.Fatal(err)
	}

	_, unknownErr := r.Login(ctx, "nobody99", "secret1")
	_, wrongErr := r.Login(ctx, "alice", "wrongpw")

	if unknownErr == nil || wrongErr == nil {
		t.Fatal("expected both logins to fail")
	}
	if types.Message(unknownErr) != types.Message(wrongErr) {
		t.Errorf("messages differ: %q vs %q", types.Message(unknownErr), types.Message(wrongErr))
	}
	if types.KindOf(unknownErr) != types.KindAuth {
		t.Errorf("expected auth kind, got %s", types.KindOf(unknownErr))
	}
}

func TestLoginMintsFreshToken(t *testing.T) {
	r, _, sessions := newResolver(t, config.AuthModeToken)
	ctx := context.Background()

	_, signupToken, err := r.Signup(ctx, "alice", "secret1", "")
	if err != nil {
		t.Fatal(err)
	}
	loginToken, err := r.Login(ctx, "alice", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if signupToken == loginToken {
		t.Error("login reused the signup token")
	}

	// Both tokens resolve to alice.
	for _, tok := range []string{signupToken, loginToken} {
		b, err := sessions.Lookup(ctx, tok)
		if err != nil || b == nil {
			t.Fatalf("token %q not bound", tok)
		}
		if b.Username != "alice" {
			t.Errorf("token bound to %q, want alice", b.Username)
		}
	}
}

func TestResolveTokenPath(t *testing.T) {
	r, _, _ := newResolver(t, config.AuthModeToken)
	ctx := context.Background()

	// Missing token.
	if _, err := r.Resolve(ctx, Credential{}); types.KindOf(err) != types.KindAuth {
		t.Errorf("missing token: expected auth error, got %v", err)
	}

	// Malformed token is a validation failure, not auth.
	if _, err := r.Resolve(ctx, Credential{Token: "not-a-token"}); types.KindOf(err) != types.KindValidation {
		t.Errorf("malformed token: expected validation error, got %v", err)
	}

	// Well-formed but unbound.
	if _, err := r.Resolve(ctx, Credential{Token: types.NewToken()}); types.KindOf(err) != types.KindAuth {
		t.Errorf("unbound token: expected auth error, got %v", err)
	}
}

func TestBindAnonymous(t *testing.T) {
	r, _, _ := newResolver(t, config.AuthModeToken)
	ctx := context.Background()

	token := types.NewToken()
	user, err := r.BindAnonymous(ctx, token, "drifter", "just passing through")
	if err != nil {
		t.Fatal(err)
	}
	if user.Username != "drifter" {
		t.Errorf("unexpected username %q", user.Username)
	}

	ident, err := r.Resolve(ctx, Credential{Token: token})
	if err != nil {
		t.Fatal(err)
	}
	if ident.Username != "drifter" || !ident.Anonymous {
		t.Errorf("unexpected identity %+v", ident)
	}
}

func TestBindAnonymousRejectsBadToken(t *testing.T) {
	r, _, _ := newResolver(t, config.AuthModeToken)

	_, err := r.BindAnonymous(context.Background(), "short", "drifter", "")
	if types.KindOf(err) != types.KindValidation {
		t.Fatalf("expected validation error for malformed token, got %v", err)
	}
}

func TestRebindOverwrites(t *testing.T) {
	r, _, _ := newResolver(t, config.AuthModeToken)
	ctx := context.Background()

	token := types.NewToken()
	if _, err := r.BindAnonymous(ctx, token, "first11", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := r.BindAnonymous(ctx, token, "second22", ""); err != nil {
		t.Fatal(err)
	}

	ident, err := r.Resolve(ctx, Credential{Token: token})
	if err != nil {
		t.Fatal(err)
	}
	if ident.Username != "second22" {
		t.Errorf("token resolves to %q, want second22 after rebind", ident.Username)
	}
}

func TestResolveBasic(t *testing.T) {
	r, _, _ := newResolver(t, config.AuthModeBasic)
	ctx := context.Background()

	if _, _, err := r.Signup(ctx, "alice", "secret1", ""); err != nil {
		t.Fatal(err)
	}

	ident, err := r.Resolve(ctx, Credential{Username: "alice", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	if ident.Username != "alice" || ident.Anonymous {
		t.Errorf("unexpected identity %+v", ident)
	}

	if _, err := r.Resolve(ctx, Credential{}); types.KindOf(err) != types.KindAuth {
		t.Errorf("missing header: expected auth error, got %v", err)
	}
}
