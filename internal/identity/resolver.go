// Package identity reconciles the two identity models, password-credentialed
// accounts and session-bound anonymous profiles, into one resolution step.
// Downstream code only ever sees a resolved username.
package identity

import (
	"context"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/user/devsocial/internal/config"
	"github.com/user/devsocial/internal/types"
)

const (
	minUsername = 3
	maxUsername = 20
	minPassword = 6

	bcryptCost = 10
)

// authFailed is the single message for every credential failure. It must not
// distinguish an unknown user from a wrong password.
const authFailed = "invalid username or password"

// Credential is the transport-extracted header material for one call.
// Exactly one of the pair (Username, Password) or Token is populated,
// depending on the deployed auth mode.
type Credential struct {
	Username string
	Password string
	Token    string
}

// Identity is a resolved caller. Anonymous marks identities produced by the
// legacy token-binding path; nothing downstream may branch on it for
// authorization; a resolved username is a resolved username.
type Identity struct {
	Username  string
	Anonymous bool
}

// Resolver turns transport credentials into resolved usernames.
type Resolver struct {
	store    types.Store
	sessions types.SessionStore
	mode     config.AuthMode
}

// NewResolver creates a Resolver for the deployed auth mode.
func NewResolver(store types.Store, sessions types.SessionStore, mode config.AuthMode) *Resolver {
	return &Resolver{store: store, sessions: sessions, mode: mode}
}

// Resolve authenticates cred and returns the caller's identity.
func (r *Resolver) Resolve(ctx context.Context, cred Credential) (*Identity, error) {
	switch r.mode {
	case config.AuthModeToken:
		return r.resolveToken(ctx, cred.Token)
	default:
		return r.resolveBasic(ctx, cred.Username, cred.Password)
	}
}

func (r *Resolver) resolveBasic(ctx context.Context, username, password string) (*Identity, error) {
	if username == "" || password == "" {
		return nil, types.E(types.KindAuth,
			"missing credentials: use Basic authentication with username:password (create an account first with create_account)")
	}
	if err := r.verify(ctx, username, password); err != nil {
		return nil, err
	}
	return &Identity{Username: username}, nil
}

func (r *Resolver) resolveToken(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, types.E(types.KindAuth,
			"missing session token: login or create_profile first")
	}
	if !types.ValidToken(token) {
		return nil, types.E(types.KindValidation,
			"malformed session token: want the canonical 36-character hyphenated form")
	}
	binding, err := r.sessions.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if binding == nil {
		return nil, types.E(types.KindAuth, "unknown session token: login or create_profile first")
	}
	return &Identity{Username: binding.Username, Anonymous: binding.Anonymous}, nil
}

// verify checks a password pair against the stored hash. Unknown users and
// wrong passwords collapse to the same error.
func (r *Resolver) verify(ctx context.Context, username, password string) error {
	user, err := r.store.GetCredentials(ctx, username)
	if err != nil {
		return err
	}
	if user == nil || user.PasswordHash == "" {
		return types.E(types.KindAuth, authFailed)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return types.E(types.KindAuth, authFailed)
	}
	return nil
}

// Signup creates a credentialed account and mints a session token for it.
// Input bounds are checked before any hashing work.
func (r *Resolver) Signup(ctx context.Context, username, password, bio string) (*types.User, string, error) {
	if err := validateUsername(username); err != nil {
		return nil, "", err
	}
	if len(password) < minPassword {
		return nil, "", types.E(types.KindValidation, "password must be at least %d characters", minPassword)
	}
	if err := validateBio(bio); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", types.Wrap(types.KindInternal, err, "hash password")
	}

	user, err := r.store.CreateUser(ctx, username, bio, string(hash))
	if err != nil {
		return nil, "", err
	}

	token, err := r.mint(ctx, username, false)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies a password pair and mints a fresh session token.
func (r *Resolver) Login(ctx context.Context, username, password string) (string, error) {
	if err := r.verify(ctx, username, password); err != nil {
		return "", err
	}
	return r.mint(ctx, username, false)
}

// BindAnonymous implements the legacy profile path: the caller supplies its
// own token, which is bound to a brand-new passwordless account. Rebinding a
// token overwrites its previous mapping.
func (r *Resolver) BindAnonymous(ctx context.Context, token, username, bio string) (*types.User, error) {
	if !types.ValidToken(token) {
		return nil, types.E(types.KindValidation,
			"malformed session token: want the canonical 36-character hyphenated form")
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateBio(bio); err != nil {
		return nil, err
	}

	user, err := r.store.CreateUser(ctx, username, bio, "")
	if err != nil {
		return nil, err
	}
	if err := r.sessions.Bind(ctx, token, types.SessionBinding{Username: username, Anonymous: true}); err != nil {
		return nil, err
	}
	return user, nil
}

// mint generates a fresh token and binds it. Tokens are always newly
// generated, so a mint can never hand one user another user's session.
func (r *Resolver) mint(ctx context.Context, username string, anonymous bool) (string, error) {
	token := types.NewToken()
	if err := r.sessions.Bind(ctx, token, types.SessionBinding{Username: username, Anonymous: anonymous}); err != nil {
		return "", err
	}
	return token, nil
}

func validateUsername(username string) error {
	// Limits count characters, not bytes, so multibyte names are not
	// penalized for their encoding.
	if n := utf8.RuneCountInString(username); n < minUsername || n > maxUsername {
		return types.E(types.KindValidation,
			"username must be between %d and %d characters", minUsername, maxUsername)
	}
	return nil
}

func validateBio(bio string) error {
	if utf8.RuneCountInString(bio) > 500 {
		return types.E(types.KindValidation, "bio must be 500 characters or less")
	}
	return nil
}
