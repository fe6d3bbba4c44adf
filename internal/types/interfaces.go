// internal/types/interfaces.go
package types

import "context"

// Store is the narrow interface to the external relational collaborator.
// Lookup methods return (nil, nil) when the row is absent; only transport
// or constraint failures produce errors. Uniqueness violations surface as
// Conflict-kind errors, which callers treat as the authoritative signal.
type Store interface {
	CreateUser(ctx context.Context, username, bio, passwordHash string) (*User, error)
	GetUser(ctx context.Context, username string) (*User, error)
	GetCredentials(ctx context.Context, username string) (*User, error)
	UpdateUserBio(ctx context.Context, username, bio string) (*User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]User, error)

	CreatePost(ctx context.Context, post NewPost) (*Post, error)
	GetPost(ctx context.Context, postID string) (*Post, error)
	PostsByUser(ctx context.Context, userID string, limit int) ([]Post, error)
	PostsByAuthors(ctx context.Context, userIDs []string, limit int) ([]Post, error)
	GlobalFeed(ctx context.Context, limit int) ([]Post, error)

	CreateFollow(ctx context.Context, followerID, followingID string) error
	DeleteFollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	Following(ctx context.Context, userID string) ([]User, error)
	Followers(ctx context.Context, userID string) ([]User, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)

	CreateLike(ctx context.Context, userID, postID string) error
	DeleteLike(ctx context.Context, userID, postID string) error
}

// SessionStore maps opaque session tokens to account bindings. Implementations
// are caches, not records of truth: bindings may vanish on restart and a token
// maps to at most one account at a time (rebinding overwrites).
type SessionStore interface {
	Lookup(ctx context.Context, token string) (*SessionBinding, error)
	Bind(ctx context.Context, token string, binding SessionBinding) error
	Delete(ctx context.Context, token string) error
}
