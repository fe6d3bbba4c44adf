// internal/types/models.go
package types

import "time"

// User is an account row as returned by the relational store.
// Counters are denormalized and maintained by the store, never computed here.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Bio            string    `json:"bio,omitempty"`
	PasswordHash   string    `json:"password_hash,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	FollowerCount  int       `json:"follower_count"`
	FollowingCount int       `json:"following_count"`
	PostCount      int       `json:"post_count"`
}

// Post is a content row joined with its author's username. A post is never
// handed to a transport without attribution.
type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Content    string    `json:"content"`
	Code       string    `json:"code,omitempty"`
	Language   string    `json:"language,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	LikeCount  int       `json:"like_count"`
	ReplyCount int       `json:"reply_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewPost carries the fields for a post insert.
type NewPost struct {
	UserID   string
	Content  string
	Code     string
	Language string
	Tags     []string
}

// SessionBinding maps a session token to a resolved account. Anonymous marks
// bindings created by the legacy token path (passwordless accounts).
type SessionBinding struct {
	Username  string
	Anonymous bool
}
