// Package social composes the follow graph and post collections of the
// relational store into the network's read and write operations. It holds no
// state of its own; everything flows through the injected store.
package social

import (
	"context"

	"github.com/user/devsocial/internal/types"
)

// DefaultFeedLimit bounds listings when the caller does not ask for a size.
const DefaultFeedLimit = 20

// Service implements the follow/feed/like operations over a types.Store.
type Service struct {
	store types.Store
}

// NewService creates a Service over the given store.
func NewService(store types.Store) *Service {
	return &Service{store: store}
}

// Profile returns the account for username.
func (s *Service) Profile(ctx context.Context, username string) (*types.User, error) {
	u, err := s.store.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, types.E(types.KindNotFound, "user @%s not found", username)
	}
	return u, nil
}

// UpdateBio replaces the account's bio.
func (s *Service) UpdateBio(ctx context.Context, username, bio string) (*types.User, error) {
	return s.store.UpdateUserBio(ctx, username, bio)
}

// SearchUsers matches usernames case-insensitively.
func (s *Service) SearchUsers(ctx context.Context, query string, limit int) ([]types.User, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.SearchUsers(ctx, query, limit)
}

// Follow creates the directed edge follower -> followee. The existence
// pre-check is an optimization only; the store's uniqueness violation is the
// authoritative conflict signal, since two concurrent calls can both pass the
// check before either inserts.
func (s *Service) Follow(ctx context.Context, follower, followee string) error {
	if follower == followee {
		return types.E(types.KindValidation, "cannot follow yourself")
	}
	followerID, err := s.userID(ctx, follower)
	if err != nil {
		return err
	}
	followeeID, err := s.userID(ctx, followee)
	if err != nil {
		return err
	}

	exists, err := s.store.IsFollowing(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if exists {
		return types.E(types.KindConflict, "already following this user")
	}
	return s.store.CreateFollow(ctx, followerID, followeeID)
}

// Unfollow removes the edge. Removing an edge that does not exist succeeds.
func (s *Service) Unfollow(ctx context.Context, follower, followee string) error {
	followerID, err := s.userID(ctx, follower)
	if err != nil {
		return err
	}
	followeeID, err := s.userID(ctx, followee)
	if err != nil {
		return err
	}
	return s.store.DeleteFollow(ctx, followerID, followeeID)
}

// IsFollowing reports edge existence; absence is not an error.
func (s *Service) IsFollowing(ctx context.Context, follower, followee string) (bool, error) {
	followerID, err := s.userID(ctx, follower)
	if err != nil {
		return false, err
	}
	followeeID, err := s.userID(ctx, followee)
	if err != nil {
		return false, err
	}
	return s.store.IsFollowing(ctx, followerID, followeeID)
}

// Following lists the accounts username follows, most recent edge first.
func (s *Service) Following(ctx context.Context, username string) ([]types.User, error) {
	id, err := s.userID(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.store.Following(ctx, id)
}

// Followers lists the accounts following username, most recent edge first.
func (s *Service) Followers(ctx context.Context, username string) ([]types.User, error) {
	id, err := s.userID(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.store.Followers(ctx, id)
}

// CreatePost stores a new post authored by username.
func (s *Service) CreatePost(ctx context.Context, username string, post types.NewPost) (*types.Post, error) {
	id, err := s.userID(ctx, username)
	if err != nil {
		return nil, err
	}
	post.UserID = id
	return s.store.CreatePost(ctx, post)
}

// Feed assembles the personalized feed: posts authored by accounts username
// follows, newest first with an id tie-break. An empty following set yields
// an empty feed; it never falls back to the global feed.
func (s *Service) Feed(ctx context.Context, username string, limit int) ([]types.Post, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	id, err := s.userID(ctx, username)
	if err != nil {
		return nil, err
	}
	authorIDs, err := s.store.FollowingIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(authorIDs) == 0 {
		return nil, nil
	}
	return s.store.PostsByAuthors(ctx, authorIDs, limit)
}

// GlobalFeed lists all posts, newest first.
func (s *Service) GlobalFeed(ctx context.Context, limit int) ([]types.Post, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	return s.store.GlobalFeed(ctx, limit)
}

// UserPosts lists one author's posts, newest first.
func (s *Service) UserPosts(ctx context.Context, username string, limit int) ([]types.Post, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	id, err := s.userID(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.store.PostsByUser(ctx, id, limit)
}

// Like records username's like on a post and returns the post for
// attribution. Double likes are conflicts; the counter moves in the store.
func (s *Service) Like(ctx context.Context, username, postID string) (*types.Post, error) {
	id, err := s.userID(ctx, username)
	if err != nil {
		return nil, err
	}
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateLike(ctx, id, postID); err != nil {
		return nil, err
	}
	return post, nil
}

// Unlike removes a like. Removing an absent like succeeds.
func (s *Service) Unlike(ctx context.Context, username, postID string) (*types.Post, error) {
	id, err := s.userID(ctx, username)
	if err != nil {
		return nil, err
	}
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteLike(ctx, id, postID); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Service) userID(ctx context.Context, username string) (string, error) {
	u, err := s.store.GetUser(ctx, username)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", types.E(types.KindNotFound, "user @%s not found", username)
	}
	return u.ID, nil
}

func (s *Service) getPost(ctx context.Context, postID string) (*types.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, types.E(types.KindNotFound, "post not found")
	}
	return post, nil
}
