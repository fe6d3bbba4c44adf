package store

import (
	"context"

	"github.com/user/devsocial/internal/types"
)

func (s *Store) CreateFollow(ctx context.Context, followerID, followingID string) error {
	row := map[string]any{"follower_id": followerID, "following_id": followingID}
	err := s.do(ctx, "create follow", func() error {
		_, _, err := s.db.From("follows").Insert(row, false, "", "minimal", "").Execute()
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return types.Wrap(types.KindConflict, err, "already following this user")
		}
		return internalErr("create follow", err)
	}
	return nil
}

// DeleteFollow is idempotent: deleting an edge that does not exist succeeds.
func (s *Store) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	err := s.do(ctx, "delete follow", func() error {
		_, _, err := s.db.From("follows").
			Delete("minimal", "").
			Eq("follower_id", followerID).
			Eq("following_id", followingID).
			Execute()
		return err
	})
	if err != nil {
		return internalErr("delete follow", err)
	}
	return nil
}

func (s *Store) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var rows []struct {
		FollowerID string `json:"follower_id"`
	}
	err := s.do(ctx, "check follow", func() error {
		_, err := s.db.From("follows").
			Select("follower_id", "", false).
			Eq("follower_id", followerID).
			Eq("following_id", followingID).
			Limit(1, "").
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return false, internalErr("check follow", err)
	}
	return len(rows) > 0, nil
}

// edgeRow is a follow edge joined with the account on its far side, ordered by
// edge creation so the most recent relationship lists first.
type edgeRow struct {
	CreatedAt string     `json:"created_at"`
	User      types.User `json:"user"`
}

func (s *Store) Following(ctx context.Context, userID string) ([]types.User, error) {
	return s.edgeUsers(ctx, "following", "user:users!follows_following_id_fkey(*)", "follower_id", userID)
}

func (s *Store) Followers(ctx context.Context, userID string) ([]types.User, error) {
	return s.edgeUsers(ctx, "followers", "user:users!follows_follower_id_fkey(*)", "following_id", userID)
}

func (s *Store) edgeUsers(ctx context.Context, op, columns, filterCol, userID string) ([]types.User, error) {
	var rows []edgeRow
	err := s.do(ctx, op, func() error {
		_, err := s.db.From("follows").
			Select("created_at, "+columns, "", false).
			Eq(filterCol, userID).
			Order("created_at", &descOrder).
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, internalErr(op, err)
	}
	users := make([]types.User, 0, len(rows))
	for _, r := range rows {
		u := r.User
		u.PasswordHash = ""
		users = append(users, u)
	}
	return users, nil
}

func (s *Store) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	var rows []struct {
		FollowingID string `json:"following_id"`
	}
	err := s.do(ctx, "following ids", func() error {
		_, err := s.db.From("follows").
			Select("following_id", "", false).
			Eq("follower_id", userID).
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, internalErr("following ids", err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.FollowingID)
	}
	return ids, nil
}

func (s *Store) CreateLike(ctx context.Context, userID, postID string) error {
	row := map[string]any{"user_id": userID, "post_id": postID}
	err := s.do(ctx, "create like", func() error {
		_, _, err := s.db.From("likes").Insert(row, false, "", "minimal", "").Execute()
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return types.Wrap(types.KindConflict, err, "you have already liked this post")
		}
		return internalErr("create like", err)
	}
	return nil
}

// DeleteLike is idempotent: removing an absent like succeeds.
func (s *Store) DeleteLike(ctx context.Context, userID, postID string) error {
	err := s.do(ctx, "delete like", func() error {
		_, _, err := s.db.From("likes").
			Delete("minimal", "").
			Eq("user_id", userID).
			Eq("post_id", postID).
			Execute()
		return err
	})
	if err != nil {
		return internalErr("delete like", err)
	}
	return nil
}
