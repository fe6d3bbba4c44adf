package store

import (
	"context"

	"github.com/user/devsocial/internal/types"
)

func (s *Store) CreateUser(ctx context.Context, username, bio, passwordHash string) (*types.User, error) {
	row := map[string]any{"username": username}
	if bio != "" {
		row["bio"] = bio
	}
	if passwordHash != "" {
		row["password_hash"] = passwordHash
	}

	var created []types.User
	err := s.do(ctx, "create user", func() error {
		_, err := s.db.From("users").Insert(row, false, "", "representation", "").ExecuteTo(&created)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, types.Wrap(types.KindConflict, err, "username %q is already taken", username)
		}
		return nil, internalErr("create user", err)
	}
	if len(created) == 0 {
		return nil, types.E(types.KindInternal, "create user returned no row")
	}
	u := created[0]
	u.PasswordHash = ""
	return &u, nil
}

// GetUser returns the account with the given username, or (nil, nil) when it
// does not exist. The password hash is never included.
func (s *Store) GetUser(ctx context.Context, username string) (*types.User, error) {
	u, err := s.getUser(ctx, username)
	if err != nil || u == nil {
		return u, err
	}
	u.PasswordHash = ""
	return u, nil
}

// GetCredentials is the only lookup that includes the stored password hash.
func (s *Store) GetCredentials(ctx context.Context, username string) (*types.User, error) {
	return s.getUser(ctx, username)
}

func (s *Store) getUser(ctx context.Context, username string) (*types.User, error) {
	var rows []types.User
	err := s.do(ctx, "get user", func() error {
		_, err := s.db.From("users").
			Select("*", "", false).
			Eq("username", username).
			Limit(1, "").
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, internalErr("get user", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *Store) UpdateUserBio(ctx context.Context, username, bio string) (*types.User, error) {
	var rows []types.User
	err := s.do(ctx, "update user", func() error {
		_, err := s.db.From("users").
			Update(map[string]any{"bio": bio}, "representation", "").
			Eq("username", username).
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, internalErr("update user", err)
	}
	if len(rows) == 0 {
		return nil, types.E(types.KindNotFound, "user @%s not found", username)
	}
	u := rows[0]
	u.PasswordHash = ""
	return &u, nil
}

func (s *Store) SearchUsers(ctx context.Context, query string, limit int) ([]types.User, error) {
	var rows []types.User
	err := s.do(ctx, "search users", func() error {
		_, err := s.db.From("users").
			Select("id, username, bio, created_at, follower_count, following_count, post_count", "", false).
			Ilike("username", "%"+query+"%").
			Order("created_at", &descOrder).
			Limit(limit, "").
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, internalErr("search users", err)
	}
	return rows, nil
}
