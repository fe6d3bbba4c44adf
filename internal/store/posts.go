package store

import (
	"context"

	"github.com/supabase-community/postgrest-go"

	"github.com/user/devsocial/internal/types"
)

var descOrder = postgrest.OrderOpts{Ascending: false}

// postColumns joins the author username onto every post row. A post is never
// returned without attribution.
const postColumns = "*, author:users!posts_user_id_fkey(username)"

// postRow is the wire shape of a post select with its author join.
type postRow struct {
	types.Post
	Author struct {
		Username string `json:"username"`
	} `json:"author"`
}

func flattenPosts(rows []postRow) []types.Post {
	posts := make([]types.Post, 0, len(rows))
	for _, r := range rows {
		p := r.Post
		p.Username = r.Author.Username
		posts = append(posts, p)
	}
	return posts
}

func (s *Store) CreatePost(ctx context.Context, post types.NewPost) (*types.Post, error) {
	row := map[string]any{
		"user_id": post.UserID,
		"content": post.Content,
	}
	if post.Code != "" {
		row["code"] = post.Code
	}
	if post.Language != "" {
		row["language"] = post.Language
	}
	if len(post.Tags) > 0 {
		row["tags"] = post.Tags
	}

	var created []postRow
	err := s.do(ctx, "create post", func() error {
		_, err := s.db.From("posts").Insert(row, false, "", "representation", "").ExecuteTo(&created)
		return err
	})
	if err != nil {
		return nil, internalErr("create post", err)
	}
	if len(created) == 0 {
		return nil, types.E(types.KindInternal, "create post returned no row")
	}
	// The insert response carries no join; fetch the stored row with its author.
	if created[0].Author.Username == "" {
		return s.GetPost(ctx, created[0].ID)
	}
	posts := flattenPosts(created)
	return &posts[0], nil
}

// GetPost returns the post with the given id, or (nil, nil) when absent.
func (s *Store) GetPost(ctx context.Context, postID string) (*types.Post, error) {
	var rows []postRow
	err := s.do(ctx, "get post", func() error {
		_, err := s.db.From("posts").
			Select(postColumns, "", false).
			Eq("id", postID).
			Limit(1, "").
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, internalErr("get post", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	posts := flattenPosts(rows)
	return &posts[0], nil
}

func (s *Store) PostsByUser(ctx context.Context, userID string, limit int) ([]types.Post, error) {
	var rows []postRow
	err := s.do(ctx, "user posts", func() error {
		_, err := s.db.From("posts").
			Select(postColumns, "", false).
			Eq("user_id", userID).
			Order("created_at", &descOrder).
			Order("id", &descOrder).
			Limit(limit, "").
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, internalErr("user posts", err)
	}
	return flattenPosts(rows), nil
}

func (s *Store) PostsByAuthors(ctx context.Context, userIDs []string, limit int) ([]types.Post, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var rows []postRow
	err := s.do(ctx, "feed posts", func() error {
		_, err := s.db.From("posts").
			Select(postColumns, "", false).
			In("user_id", userIDs).
			Order("created_at", &descOrder).
			Order("id", &descOrder).
			Limit(limit, "").
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, internalErr("feed posts", err)
	}
	return flattenPosts(rows), nil
}

func (s *Store) GlobalFeed(ctx context.Context, limit int) ([]types.Post, error) {
	var rows []postRow
	err := s.do(ctx, "global feed", func() error {
		_, err := s.db.From("posts").
			Select(postColumns, "", false).
			Order("created_at", &descOrder).
			Order("id", &descOrder).
			Limit(limit, "").
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, internalErr("global feed", err)
	}
	return flattenPosts(rows), nil
}
