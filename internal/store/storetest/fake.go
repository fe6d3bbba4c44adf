// Package storetest provides an in-memory types.Store for tests. It mirrors
// the external collaborator's contract: unique constraints on usernames,
// follow pairs, and like pairs surface as conflict-kind errors, and the
// denormalized counters move with edge and post writes.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/devsocial/internal/types"
)

type followEdge struct {
	followerID  string
	followingID string
	createdAt   time.Time
}

type likeEdge struct {
	userID string
	postID string
}

// Fake is an in-memory Store.
type Fake struct {
	mu      sync.Mutex
	users   map[string]*types.User // keyed by username
	posts   []*types.Post          // insertion order
	follows []followEdge
	likes   []likeEdge
	now     time.Time
}

// NewFake returns an empty Fake store with a deterministic clock.
func NewFake() *Fake {
	return &Fake{
		users: make(map[string]*types.User),
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick advances the fake clock so every row gets a distinct creation time.
func (f *Fake) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *Fake) CreateUser(_ context.Context, username, bio, passwordHash string) (*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[username]; ok {
		return nil, types.E(types.KindConflict, "username %q is already taken", username)
	}
	u := &types.User{
		ID:           uuid.New().String(),
		Username:     username,
		Bio:          bio,
		PasswordHash: passwordHash,
		CreatedAt:    f.tick(),
	}
	f.users[username] = u
	out := *u
	out.PasswordHash = ""
	return &out, nil
}

func (f *Fake) GetUser(_ context.Context, username string) (*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[username]
	if !ok {
		return nil, nil
	}
	out := *u
	out.PasswordHash = ""
	return &out, nil
}

func (f *Fake) GetCredentials(_ context.Context, username string) (*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[username]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (f *Fake) UpdateUserBio(_ context.Context, username, bio string) (*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[username]
	if !ok {
		return nil, types.E(types.KindNotFound, "user @%s not found", username)
	}
	u.Bio = bio
	out := *u
	out.PasswordHash = ""
	return &out, nil
}

func (f *Fake) SearchUsers(_ context.Context, query string, limit int) ([]types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []types.User
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(query)) {
			c := *u
			c.PasswordHash = ""
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Fake) CreatePost(_ context.Context, post types.NewPost) (*types.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	author := f.userByID(post.UserID)
	if author == nil {
		return nil, types.E(types.KindNotFound, "user not found")
	}
	p := &types.Post{
		ID:        uuid.New().String(),
		UserID:    post.UserID,
		Username:  author.Username,
		Content:   post.Content,
		Code:      post.Code,
		Language:  post.Language,
		Tags:      post.Tags,
		CreatedAt: f.tick(),
	}
	f.posts = append(f.posts, p)
	author.PostCount++
	out := *p
	return &out, nil
}

func (f *Fake) GetPost(_ context.Context, postID string) (*types.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.posts {
		if p.ID == postID {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

func (f *Fake) PostsByUser(_ context.Context, userID string, limit int) ([]types.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selectPosts(func(p *types.Post) bool { return p.UserID == userID }, limit), nil
}

func (f *Fake) PostsByAuthors(_ context.Context, userIDs []string, limit int) ([]types.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	set := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		set[id] = true
	}
	return f.selectPosts(func(p *types.Post) bool { return set[p.UserID] }, limit), nil
}

func (f *Fake) GlobalFeed(_ context.Context, limit int) ([]types.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selectPosts(func(*types.Post) bool { return true }, limit), nil
}

// selectPosts returns matching posts newest first with an id tie-break,
// truncated to limit. Callers must hold the lock.
func (f *Fake) selectPosts(match func(*types.Post) bool, limit int) []types.Post {
	var out []types.Post
	for _, p := range f.posts {
		if match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *Fake) CreateFollow(_ context.Context, followerID, followingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range f.follows {
		if e.followerID == followerID && e.followingID == followingID {
			return types.E(types.KindConflict, "already following this user")
		}
	}
	f.follows = append(f.follows, followEdge{followerID, followingID, f.tick()})
	if u := f.userByID(followerID); u != nil {
		u.FollowingCount++
	}
	if u := f.userByID(followingID); u != nil {
		u.FollowerCount++
	}
	return nil
}

func (f *Fake) DeleteFollow(_ context.Context, followerID, followingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, e := range f.follows {
		if e.followerID == followerID && e.followingID == followingID {
			f.follows = append(f.follows[:i], f.follows[i+1:]...)
			if u := f.userByID(followerID); u != nil {
				u.FollowingCount--
			}
			if u := f.userByID(followingID); u != nil {
				u.FollowerCount--
			}
			return nil
		}
	}
	return nil // absent edge: no-op
}

func (f *Fake) IsFollowing(_ context.Context, followerID, followingID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range f.follows {
		if e.followerID == followerID && e.followingID == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) Following(_ context.Context, userID string) ([]types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edgeUsers(userID, true), nil
}

func (f *Fake) Followers(_ context.Context, userID string) ([]types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edgeUsers(userID, false), nil
}

// edgeUsers lists the accounts on the far side of the user's follow edges,
// most recent edge first. Callers must hold the lock.
func (f *Fake) edgeUsers(userID string, following bool) []types.User {
	edges := make([]followEdge, 0)
	for _, e := range f.follows {
		if (following && e.followerID == userID) || (!following && e.followingID == userID) {
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].createdAt.After(edges[j].createdAt) })

	out := make([]types.User, 0, len(edges))
	for _, e := range edges {
		other := e.followingID
		if !following {
			other = e.followerID
		}
		if u := f.userByID(other); u != nil {
			c := *u
			c.PasswordHash = ""
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) FollowingIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []string
	for _, e := range f.follows {
		if e.followerID == userID {
			ids = append(ids, e.followingID)
		}
	}
	return ids, nil
}

func (f *Fake) CreateLike(_ context.Context, userID, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range f.likes {
		if e.userID == userID && e.postID == postID {
			return types.E(types.KindConflict, "you have already liked this post")
		}
	}
	f.likes = append(f.likes, likeEdge{userID, postID})
	for _, p := range f.posts {
		if p.ID == postID {
			p.LikeCount++
		}
	}
	return nil
}

func (f *Fake) DeleteLike(_ context.Context, userID, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, e := range f.likes {
		if e.userID == userID && e.postID == postID {
			f.likes = append(f.likes[:i], f.likes[i+1:]...)
			for _, p := range f.posts {
				if p.ID == postID {
					p.LikeCount--
				}
			}
			return nil
		}
	}
	return nil // absent like: no-op
}

func (f *Fake) userByID(id string) *types.User {
	for _, u := range f.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// UserID is a test helper that returns the id for a username, or "".
func (f *Fake) UserID(username string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[username]; ok {
		return u.ID
	}
	return ""
}
