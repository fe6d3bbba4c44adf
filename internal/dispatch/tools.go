package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/user/devsocial/internal/identity"
	"github.com/user/devsocial/internal/social"
	"github.com/user/devsocial/internal/types"
)

const (
	maxPostLen = 280
	maxBioLen  = 500
)

// catalog binds handlers to the account, graph, posting, and feed services.
type catalog struct {
	resolver *identity.Resolver
	social   *social.Service
	now      func() time.Time
}

// NewCatalog registers every tool over the given services.
func NewCatalog(resolver *identity.Resolver, svc *social.Service) *Registry {
	c := &catalog{resolver: resolver, social: svc, now: time.Now}
	r := NewRegistry()
	c.register(r)
	return r
}

func (c *catalog) register(r *Registry) {
	r.Register(Descriptor{
		Name:        "create_account",
		Description: "Create a new user account with username and password",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"username": {"type": "string", "description": "Username (3-20 characters, must be unique)"},
				"password": {"type": "string", "description": "Password (minimum 6 characters)"},
				"bio": {"type": "string", "description": "Optional bio (max 500 characters)"}
			},
			"required": ["username", "password"]
		}`),
	}, c.createAccount)

	r.Register(Descriptor{
		Name:        "login",
		Description: "Login to your existing account",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"username": {"type": "string", "description": "Your username"},
				"password": {"type": "string", "description": "Your password"}
			},
			"required": ["username", "password"]
		}`),
	}, c.login)

	r.Register(Descriptor{
		Name:        "create_profile",
		Description: "Create a new user profile",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"username": {"type": "string", "description": "Username (3-20 characters, must be unique)"},
				"bio": {"type": "string", "description": "Optional bio (max 500 characters)"}
			},
			"required": ["username"]
		}`),
	}, c.createProfile)

	r.Register(Descriptor{
		Name:        "get_profile",
		Description: "Get a user profile by username",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"username": {"type": "string", "description": "Username to look up"}
			},
			"required": ["username"]
		}`),
	}, c.getProfile)

	r.Register(Descriptor{
		Name:        "update_profile",
		Description: "Update your profile bio",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"bio": {"type": "string", "description": "New bio (max 500 characters)"}
			},
			"required": ["bio"]
		}`),
		RequiresAuth: true,
	}, c.updateProfile)

	r.Register(Descriptor{
		Name:        "search_users",
		Description: "Search for users by username",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Search query"},
				"limit": {"type": "number", "description": "Maximum number of results (default: 10)", "default": 10}
			},
			"required": ["query"]
		}`),
	}, c.searchUsers)

	r.Register(Descriptor{
		Name:        "post_update",
		Description: "Post a text update",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"content": {"type": "string", "description": "Post content (max 280 characters)"},
				"tags": {"type": "array", "items": {"type": "string"}, "description": "Optional tags (without # symbol)"}
			},
			"required": ["content"]
		}`),
		RequiresAuth: true,
	}, c.postUpdate)

	r.Register(Descriptor{
		Name:        "post_code",
		Description: "Post a code snippet with description",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"code": {"type": "string", "description": "Code snippet"},
				"language": {"type": "string", "description": "Programming language"},
				"description": {"type": "string", "description": "Description of the code (max 280 characters)"},
				"tags": {"type": "array", "items": {"type": "string"}, "description": "Optional tags (without # symbol)"}
			},
			"required": ["code", "language", "description"]
		}`),
		RequiresAuth: true,
	}, c.postCode)

	r.Register(Descriptor{
		Name:        "get_feed",
		Description: "Get your personalized feed (posts from users you follow)",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {"type": "number", "description": "Maximum number of posts (default: 20)", "default": 20}
			}
		}`),
		RequiresAuth: true,
	}, c.getFeed)

	r.Register(Descriptor{
		Name:        "get_global_feed",
		Description: "Get the global feed (all public posts)",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {"type": "number", "description": "Maximum number of posts (default: 20)", "default": 20}
			}
		}`),
	}, c.getGlobalFeed)

	r.Register(Descriptor{
		Name:        "get_user_posts",
		Description: "Get posts from a specific user",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"username": {"type": "string", "description": "Username to get posts from"},
				"limit": {"type": "number", "description": "Maximum number of posts (default: 20)", "default": 20}
			},
			"required": ["username"]
		}`),
	}, c.getUserPosts)

	r.Register(Descriptor{
		Name:        "follow_user",
		Description: "Follow a user",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"username": {"type": "string", "description": "Username to follow"}
			},
			"required": ["username"]
		}`),
		RequiresAuth: true,
	}, c.followUser)

	r.Register(Descriptor{
		Name:        "unfollow_user",
		Description: "Unfollow a user",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"username": {"type": "string", "description": "Username to unfollow"}
			},
			"required": ["username"]
		}`),
		RequiresAuth: true,
	}, c.unfollowUser)

	r.Register(Descriptor{
		Name:         "get_following",
		Description:  "Get list of users you are following",
		InputSchema:  json.RawMessage(`{"type": "object", "properties": {}}`),
		RequiresAuth: true,
	}, c.getFollowing)

	r.Register(Descriptor{
		Name:         "get_followers",
		Description:  "Get list of your followers",
		InputSchema:  json.RawMessage(`{"type": "object", "properties": {}}`),
		RequiresAuth: true,
	}, c.getFollowers)

	r.Register(Descriptor{
		Name:        "like_post",
		Description: "Like a post by post ID",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"post_id": {"type": "string", "description": "ID of the post to like"}
			},
			"required": ["post_id"]
		}`),
		RequiresAuth: true,
	}, c.likePost)

	r.Register(Descriptor{
		Name:        "unlike_post",
		Description: "Unlike a post by post ID",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"post_id": {"type": "string", "description": "ID of the post to unlike"}
			},
			"required": ["post_id"]
		}`),
		RequiresAuth: true,
	}, c.unlikePost)
}

func (c *catalog) createAccount(ctx context.Context, args json.RawMessage, _ Caller) (string, error) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Bio      string `json:"bio"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	user, token, err := c.resolver.Signup(ctx, in.Username, in.Password, in.Bio)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Account created successfully!\n\nUsername: @%s\nBio: %s\nJoined: %s\nSession token: %s\n\nYou can now start posting and following other users!",
		user.Username, orNoBioYet(user.Bio), user.CreatedAt.Format(joinedFormat), token), nil
}

func (c *catalog) login(ctx context.Context, args json.RawMessage, _ Caller) (string, error) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	token, err := c.resolver.Login(ctx, in.Username, in.Password)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Logged in as @%s.\nSession token: %s", in.Username, token), nil
}

func (c *catalog) createProfile(ctx context.Context, args json.RawMessage, caller Caller) (string, error) {
	var in struct {
		Username string `json:"username"`
		Bio      string `json:"bio"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	if caller.Cred.Token == "" {
		return "", types.E(types.KindValidation, "create_profile requires a session token header to bind the new profile to")
	}
	user, err := c.resolver.BindAnonymous(ctx, caller.Cred.Token, in.Username, in.Bio)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Profile created successfully!\n\nUsername: @%s\nBio: %s\nJoined: %s\n\nYou can now start posting and following other users!",
		user.Username, orNoBioYet(user.Bio), user.CreatedAt.Format(joinedFormat)), nil
}

func (c *catalog) getProfile(ctx context.Context, args json.RawMessage, _ Caller) (string, error) {
	var in struct {
		Username string `json:"username"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	user, err := c.social.Profile(ctx, in.Username)
	if err != nil {
		return "", err
	}
	return formatProfile(user), nil
}

func (c *catalog) updateProfile(ctx context.Context, args json.RawMessage, caller Caller) (string, error) {
	var in struct {
		Bio string `json:"bio"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	if utf8.RuneCountInString(in.Bio) > maxBioLen {
		return "", types.E(types.KindValidation, "bio must be 500 characters or less")
	}
	user, err := c.social.UpdateBio(ctx, caller.Identity.Username, in.Bio)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Profile updated!\n\nNew bio: %s", user.Bio), nil
}

func (c *catalog) searchUsers(ctx context.Context, args json.RawMessage, _ Caller) (string, error) {
	var in struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	if in.Query == "" {
		return "", types.E(types.KindValidation, "query is required")
	}
	users, err := c.social.SearchUsers(ctx, in.Query, in.Limit)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return fmt.Sprintf("No users found matching %q", in.Query), nil
	}
	return fmt.Sprintf("Found %d user(s) matching %q:\n\n%s", len(users), in.Query, formatUserList(users, false)), nil
}

func (c *catalog) postUpdate(ctx context.Context, args json.RawMessage, caller Caller) (string, error) {
	var in struct {
		Content string   `json:"content"`
		Tags    []string `json:"tags"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	if in.Content == "" {
		return "", types.E(types.KindValidation, "content is required")
	}
	if utf8.RuneCountInString(in.Content) > maxPostLen {
		return "", types.E(types.KindValidation, "post content must be 280 characters or less")
	}
	post, err := c.social.CreatePost(ctx, caller.Identity.Username, types.NewPost{
		Content: in.Content,
		Tags:    in.Tags,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Posted successfully!\n\n%s", formatPost(*post, c.now())), nil
}

func (c *catalog) postCode(ctx context.Context, args json.RawMessage, caller Caller) (string, error) {
	var in struct {
		Code        string   `json:"code"`
		Language    string   `json:"language"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	if in.Code == "" || in.Language == "" || in.Description == "" {
		return "", types.E(types.KindValidation, "code, language and description are required")
	}
	if utf8.RuneCountInString(in.Description) > maxPostLen {
		return "", types.E(types.KindValidation, "description must be 280 characters or less")
	}
	post, err := c.social.CreatePost(ctx, caller.Identity.Username, types.NewPost{
		Content:  in.Description,
		Code:     in.Code,
		Language: in.Language,
		Tags:     in.Tags,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Code snippet posted successfully!\n\n%s", formatPost(*post, c.now())), nil
}

func (c *catalog) getFeed(ctx context.Context, args json.RawMessage, caller Caller) (string, error) {
	var in struct {
		Limit int `json:"limit"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	posts, err := c.social.Feed(ctx, caller.Identity.Username, in.Limit)
	if err != nil {
		return "", err
	}
	if len(posts) == 0 {
		return "Your feed is empty!\n\nTry following some users to see their posts here. Use search_users() to find people to follow.", nil
	}
	return formatFeed("Your Feed", posts, c.now()), nil
}

func (c *catalog) getGlobalFeed(ctx context.Context, args json.RawMessage, _ Caller) (string, error) {
	var in struct {
		Limit int `json:"limit"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	posts, err := c.social.GlobalFeed(ctx, in.Limit)
	if err != nil {
		return "", err
	}
	if len(posts) == 0 {
		return "Global feed is empty!\n\nBe the first to post something!", nil
	}
	return formatFeed("Global Feed", posts, c.now()), nil
}

func (c *catalog) getUserPosts(ctx context.Context, args json.RawMessage, _ Caller) (string, error) {
	var in struct {
		Username string `json:"username"`
		Limit    int    `json:"limit"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	posts, err := c.social.UserPosts(ctx, in.Username, in.Limit)
	if err != nil {
		return "", err
	}
	if len(posts) == 0 {
		return fmt.Sprintf("@%s hasn't posted anything yet.", in.Username), nil
	}
	return formatFeed(fmt.Sprintf("Posts by @%s", in.Username), posts, c.now()), nil
}

func (c *catalog) followUser(ctx context.Context, args json.RawMessage, caller Caller) (string, error) {
	var in struct {
		Username string `json:"username"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	if err := c.social.Follow(ctx, caller.Identity.Username, in.Username); err != nil {
		return "", err
	}
	return fmt.Sprintf("You are now following @%s!", in.Username), nil
}

func (c *catalog) unfollowUser(ctx context.Context, args json.RawMessage, caller Caller) (string, error) {
	var in struct {
		Username string `json:"username"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	if err := c.social.Unfollow(ctx, caller.Identity.Username, in.Username); err != nil {
		return "", err
	}
	return fmt.Sprintf("You have unfollowed @%s", in.Username), nil
}

func (c *catalog) getFollowing(ctx context.Context, _ json.RawMessage, caller Caller) (string, error) {
	following, err := c.social.Following(ctx, caller.Identity.Username)
	if err != nil {
		return "", err
	}
	if len(following) == 0 {
		return "You're not following anyone yet. Use search_users() to find people to follow!", nil
	}
	return fmt.Sprintf("You are following %d user(s):\n\n%s", len(following), formatUserList(following, false)), nil
}

func (c *catalog) getFollowers(ctx context.Context, _ json.RawMessage, caller Caller) (string, error) {
	followers, err := c.social.Followers(ctx, caller.Identity.Username)
	if err != nil {
		return "", err
	}
	if len(followers) == 0 {
		return "You don't have any followers yet. Keep posting great content!", nil
	}
	return fmt.Sprintf("You have %d follower(s):\n\n%s", len(followers), formatUserList(followers, true)), nil
}

func (c *catalog) likePost(ctx context.Context, args json.RawMessage, caller Caller) (string, error) {
	var in struct {
		PostID string `json:"post_id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	post, err := c.social.Like(ctx, caller.Identity.Username, in.PostID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("You liked @%s's post!", post.Username), nil
}

func (c *catalog) unlikePost(ctx context.Context, args json.RawMessage, caller Caller) (string, error) {
	var in struct {
		PostID string `json:"post_id"`
	}
	if err := decodeArgs(args, &in); err != nil {
		return "", err
	}
	post, err := c.social.Unlike(ctx, caller.Identity.Username, in.PostID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("You unliked @%s's post", post.Username), nil
}

func orNoBioYet(bio string) string {
	if bio == "" {
		return "No bio yet"
	}
	return bio
}
