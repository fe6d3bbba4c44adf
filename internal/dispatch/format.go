package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/devsocial/internal/types"
)

const joinedFormat = "Jan 2, 2006"

var feedSeparator = "\n\n" + strings.Repeat("-", 50) + "\n\n"

// relativeTime renders a coarse age: days, then hours, then minutes with a
// floor of one minute so fresh posts never show "0m ago".
func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	if days := int(d.Hours() / 24); days > 0 {
		return fmt.Sprintf("%dd ago", days)
	}
	if hours := int(d.Hours()); hours > 0 {
		return fmt.Sprintf("%dh ago", hours)
	}
	mins := int(d.Minutes())
	if mins < 1 {
		mins = 1
	}
	return fmt.Sprintf("%dm ago", mins)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatPost(p types.Post, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s (%s) [ID: %s]\n\"%s\"", p.Username, relativeTime(p.CreatedAt, now), shortID(p.ID), p.Content)
	if p.Code != "" {
		fmt.Fprintf(&b, "\n```%s\n%s\n```", p.Language, p.Code)
	}
	if len(p.Tags) > 0 {
		tags := make([]string, len(p.Tags))
		for i, tag := range p.Tags {
			tags[i] = "#" + tag
		}
		fmt.Fprintf(&b, "\nTags: %s", strings.Join(tags, " "))
	}
	fmt.Fprintf(&b, "\n%d likes | %d replies", p.LikeCount, p.ReplyCount)
	return b.String()
}

func formatFeed(header string, posts []types.Post, now time.Time) string {
	rendered := make([]string, len(posts))
	for i, p := range posts {
		rendered[i] = formatPost(p, now)
	}
	return fmt.Sprintf("%s (%d posts)\n\n%s", header, len(posts), strings.Join(rendered, feedSeparator))
}

func formatProfile(u *types.User) string {
	return fmt.Sprintf("Profile: @%s\n\nBio: %s\nPosts: %d\nFollowers: %d\nFollowing: %d\nJoined: %s",
		u.Username, orNoBio(u.Bio), u.PostCount, u.FollowerCount, u.FollowingCount, u.CreatedAt.Format(joinedFormat))
}

func formatUserList(users []types.User, byPosts bool) string {
	lines := make([]string, len(users))
	for i, u := range users {
		if byPosts {
			lines[i] = fmt.Sprintf("@%s - %s (%d posts)", u.Username, orNoBio(u.Bio), u.PostCount)
		} else {
			lines[i] = fmt.Sprintf("@%s - %s (%d followers)", u.Username, orNoBio(u.Bio), u.FollowerCount)
		}
	}
	return strings.Join(lines, "\n")
}

func orNoBio(bio string) string {
	if bio == "" {
		return "No bio"
	}
	return bio
}
