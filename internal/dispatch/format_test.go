package dispatch

import (
	"strings"
	"testing"
	"time"

	"github.com/user/devsocial/internal/types"
)

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"just now floors to one minute", now.Add(-10 * time.Second), "1m ago"},
		{"minutes", now.Add(-45 * time.Minute), "45m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days win over hours", now.Add(-50 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relativeTime(tt.at, now); got != tt.want {
				t.Fatalf("relativeTime = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatPost(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	post := types.Post{
		ID:        "0f8fad5b-d9cb-469f-a165-70867728950e",
		Username:  "alice",
		Content:   "check this out",
		Code:      "fmt.Println(\"hi\")",
		Language:  "go",
		Tags:      []string{"go", "tips"},
		LikeCount: 2,
		CreatedAt: now.Add(-2 * time.Hour),
	}

	got := formatPost(post, now)
	for _, want := range []string{
		"@alice (2h ago) [ID: 0f8fad5b]",
		`"check this out"`,
		"```go",
		"Tags: #go #tips",
		"2 likes | 0 replies",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("formatted post missing %q:\n%s", want, got)
		}
	}
}

func TestFormatPostPlainText(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	post := types.Post{ID: "short", Username: "bob", Content: "plain", CreatedAt: now}

	got := formatPost(post, now)
	if strings.Contains(got, "```") || strings.Contains(got, "Tags:") {
		t.Fatalf("plain post should have no code fence or tags:\n%s", got)
	}
	if !strings.Contains(got, "[ID: short]") {
		t.Fatalf("short ids stay whole:\n%s", got)
	}
}

func TestFormatProfile(t *testing.T) {
	u := &types.User{
		Username:      "alice",
		PostCount:     3,
		FollowerCount: 1,
		CreatedAt:     time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	got := formatProfile(u)
	for _, want := range []string{"Profile: @alice", "Bio: No bio", "Posts: 3", "Joined: Jan 15, 2025"} {
		if !strings.Contains(got, want) {
			t.Fatalf("profile missing %q:\n%s", want, got)
		}
	}
}
