package command

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/vijay-prabhu/tageval/internal/source"
)

func shell(t *testing.T, script string) *Source {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	s, err := New([]string{"sh", "-c", script, "fetch"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestNewRequiresProgram(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for empty argv")
	}
	if _, err := New([]string{""}); err == nil {
		t.Error("expected error for empty program")
	}
}

func TestFetchDecodesOutput(t *testing.T) {
	s := shell(t, `echo '[{"id":1,"tags":["fox","blue"],"is_up":true,"is_fav":false},{"id":2,"tags":[],"is_up":false,"is_fav":true}]'`)

	posts, err := s.Fetch(context.Background(), source.Query{Tags: "fav:alice"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(posts))
	}
	if posts[0].ID != 1 || !posts[0].IsUpvoted || len(posts[0].Tags) != 2 {
		t.Errorf("posts[0] = %+v", posts[0])
	}
	if posts[1].ID != 2 || !posts[1].IsFavorited {
		t.Errorf("posts[1] = %+v", posts[1])
	}
}

func TestFetchPassesQueryAndCredentials(t *testing.T) {
	// Echo back the arguments and environment as tags of one post
	s := shell(t, `printf '[{"id":1,"tags":["%s","%s","%s","%s"]}]' "$1" "$2" "$TAGEVAL_USERNAME" "$TAGEVAL_API_TOKEN"`)

	posts, err := s.Fetch(context.Background(), source.Query{
		Tags:        "votedup:alice",
		PageLimit:   7,
		Credentials: source.Credentials{Username: "alice", APIToken: "secret"},
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	want := []string{"votedup:alice", "7", "alice", "secret"}
	got := posts[0].Tags
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{name: "non-zero exit", script: `echo "bad token" >&2; exit 3`},
		{name: "invalid json", script: `echo '{not json'`},
		{name: "null output", script: `echo null`},
		{name: "empty output", script: `true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := shell(t, tt.script)
			posts, err := s.Fetch(context.Background(), source.Query{Tags: "fox"})
			if !errors.Is(err, source.ErrFetch) {
				t.Errorf("expected ErrFetch, got %v", err)
			}
			if posts != nil {
				t.Errorf("expected nil posts, got %v", posts)
			}
		})
	}
}
