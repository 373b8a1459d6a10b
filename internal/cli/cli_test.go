package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vijay-prabhu/tageval/internal/config"
	"github.com/vijay-prabhu/tageval/internal/database"
	"github.com/vijay-prabhu/tageval/internal/profile"
	"github.com/vijay-prabhu/tageval/internal/source"
)

func TestNeedsNewProfile(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{database.ErrNoProfile, true},
		{fmt.Errorf("load: %w", profile.ErrCorruptProfile), true},
		{fmt.Errorf("%w: path", config.ErrMissingCredentials), true},
		{source.ErrFetch, false},
		{errors.New("disk full"), false},
	}

	for _, tt := range tests {
		if got := needsNewProfile(tt.err); got != tt.want {
			t.Errorf("needsNewProfile(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestNonInteractiveCredentials(t *testing.T) {
	t.Setenv(config.EnvUsername, "")
	t.Setenv(config.EnvAPIToken, "tok")

	if _, err := nonInteractiveCredentials(""); !errors.Is(err, config.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}

	creds, err := nonInteractiveCredentials("alice")
	if err != nil {
		t.Fatalf("nonInteractiveCredentials failed: %v", err)
	}
	if creds != (source.Credentials{Username: "alice", APIToken: "tok"}) {
		t.Errorf("creds = %+v", creds)
	}

	t.Setenv(config.EnvUsername, "bob")
	creds, err = nonInteractiveCredentials("")
	if err != nil {
		t.Fatalf("nonInteractiveCredentials failed: %v", err)
	}
	if creds.Username != "bob" {
		t.Errorf("Username = %q, want bob", creds.Username)
	}
}

func TestNewSource(t *testing.T) {
	term := &Terminal{out: &bytes.Buffer{}}

	cfg := config.Default()
	src, err := newSource(cfg, term)
	if err != nil {
		t.Fatalf("newSource failed: %v", err)
	}
	if src.Name() != "e621" {
		t.Errorf("Name() = %q, want e621", src.Name())
	}

	cfg.Source.Kind = config.SourceCommand
	cfg.Source.Command = []string{"sh", "fetch.sh"}
	src, err = newSource(cfg, term)
	if err != nil {
		t.Fatalf("newSource failed: %v", err)
	}
	if src.Name() != "command" {
		t.Errorf("Name() = %q, want command", src.Name())
	}

	cfg.Source.Kind = "ftp"
	if _, err := newSource(cfg, term); err == nil {
		t.Error("expected error for unknown source kind")
	}
}

func TestPageProgress(t *testing.T) {
	var buf bytes.Buffer
	term := &Terminal{out: &buf}

	term.PageProgress(source.Progress{Page: 3, Limit: 32})
	term.PageProgress(source.Progress{Query: "fav:alice", Page: 12, Limit: 255})
	term.Done()

	want := "Fetching page 003 (limit 32)\nfav:alice: Fetching page 012 (limit 255)\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

const fetchScript = `#!/bin/sh
case "$1" in
  voteddown:*) echo '[{"id": 1, "tags": ["blue"]}]' ;;
  votedup:*)   echo '[{"id": 2, "tags": ["fox"], "is_up": true}]' ;;
  fav:*)       echo '[{"id": 3, "tags": ["fox", "solo"], "is_fav": true}]' ;;
  *)           echo '[{"id": 10, "tags": ["blue"]}, {"id": 11, "tags": ["fox"]}, {"id": 12, "tags": []}]' ;;
esac
`

// setupWorkspace writes a config using a scripted command source and
// returns the config path and database path
func setupWorkspace(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	script := filepath.Join(dir, "fetch.sh")
	if err := os.WriteFile(script, []byte(fetchScript), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	dbPath := filepath.Join(dir, "data", "tageval.db")
	cfgPath := filepath.Join(dir, "config.toml")
	cfgData := fmt.Sprintf(`
[database]
path = %q

[credentials]
path = %q

[source]
kind = "command"
command = ["sh", %q]

[logging]
level = "error"
`, dbPath, filepath.Join(dir, "credentials.toml"), script)

	if err := os.WriteFile(cfgPath, []byte(cfgData), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	// Keep prompts out of the way
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatalf("failed to open %s: %v", os.DevNull, err)
	}
	stdin := os.Stdin
	os.Stdin = devNull
	t.Cleanup(func() {
		os.Stdin = stdin
		devNull.Close()
	})

	t.Setenv(config.EnvUsername, "alice")
	t.Setenv(config.EnvAPIToken, "")

	return cfgPath, dbPath
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return Execute(context.Background())
}

// resetFlags restores every flag to its default. Cobra keeps flag values
// between executions of the same command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// replaceScript swaps the fetch script of a workspace
func replaceScript(t *testing.T, cfgPath, script string) {
	t.Helper()
	path := filepath.Join(filepath.Dir(cfgPath), "fetch.sh")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
}

// profileInfo reads the saved profile summary
func profileInfo(t *testing.T, dbPath string) *database.ProfileInfo {
	t.Helper()

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	info, err := db.GetProfileInfo(context.Background())
	if err != nil {
		t.Fatalf("GetProfileInfo failed: %v", err)
	}
	return info
}

// cachedPosts reads the raw posts kept for offline rebuilds
func cachedPosts(t *testing.T, dbPath string) []source.RawPost {
	t.Helper()

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	posts, err := db.LoadRawPosts(context.Background())
	if err != nil {
		t.Fatalf("LoadRawPosts failed: %v", err)
	}
	return posts
}

func TestCommandsEndToEnd(t *testing.T) {
	cfgPath, dbPath := setupWorkspace(t)
	snapshotPath := filepath.Join(filepath.Dir(cfgPath), "profile.json")

	// Without a profile and without a terminal the command fails
	err := run(t, "update", "--config", cfgPath, "-o", "json")
	if !errors.Is(err, database.ErrNoProfile) {
		t.Fatalf("update without profile error = %v, want ErrNoProfile", err)
	}

	steps := [][]string{
		{"init", "--config", cfgPath},
		{"update", "--config", cfgPath, "-o", "json"},
		{"search", "--config", cfgPath, "-o", "json", "wolf"},
		{"tags", "--config", cfgPath, "-o", "json"},
		{"stats", "--config", cfgPath, "-o", "json"},
		{"history", "--config", cfgPath, "-o", "json"},
		{"export", "--config", cfgPath, snapshotPath},
		{"import", "--config", cfgPath, snapshotPath},
	}
	for _, args := range steps {
		if err := run(t, args...); err != nil {
			t.Fatalf("%s failed: %v", args[0], err)
		}
	}

	if err := run(t, "init", "--config", cfgPath); err == nil {
		t.Error("expected init to refuse replacing an existing profile")
	}

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	info, err := db.GetProfileInfo(ctx)
	if err != nil {
		t.Fatalf("GetProfileInfo failed: %v", err)
	}
	if info.Reactions != 3 || info.Tags != 3 {
		t.Errorf("profile = %+v, want 3 reactions and 3 tags", info)
	}

	searches, err := db.ListSearches(ctx, 0)
	if err != nil {
		t.Fatalf("ListSearches failed: %v", err)
	}
	if len(searches) != 1 || searches[0].Query != "wolf" {
		t.Fatalf("searches = %+v, want one search for wolf", searches)
	}

	results, err := db.GetSearchResults(ctx, searches[0].ID)
	if err != nil {
		t.Fatalf("GetSearchResults failed: %v", err)
	}
	var order []uint32
	for _, r := range results {
		order = append(order, r.PostID)
	}
	if fmt.Sprint(order) != "[11 12 10]" {
		t.Errorf("ranking = %v, want [11 12 10]", order)
	}

	if err := run(t, "history", "--config", cfgPath, "-o", "json", searches[0].ID[:8]); err != nil {
		t.Errorf("history for one search failed: %v", err)
	}
}

const failingFavScript = `#!/bin/sh
case "$1" in
  voteddown:*) echo '[{"id": 1, "tags": ["blue"]}]' ;;
  votedup:*)   echo '[{"id": 2, "tags": ["fox"], "is_up": true}]' ;;
  fav:*)       echo boom >&2; exit 1 ;;
esac
`

const failingScript = `#!/bin/sh
echo offline >&2
exit 1
`

func TestUpdateFetchErrorKeepsProfile(t *testing.T) {
	cfgPath, dbPath := setupWorkspace(t)

	for _, args := range [][]string{
		{"init", "--config", cfgPath},
		{"update", "--config", cfgPath, "-o", "json"},
	} {
		if err := run(t, args...); err != nil {
			t.Fatalf("%s failed: %v", args[0], err)
		}
	}

	replaceScript(t, cfgPath, failingFavScript)

	err := run(t, "update", "--config", cfgPath, "-o", "json")
	if !errors.Is(err, source.ErrFetch) {
		t.Fatalf("update error = %v, want ErrFetch", err)
	}

	info := profileInfo(t, dbPath)
	if info.Reactions != 3 || info.Tags != 3 {
		t.Errorf("profile = %+v, want 3 reactions and 3 tags", info)
	}
	if got := len(cachedPosts(t, dbPath)); got != 3 {
		t.Errorf("cached posts = %d, want 3", got)
	}
}

func TestUpdateOffline(t *testing.T) {
	cfgPath, dbPath := setupWorkspace(t)

	if err := run(t, "init", "--config", cfgPath); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	// Nothing cached before the first online update
	err := run(t, "update", "--config", cfgPath, "--offline", "-o", "json")
	if !errors.Is(err, profile.ErrEmptyDump) {
		t.Fatalf("offline update error = %v, want ErrEmptyDump", err)
	}

	if err := run(t, "update", "--config", cfgPath, "-o", "json"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	want := []source.RawPost{
		{ID: 1, Tags: []string{"blue"}},
		{ID: 2, Tags: []string{"fox"}, IsUpvoted: true},
		{ID: 3, Tags: []string{"fox", "solo"}, IsFavorited: true},
	}
	if got := cachedPosts(t, dbPath); !reflect.DeepEqual(got, want) {
		t.Errorf("cached posts = %+v, want %+v", got, want)
	}

	// The rebuild must not touch the source
	replaceScript(t, cfgPath, failingScript)

	if err := run(t, "update", "--config", cfgPath, "--offline", "-o", "json"); err != nil {
		t.Fatalf("offline update failed: %v", err)
	}
	if info := profileInfo(t, dbPath); info.Reactions != 3 || info.Tags != 3 {
		t.Errorf("profile = %+v, want 3 reactions and 3 tags", info)
	}

	dumpPath := filepath.Join(filepath.Dir(cfgPath), "posts.json")
	dump := `[
  {"id": 5, "tags": ["cat"], "is_up": false, "is_fav": true, "rating": "s"},
  {"id": 6, "tags": ["dog"], "is_up": false, "is_fav": false}
]`
	if err := os.WriteFile(dumpPath, []byte(dump), 0644); err != nil {
		t.Fatalf("failed to write dump: %v", err)
	}

	if err := run(t, "update", "--config", cfgPath, "--from", dumpPath, "-o", "json"); err != nil {
		t.Fatalf("update from dump failed: %v", err)
	}

	// The vocabulary keeps the tags seen before
	if info := profileInfo(t, dbPath); info.Reactions != 2 || info.Tags != 5 {
		t.Errorf("profile = %+v, want 2 reactions and 5 tags", info)
	}
	cached := cachedPosts(t, dbPath)
	if len(cached) != 2 || !cached[0].IsFavorited || cached[1].IsFavorited {
		t.Errorf("cached posts = %+v, want the dump", cached)
	}

	if err := run(t, "update", "--config", cfgPath, "--offline", "--from", dumpPath); err == nil {
		t.Error("expected --offline and --from to be rejected together")
	}
	if err := run(t, "update", "--config", cfgPath, "--from", filepath.Join(filepath.Dir(cfgPath), "missing.json")); err == nil {
		t.Error("expected error for a missing dump file")
	}
}
