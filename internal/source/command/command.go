// Package command implements source.Source by delegating the fetch to an
// external process, such as a helper script that talks to the board API.
//
// The process is invoked as `argv... <query> <page-limit>` with the
// credentials in TAGEVAL_USERNAME and TAGEVAL_API_TOKEN, and must print a
// JSON array of {"id", "tags", "is_up", "is_fav"} objects on stdout.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vijay-prabhu/tageval/internal/logging"
	"github.com/vijay-prabhu/tageval/internal/source"
)

// Environment variables carrying the credentials to the child process
const (
	EnvUsername = "TAGEVAL_USERNAME"
	EnvAPIToken = "TAGEVAL_API_TOKEN"
)

// Source runs an external command per fetch
type Source struct {
	argv []string
}

// New creates a command source; argv[0] is the program
func New(argv []string) (*Source, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("command source requires a program")
	}
	return &Source{argv: argv}, nil
}

// Name returns the transport identifier
func (s *Source) Name() string {
	return "command"
}

// Fetch runs the command and decodes its output
func (s *Source) Fetch(ctx context.Context, q source.Query) ([]source.RawPost, error) {
	args := append(append([]string{}, s.argv[1:]...), q.Tags, strconv.Itoa(q.Pages()))

	cmd := exec.CommandContext(ctx, s.argv[0], args...)
	cmd.Env = append(os.Environ(),
		EnvUsername+"="+q.Credentials.Username,
		EnvAPIToken+"="+q.Credentials.APIToken,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Debug().Str("program", s.argv[0]).Str("query", q.Tags).Msg("running fetch command")

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%w: %s: %w: %s", source.ErrFetch, s.argv[0], err, msg)
		}
		return nil, fmt.Errorf("%w: %s: %w", source.ErrFetch, s.argv[0], err)
	}

	var posts []source.RawPost
	if err := json.Unmarshal(stdout.Bytes(), &posts); err != nil {
		return nil, fmt.Errorf("%w: %s: decode output: %w", source.ErrFetch, s.argv[0], err)
	}
	if posts == nil {
		// "null" or an empty document is not a valid answer
		return nil, fmt.Errorf("%w: %s: output is not a JSON array", source.ErrFetch, s.argv[0])
	}

	return posts, nil
}
