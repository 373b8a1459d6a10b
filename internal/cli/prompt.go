package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/vijay-prabhu/tageval/internal/source"
)

// prompter reads answers from the user. Secrets are read without echo when
// input is a terminal.
type prompter struct {
	in      *bufio.Reader
	out     io.Writer
	inFd    int
	isInTTY bool
}

func newPrompter() *prompter {
	fd := int(os.Stdin.Fd())
	return &prompter{
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stderr,
		inFd:    fd,
		isInTTY: term.IsTerminal(fd),
	}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(s), nil
}

func (p *prompter) secret(label string) (string, error) {
	if !p.isInTTY {
		return p.line(label)
	}

	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(p.inFd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (p *prompter) confirm(question string) (bool, error) {
	answer, err := p.line(question + " [y/N]")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// credentials asks for a username and API token. A username passed in is
// used without asking.
func (p *prompter) credentials(username string) (source.Credentials, error) {
	var err error
	if username == "" {
		if username, err = p.line("Username"); err != nil {
			return source.Credentials{}, err
		}
	}
	if username == "" {
		return source.Credentials{}, errors.New("username is required")
	}

	token, err := p.secret("API token (leave empty for anonymous access)")
	if err != nil {
		return source.Credentials{}, err
	}

	return source.Credentials{Username: username, APIToken: token}, nil
}
