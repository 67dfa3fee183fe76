package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"mercator-hq/keyport/pkg/security/secrets"
)

// ErrNoPassword is returned when no password source is available.
var ErrNoPassword = errors.New("no password available")

// PasswordSource reads passwords for keystore commands.
type PasswordSource struct {
	// In is read when it is not a terminal. Defaults to os.Stdin.
	In io.Reader

	// Prompt receives prompts. Defaults to os.Stderr.
	Prompt io.Writer

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	lines *bufio.Reader
}

// Read returns the value of envName when it is set. Otherwise it prompts with
// label and reads a line, without echo when In is a terminal.
func (s *PasswordSource) Read(label, envName string) (secrets.Value, error) {
	if envName != "" {
		lookup := s.LookupEnv
		if lookup == nil {
			lookup = os.LookupEnv
		}
		if v, ok := lookup(envName); ok {
			return secrets.NewValue(v), nil
		}
	}

	in := s.In
	if in == nil {
		in = os.Stdin
	}
	prompt := s.Prompt
	if prompt == nil {
		prompt = os.Stderr
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, label)
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		return secrets.Value(pw), nil
	}

	if s.lines == nil {
		s.lines = bufio.NewReader(in)
	}
	line, err := s.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return nil, fmt.Errorf("%s: %w", strings.TrimRight(label, ": "), ErrNoPassword)
		}
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return secrets.NewValue(strings.TrimRight(line, "\r\n")), nil
}
