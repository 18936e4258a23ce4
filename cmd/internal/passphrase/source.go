package passphrase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Source lazily resolves a wallet keystore passphrase from an environment
// variable or by prompting on the terminal. The value is cached after the
// first successful retrieval.
type Source struct {
	envVar string
	label  string

	// overridable in tests
	stdin      *os.File
	prompt     io.Writer
	isTerminal func(fd int) bool
	readSecret func(fd int) ([]byte, error)

	once  sync.Once
	value string
	err   error
}

// NewSource constructs a passphrase source that checks envVar before
// prompting. label names the secret in prompts and errors.
func NewSource(envVar, label string) *Source {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "wallet keystore passphrase"
	}
	return &Source{
		envVar:     strings.TrimSpace(envVar),
		label:      label,
		stdin:      os.Stdin,
		prompt:     os.Stderr,
		isTerminal: term.IsTerminal,
		readSecret: term.ReadPassword,
	}
}

// Get returns the cached passphrase or resolves it if this is the first call.
// When the environment variable is set the exact value is used. Whitespace-only
// passphrases are rejected.
func (s *Source) Get() (string, error) {
	s.once.Do(func() {
		if s.envVar != "" {
			if value, ok := os.LookupEnv(s.envVar); ok {
				if strings.TrimSpace(value) == "" {
					s.err = fmt.Errorf("%s is set but empty", s.envVar)
					return
				}
				s.value = value
				return
			}
		}

		fd := int(s.stdin.Fd())
		if !s.isTerminal(fd) {
			if s.envVar != "" {
				s.err = fmt.Errorf("%s required; set %s or run interactively", s.label, s.envVar)
			} else {
				s.err = fmt.Errorf("%s required and no terminal available", s.label)
			}
			return
		}

		fmt.Fprintf(s.prompt, "Enter %s: ", s.label)
		bytes, err := s.readSecret(fd)
		fmt.Fprintln(s.prompt)
		if err != nil {
			s.err = fmt.Errorf("failed to read passphrase: %w", err)
			return
		}

		passphrase := string(bytes)
		if strings.TrimSpace(passphrase) == "" {
			s.err = errors.New(s.label + " cannot be empty")
			return
		}

		s.value = passphrase
	})

	return s.value, s.err
}
