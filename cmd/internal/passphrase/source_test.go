package passphrase

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestGetPrefersEnvironment(t *testing.T) {
	t.Setenv("NHB_REPAY_TEST_PASSPHRASE", "from-env")
	source := NewSource("NHB_REPAY_TEST_PASSPHRASE", "")
	source.isTerminal = func(int) bool {
		t.Fatal("terminal must not be consulted")
		return false
	}
	value, err := source.Get()
	if err != nil || value != "from-env" {
		t.Fatalf("unexpected result %q %v", value, err)
	}
}

func TestGetRejectsBlankEnvironment(t *testing.T) {
	t.Setenv("NHB_REPAY_TEST_PASSPHRASE", "   ")
	if _, err := NewSource("NHB_REPAY_TEST_PASSPHRASE", "").Get(); err == nil {
		t.Fatal("expected error for blank passphrase")
	}
}

func TestGetWithoutTerminal(t *testing.T) {
	source := NewSource("NHB_REPAY_TEST_UNSET_PASSPHRASE", "wallet passphrase")
	source.isTerminal = func(int) bool { return false }
	_, err := source.Get()
	if err == nil || !strings.Contains(err.Error(), "NHB_REPAY_TEST_UNSET_PASSPHRASE") {
		t.Fatalf("expected hint about env var, got %v", err)
	}
}

func TestGetPromptsOnceAndCaches(t *testing.T) {
	var prompt bytes.Buffer
	calls := 0
	source := NewSource("", "wallet passphrase")
	source.prompt = &prompt
	source.isTerminal = func(int) bool { return true }
	source.readSecret = func(int) ([]byte, error) {
		calls++
		return []byte("typed"), nil
	}
	for i := 0; i < 2; i++ {
		value, err := source.Get()
		if err != nil || value != "typed" {
			t.Fatalf("unexpected result %q %v", value, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one prompt, got %d", calls)
	}
	if !strings.Contains(prompt.String(), "Enter wallet passphrase") {
		t.Fatalf("unexpected prompt %q", prompt.String())
	}
}

func TestGetSurfacesReadErrors(t *testing.T) {
	source := NewSource("", "")
	source.prompt = &bytes.Buffer{}
	source.isTerminal = func(int) bool { return true }
	source.readSecret = func(int) ([]byte, error) { return nil, errors.New("eof") }
	if _, err := source.Get(); err == nil || !strings.Contains(err.Error(), "eof") {
		t.Fatalf("expected read error, got %v", err)
	}
}
