package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"nhbrepay/crypto"
)

const shortNameChars = 4

// Token describes a mint known to the operator.
type Token struct {
	Mint     string `toml:"Mint"`
	Symbol   string `toml:"Symbol"`
	Name     string `toml:"Name"`
	Decimals *uint8 `toml:"Decimals"`
}

type tokenFile struct {
	Tokens []Token `toml:"Token"`
}

// TokenRegistry resolves display names for mints.
type TokenRegistry struct {
	byMint map[string]Token
}

// NewTokenRegistry indexes tokens by mint, rejecting blanks and duplicates.
func NewTokenRegistry(tokens []Token) (*TokenRegistry, error) {
	registry := &TokenRegistry{byMint: make(map[string]Token, len(tokens))}
	for i, token := range tokens {
		token.Mint = strings.TrimSpace(token.Mint)
		token.Symbol = strings.TrimSpace(token.Symbol)
		token.Name = strings.TrimSpace(token.Name)
		if token.Mint == "" {
			return nil, fmt.Errorf("token %d: mint required", i)
		}
		if _, err := crypto.DecodeAddress(token.Mint); err != nil {
			return nil, fmt.Errorf("token %d: invalid mint %q: %w", i, token.Mint, err)
		}
		if token.Symbol == "" {
			return nil, fmt.Errorf("token %s: symbol required", token.Mint)
		}
		if _, exists := registry.byMint[token.Mint]; exists {
			return nil, fmt.Errorf("token %s: duplicate entry", token.Mint)
		}
		registry.byMint[token.Mint] = token
	}
	return registry, nil
}

// LoadTokens reads a TOML token list. A missing file yields an empty registry.
func LoadTokens(path string) (*TokenRegistry, error) {
	if strings.TrimSpace(path) == "" {
		return NewTokenRegistry(nil)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewTokenRegistry(nil)
	}
	var file tokenFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("decode token registry %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("token registry %s: unknown field %s", path, undecoded[0].String())
	}
	return NewTokenRegistry(file.Tokens)
}

// Lookup returns the registry entry for mint.
func (r *TokenRegistry) Lookup(mint string) (Token, bool) {
	if r == nil {
		return Token{}, false
	}
	token, ok := r.byMint[strings.TrimSpace(mint)]
	return token, ok
}

// Name returns the token symbol, or a shortened mint identifier when the mint
// is not registered.
func (r *TokenRegistry) Name(mint string) string {
	if token, ok := r.Lookup(mint); ok {
		return token.Symbol
	}
	return crypto.Shorten(strings.TrimSpace(mint), shortNameChars)
}

// Len reports the number of registered tokens.
func (r *TokenRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byMint)
}
