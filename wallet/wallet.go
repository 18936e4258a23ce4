// Package wallet holds the key that pays for repayments.
package wallet

import (
	"errors"
	"fmt"
	"strings"

	"nhbrepay/crypto"
)

var errLocked = errors.New("wallet: key not loaded")

// Wallet signs on behalf of a single account.
type Wallet struct {
	key     *crypto.PrivateKey
	address string
}

// Open decrypts the keystore at path.
func Open(path, passphrase string) (*Wallet, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("wallet: keystore path required")
	}
	key, err := crypto.LoadFromKeystore(path, passphrase)
	if err != nil {
		return nil, fmt.Errorf("wallet: open keystore: %w", err)
	}
	return FromKey(key), nil
}

// FromKey wraps an already loaded key.
func FromKey(key *crypto.PrivateKey) *Wallet {
	if key == nil {
		return &Wallet{}
	}
	return &Wallet{key: key, address: key.PubKey().Address().String()}
}

// Address returns the bech32 account address.
func (w *Wallet) Address() string {
	if w == nil {
		return ""
	}
	return w.address
}

// Sign signs payload with the wallet key.
func (w *Wallet) Sign(payload []byte) ([]byte, error) {
	if w == nil || w.key == nil {
		return nil, errLocked
	}
	return w.key.Sign(payload)
}
