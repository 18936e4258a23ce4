package lending

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
)

// ErrMissingSigner is returned when a message is signed without a signer.
var ErrMissingSigner = errors.New("lending: signer required")

// ensurePositiveAmount parses and validates that the provided string represents a
// strictly positive integer. Amounts are encoded as base-10 strings so integer
// token units survive JSON transport without precision loss.
func ensurePositiveAmount(label, amount string) (string, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return "", fmt.Errorf("%s amount required", label)
	}
	parsed, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || parsed.Sign() <= 0 {
		return "", fmt.Errorf("%s amount must be a positive integer", label)
	}
	return parsed.String(), nil
}

// RepayAccounts names the accounts a repay instruction touches.
type RepayAccounts struct {
	Source            string
	Obligation        string
	ObligationAccount string
	Reserve           string
	CollateralReserve string
}

// MsgRepay is the repay instruction submitted to lending_repay.
type MsgRepay struct {
	// RequestID makes resubmission of the same instruction idempotent.
	RequestID         string `json:"requestId"`
	Payer             string `json:"payer"`
	Source            string `json:"source"`
	Obligation        string `json:"obligation"`
	ObligationAccount string `json:"obligationAccount"`
	Reserve           string `json:"reserve"`
	CollateralReserve string `json:"collateralReserve"`
	Amount            string `json:"amount"`
}

// NewMsgRepay validates the inputs for a repay instruction and assigns a fresh
// request id.
func NewMsgRepay(payer string, accounts RepayAccounts, amount string) (*MsgRepay, error) {
	trimmedPayer := strings.TrimSpace(payer)
	if trimmedPayer == "" {
		return nil, fmt.Errorf("payer address required")
	}
	fields := []struct {
		label string
		value *string
	}{
		{"source account", &accounts.Source},
		{"obligation", &accounts.Obligation},
		{"obligation token account", &accounts.ObligationAccount},
		{"repay reserve", &accounts.Reserve},
		{"collateral reserve", &accounts.CollateralReserve},
	}
	for _, field := range fields {
		*field.value = strings.TrimSpace(*field.value)
		if *field.value == "" {
			return nil, fmt.Errorf("%s required", field.label)
		}
	}
	normalizedAmount, err := ensurePositiveAmount("repay", amount)
	if err != nil {
		return nil, err
	}
	return &MsgRepay{
		RequestID:         uuid.NewString(),
		Payer:             trimmedPayer,
		Source:            accounts.Source,
		Obligation:        accounts.Obligation,
		ObligationAccount: accounts.ObligationAccount,
		Reserve:           accounts.Reserve,
		CollateralReserve: accounts.CollateralReserve,
		Amount:            normalizedAmount,
	}, nil
}

// SignBytes returns the canonical encoding covered by the payer's signature.
func (m *MsgRepay) SignBytes() ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("repay message required")
	}
	payload := struct {
		Type string    `json:"type"`
		Msg  *MsgRepay `json:"msg"`
	}{Type: "lending/MsgRepay", Msg: m}
	return json.Marshal(payload)
}

// Signer produces a signature over arbitrary bytes.
type Signer interface {
	Sign(payload []byte) ([]byte, error)
}

// SignedMsgRepay pairs a repay instruction with the payer's signature.
type SignedMsgRepay struct {
	Msg       *MsgRepay `json:"msg"`
	Signature string    `json:"signature"`
}

// Sign signs m with signer.
func (m *MsgRepay) Sign(signer Signer) (*SignedMsgRepay, error) {
	if signer == nil {
		return nil, ErrMissingSigner
	}
	payload, err := m.SignBytes()
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("sign repay: %w", err)
	}
	return &SignedMsgRepay{Msg: m, Signature: hexutil.Encode(sig)}, nil
}

// SignatureBytes decodes the hex signature.
func (s *SignedMsgRepay) SignatureBytes() ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("signed message required")
	}
	return hexutil.Decode(s.Signature)
}
