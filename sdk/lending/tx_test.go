package lending

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"nhbrepay/crypto"
)

func validAccounts() RepayAccounts {
	return RepayAccounts{
		Source:            "nhb1source",
		Obligation:        " nhb1obligation ",
		ObligationAccount: "nhb1obligationtokens",
		Reserve:           "nhb1reserve",
		CollateralReserve: "nhb1collateral",
	}
}

func TestNewMsgRepayNormalises(t *testing.T) {
	msg, err := NewMsgRepay(" nhb1payer ", validAccounts(), "000125")
	if err != nil {
		t.Fatalf("new msg: %v", err)
	}
	if msg.Payer != "nhb1payer" || msg.Obligation != "nhb1obligation" {
		t.Fatalf("fields not trimmed: %+v", msg)
	}
	if msg.Amount != "125" {
		t.Fatalf("expected normalised amount, got %q", msg.Amount)
	}
	if msg.RequestID == "" {
		t.Fatal("expected request id")
	}
	other, err := NewMsgRepay("nhb1payer", validAccounts(), "125")
	if err != nil {
		t.Fatalf("new msg: %v", err)
	}
	if other.RequestID == msg.RequestID {
		t.Fatal("request ids must be unique")
	}
}

func TestNewMsgRepayValidation(t *testing.T) {
	if _, err := NewMsgRepay("", validAccounts(), "1"); err == nil {
		t.Fatal("expected payer error")
	}
	accounts := validAccounts()
	accounts.CollateralReserve = "  "
	if _, err := NewMsgRepay("nhb1payer", accounts, "1"); err == nil || !strings.Contains(err.Error(), "collateral reserve") {
		t.Fatalf("expected collateral error, got %v", err)
	}
	for _, amount := range []string{"", "0", "-4", "1.5", "abc"} {
		if _, err := NewMsgRepay("nhb1payer", validAccounts(), amount); err == nil {
			t.Fatalf("amount %q should be rejected", amount)
		}
	}
}

func TestSignRoundTrip(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	payer := key.PubKey().Address().String()
	msg, err := NewMsgRepay(payer, validAccounts(), "42")
	if err != nil {
		t.Fatalf("new msg: %v", err)
	}
	signed, err := msg.Sign(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sig, err := signed.SignatureBytes()
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	payload, err := msg.SignBytes()
	if err != nil {
		t.Fatalf("sign bytes: %v", err)
	}
	recovered, err := crypto.RecoverAddress(payload, sig)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if !bytes.Equal(recovered.Bytes(), key.PubKey().Address().Bytes()) {
		t.Fatal("recovered signer mismatch")
	}
}

type failingSigner struct{}

func (failingSigner) Sign([]byte) ([]byte, error) { return nil, errors.New("locked") }

func TestSignErrors(t *testing.T) {
	msg, err := NewMsgRepay("nhb1payer", validAccounts(), "1")
	if err != nil {
		t.Fatalf("new msg: %v", err)
	}
	if _, err := msg.Sign(nil); !errors.Is(err, ErrMissingSigner) {
		t.Fatalf("expected ErrMissingSigner, got %v", err)
	}
	if _, err := msg.Sign(failingSigner{}); err == nil || !strings.Contains(err.Error(), "locked") {
		t.Fatalf("expected signer error, got %v", err)
	}
}
