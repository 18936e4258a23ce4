package crypto

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcutil/bech32"
)

func TestDecodeAddressRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{0x42}, AddressLength)
	addr := NewAddress(NHBPrefix, raw)

	decoded, err := DecodeAddress(addr.String())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Prefix() != NHBPrefix {
		t.Fatalf("unexpected prefix %q", decoded.Prefix())
	}
	if !bytes.Equal(decoded.Bytes(), raw) {
		t.Fatalf("unexpected payload %x", decoded.Bytes())
	}
}

func TestDecodeAddressRejectsWrongLength(t *testing.T) {
	conv, err := bech32.ConvertBits(bytes.Repeat([]byte{0x01}, 8), 8, 5, true)
	if err != nil {
		t.Fatalf("convert bits: %v", err)
	}
	short, err := bech32.Encode(string(NHBPrefix), conv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeAddress(short); err == nil {
		t.Fatal("expected error for 8 byte payload")
	}
	if _, err := DecodeAddress("not-an-address"); err == nil {
		t.Fatal("expected error for malformed bech32")
	}
}

func TestShorten(t *testing.T) {
	addr := NewAddress(NHBPrefix, bytes.Repeat([]byte{0x01}, AddressLength)).String()
	short := Shorten(addr, 4)
	if short != addr[:4]+".."+addr[len(addr)-4:] {
		t.Fatalf("unexpected short form %q", short)
	}
	if got := Shorten("abc", 4); got != "abc" {
		t.Fatalf("short input should be unchanged, got %q", got)
	}
}

func TestSignRecoversAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	payload := []byte("repay 100")
	sig, err := key.Sign(payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	recovered, err := RecoverAddress(payload, sig)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if recovered.String() != key.PubKey().Address().String() {
		t.Fatalf("recovered %s, want %s", recovered, key.PubKey().Address())
	}
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "wallet", "key.json")
	if err := SaveToKeystore(path, key, "secret", LightScrypt); err != nil {
		t.Fatalf("save keystore: %v", err)
	}
	loaded, err := LoadFromKeystore(path, "secret")
	if err != nil {
		t.Fatalf("load keystore: %v", err)
	}
	if !bytes.Equal(loaded.Bytes(), key.Bytes()) {
		t.Fatal("loaded key does not match original")
	}
	if _, err := LoadFromKeystore(path, "wrong"); err == nil {
		t.Fatal("expected wrong passphrase to fail")
	}
}
