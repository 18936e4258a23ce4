package lending

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"nhbrepay/crypto"
)

var errEmptyPayload = errors.New("lending: empty account payload")

type marketJSON struct {
	Address   string `json:"address"`
	QuoteMint string `json:"quoteMint"`
}

type reserveJSON struct {
	Address                 string `json:"address"`
	LendingMarket           string `json:"lendingMarket"`
	LiquidityMint           string `json:"liquidityMint"`
	LiquiditySupply         string `json:"liquiditySupply,omitempty"`
	CollateralMint          string `json:"collateralMint"`
	CollateralSupply        string `json:"collateralSupply,omitempty"`
	AvailableLiquidity      string `json:"availableLiquidity,omitempty"`
	BorrowedLiquidityWad    string `json:"borrowedLiquidityWad,omitempty"`
	CumulativeBorrowRateWad string `json:"cumulativeBorrowRateWad,omitempty"`
}

type obligationJSON struct {
	Address             string `json:"address"`
	Owner               string `json:"owner"`
	BorrowReserve       string `json:"borrowReserve"`
	CollateralReserve   string `json:"collateralReserve,omitempty"`
	BorrowAmountWad     string `json:"borrowAmountWad"`
	DepositedCollateral string `json:"depositedCollateral,omitempty"`
	TokenMint           string `json:"tokenMint"`
}

type mintJSON struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Supply   string `json:"supply,omitempty"`
}

type tokenAccountJSON struct {
	Address string `json:"address"`
	Mint    string `json:"mint"`
	Owner   string `json:"owner"`
	Amount  string `json:"amount"`
}

// Parsers returns the decoders for every account kind, keyed by kind. The
// account cache registers them so raw RPC payloads can be parsed lazily.
func Parsers() map[string]func([]byte) (any, error) {
	return map[string]func([]byte) (any, error){
		KindLendingMarket: func(raw []byte) (any, error) { return ParseLendingMarket(raw) },
		KindReserve:       func(raw []byte) (any, error) { return ParseReserve(raw) },
		KindObligation:    func(raw []byte) (any, error) { return ParseObligation(raw) },
		KindMint:          func(raw []byte) (any, error) { return ParseMint(raw) },
		KindTokenAccount:  func(raw []byte) (any, error) { return ParseTokenAccount(raw) },
	}
}

// ParseLendingMarket decodes a lending market account payload.
func ParseLendingMarket(raw []byte) (*LendingMarket, error) {
	var payload marketJSON
	if err := decode(raw, &payload); err != nil {
		return nil, err
	}
	address, err := requireAddress("address", payload.Address)
	if err != nil {
		return nil, err
	}
	quote, err := requireAddress("quoteMint", payload.QuoteMint)
	if err != nil {
		return nil, err
	}
	return &LendingMarket{Address: address, QuoteMint: quote}, nil
}

// ParseReserve decodes a reserve account payload.
func ParseReserve(raw []byte) (*Reserve, error) {
	var payload reserveJSON
	if err := decode(raw, &payload); err != nil {
		return nil, err
	}
	reserve := &Reserve{}
	var err error
	if reserve.Address, err = requireAddress("address", payload.Address); err != nil {
		return nil, err
	}
	if reserve.LendingMarket, err = requireAddress("lendingMarket", payload.LendingMarket); err != nil {
		return nil, err
	}
	if reserve.LiquidityMint, err = requireAddress("liquidityMint", payload.LiquidityMint); err != nil {
		return nil, err
	}
	if reserve.CollateralMint, err = requireAddress("collateralMint", payload.CollateralMint); err != nil {
		return nil, err
	}
	reserve.LiquiditySupply = strings.TrimSpace(payload.LiquiditySupply)
	reserve.CollateralSupply = strings.TrimSpace(payload.CollateralSupply)
	if reserve.AvailableLiquidity, err = parseAmount("availableLiquidity", payload.AvailableLiquidity); err != nil {
		return nil, err
	}
	if reserve.BorrowedLiquidityWad, err = parseAmount("borrowedLiquidityWad", payload.BorrowedLiquidityWad); err != nil {
		return nil, err
	}
	if reserve.CumulativeBorrowRateWad, err = parseAmount("cumulativeBorrowRateWad", payload.CumulativeBorrowRateWad); err != nil {
		return nil, err
	}
	return reserve, nil
}

// ParseObligation decodes an obligation account payload.
func ParseObligation(raw []byte) (*Obligation, error) {
	var payload obligationJSON
	if err := decode(raw, &payload); err != nil {
		return nil, err
	}
	obligation := &Obligation{CollateralReserve: strings.TrimSpace(payload.CollateralReserve)}
	var err error
	if obligation.Address, err = requireAddress("address", payload.Address); err != nil {
		return nil, err
	}
	if obligation.Owner, err = requireAddress("owner", payload.Owner); err != nil {
		return nil, err
	}
	if obligation.BorrowReserve, err = requireAddress("borrowReserve", payload.BorrowReserve); err != nil {
		return nil, err
	}
	if obligation.TokenMint, err = requireAddress("tokenMint", payload.TokenMint); err != nil {
		return nil, err
	}
	if obligation.BorrowAmountWad, err = parseAmount("borrowAmountWad", payload.BorrowAmountWad); err != nil {
		return nil, err
	}
	if obligation.DepositedCollateral, err = parseAmount("depositedCollateral", payload.DepositedCollateral); err != nil {
		return nil, err
	}
	return obligation, nil
}

// ParseMint decodes a mint account payload.
func ParseMint(raw []byte) (*Mint, error) {
	var payload mintJSON
	if err := decode(raw, &payload); err != nil {
		return nil, err
	}
	address, err := requireAddress("address", payload.Address)
	if err != nil {
		return nil, err
	}
	supply, err := parseAmount("supply", payload.Supply)
	if err != nil {
		return nil, err
	}
	return &Mint{Address: address, Decimals: payload.Decimals, Supply: supply}, nil
}

// ParseTokenAccount decodes a wallet token account payload.
func ParseTokenAccount(raw []byte) (*TokenAccount, error) {
	var payload tokenAccountJSON
	if err := decode(raw, &payload); err != nil {
		return nil, err
	}
	account := &TokenAccount{}
	var err error
	if account.Address, err = requireAddress("address", payload.Address); err != nil {
		return nil, err
	}
	if account.Mint, err = requireAddress("mint", payload.Mint); err != nil {
		return nil, err
	}
	if account.Owner, err = requireAddress("owner", payload.Owner); err != nil {
		return nil, err
	}
	if account.Amount, err = parseAmount("amount", payload.Amount); err != nil {
		return nil, err
	}
	return account, nil
}

// AddressOf extracts the "address" field from any account payload without
// parsing the remaining fields.
func AddressOf(raw []byte) (string, error) {
	var payload struct {
		Address string `json:"address"`
	}
	if err := decode(raw, &payload); err != nil {
		return "", err
	}
	return requireAddress("address", payload.Address)
}

func decode(raw []byte, out any) error {
	if len(raw) == 0 {
		return errEmptyPayload
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("lending: decode account: %w", err)
	}
	return nil
}

func requireAddress(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("lending: %s required", field)
	}
	if _, err := crypto.DecodeAddress(trimmed); err != nil {
		return "", fmt.Errorf("lending: invalid %s: %w", field, err)
	}
	return trimmed, nil
}

func parseAmount(field, value string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return new(uint256.Int), nil
	}
	parsed, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("lending: invalid %s: %w", field, err)
	}
	return parsed, nil
}
