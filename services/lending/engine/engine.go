package engine

import (
	"context"
	"encoding/json"

	sdklending "nhbrepay/sdk/lending"
)

// Engine describes the node lending surface the repay client depends on.
// Account reads return the raw JSON payload so callers can hand it to the
// account cache, which owns decoding.
type Engine interface {
	GetLendingMarket(ctx context.Context, id string) (json.RawMessage, error)
	GetReserve(ctx context.Context, id string) (json.RawMessage, error)
	ListReserves(ctx context.Context, market string) ([]json.RawMessage, error)
	GetObligation(ctx context.Context, id string) (json.RawMessage, error)
	GetMint(ctx context.Context, id string) (json.RawMessage, error)
	ListTokenAccounts(ctx context.Context, owner string) ([]json.RawMessage, error)
	Repay(ctx context.Context, tx *sdklending.SignedMsgRepay) (RepayResult, error)
}

// RepayResult mirrors the payload returned by lending_repay.
type RepayResult struct {
	TxHash    string `json:"txHash"`
	RequestID string `json:"requestId"`
}

const (
	methodGetLendingMarket = "lending_getLendingMarket"
	methodGetReserve       = "lending_getReserve"
	methodGetReserves      = "lending_getReserves"
	methodGetObligation    = "lending_getObligation"
	methodGetMint          = "lending_getMint"
	methodGetTokenAccounts = "lending_getTokenAccounts"
	methodRepay            = "lending_repay"
)
