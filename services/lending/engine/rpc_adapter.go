package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"nhbrepay/crypto"
	sdklending "nhbrepay/sdk/lending"
	"nhbrepay/services/lending/engine/rpcclient"
)

// Caller issues a single JSON-RPC call. *rpcclient.Client satisfies it.
type Caller interface {
	Call(ctx context.Context, method string, params any, result any) error
}

type rpcAdapter struct {
	client Caller
}

// NewRPCAdapter exposes a node's lending JSON-RPC namespace as an Engine.
func NewRPCAdapter(client Caller) Engine {
	return &rpcAdapter{client: client}
}

func (a *rpcAdapter) GetLendingMarket(ctx context.Context, id string) (json.RawMessage, error) {
	return a.getAccount(ctx, methodGetLendingMarket, id)
}

func (a *rpcAdapter) GetReserve(ctx context.Context, id string) (json.RawMessage, error) {
	return a.getAccount(ctx, methodGetReserve, id)
}

func (a *rpcAdapter) ListReserves(ctx context.Context, market string) ([]json.RawMessage, error) {
	return a.listAccounts(ctx, methodGetReserves, market)
}

func (a *rpcAdapter) GetObligation(ctx context.Context, id string) (json.RawMessage, error) {
	return a.getAccount(ctx, methodGetObligation, id)
}

func (a *rpcAdapter) GetMint(ctx context.Context, id string) (json.RawMessage, error) {
	return a.getAccount(ctx, methodGetMint, id)
}

func (a *rpcAdapter) ListTokenAccounts(ctx context.Context, owner string) ([]json.RawMessage, error) {
	return a.listAccounts(ctx, methodGetTokenAccounts, owner)
}

func (a *rpcAdapter) Repay(ctx context.Context, tx *sdklending.SignedMsgRepay) (RepayResult, error) {
	if err := ctx.Err(); err != nil {
		return RepayResult{}, err
	}
	if tx == nil || tx.Msg == nil {
		return RepayResult{}, fmt.Errorf("repay message required: %w", ErrInvalidAmount)
	}
	if _, err := parseAddress(tx.Msg.Payer); err != nil {
		return RepayResult{}, err
	}
	if _, err := parseAmount(tx.Msg.Amount); err != nil {
		return RepayResult{}, err
	}
	var result RepayResult
	if err := a.client.Call(ctx, methodRepay, []any{tx}, &result); err != nil {
		return RepayResult{}, translateRPCError(err)
	}
	if result.RequestID == "" {
		result.RequestID = tx.Msg.RequestID
	}
	return result, nil
}

func (a *rpcAdapter) getAccount(ctx context.Context, method, id string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	addr, err := parseAddress(id)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := a.client.Call(ctx, method, []string{addr}, &raw); err != nil {
		return nil, translateRPCError(err)
	}
	if isEmptyPayload(raw) {
		return nil, fmt.Errorf("%s %s: %w", strings.TrimPrefix(method, "lending_get"), addr, ErrNotFound)
	}
	return raw, nil
}

func (a *rpcAdapter) listAccounts(ctx context.Context, method, id string) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	addr, err := parseAddress(id)
	if err != nil {
		return nil, err
	}
	var raw []json.RawMessage
	if err := a.client.Call(ctx, method, []string{addr}, &raw); err != nil {
		return nil, translateRPCError(err)
	}
	out := raw[:0]
	for _, entry := range raw {
		if !isEmptyPayload(entry) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func isEmptyPayload(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

func parseAddress(addr string) (string, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return "", fmt.Errorf("address required: %w", ErrInvalidAddress)
	}
	if _, err := crypto.DecodeAddress(trimmed); err != nil {
		return "", fmt.Errorf("invalid address %q: %w", trimmed, ErrInvalidAddress)
	}
	return trimmed, nil
}

func parseAmount(amount string) (string, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return "", fmt.Errorf("amount required: %w", ErrInvalidAmount)
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("invalid amount: %w", ErrInvalidAmount)
		}
	}
	if strings.TrimLeft(trimmed, "0") == "" {
		return "", fmt.Errorf("amount must be positive: %w", ErrInvalidAmount)
	}
	return trimmed, nil
}

// translateRPCError maps transport and JSON-RPC failures onto the engine
// sentinels while keeping the node's message for display.
func translateRPCError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var httpErr *rpcclient.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, httpErr.Status)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrUnauthorized, httpErr.Status)
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return fmt.Errorf("%w: %s", ErrUnavailable, httpErr.Status)
		default:
			return fmt.Errorf("%w: %s", ErrInternal, httpErr.Status)
		}
	}
	var rpcErr *rpcclient.Error
	if !errors.As(err, &rpcErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	lower := strings.ToLower(rpcErr.Message)
	var sentinel error
	switch {
	case strings.Contains(lower, "not found"):
		sentinel = ErrNotFound
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "forbidden") || strings.Contains(lower, "signature"):
		sentinel = ErrUnauthorized
	case strings.Contains(lower, "paused"):
		sentinel = ErrPaused
	case strings.Contains(lower, "health") || strings.Contains(lower, "insufficient") || strings.Contains(lower, "no outstanding debt") || strings.Contains(lower, "not eligible"):
		sentinel = ErrInsufficientCollateral
	case strings.Contains(lower, "amount") || strings.Contains(lower, "invalid") || strings.Contains(lower, "positive"):
		sentinel = ErrInvalidAmount
	default:
		sentinel = ErrInternal
	}
	return fmt.Errorf("%w: %s", sentinel, rpcErr.Message)
}
