package engine

import (
	"context"
	"encoding/json"

	sdklending "nhbrepay/sdk/lending"
)

type fakeEngine struct {
	getLendingMarketFn  func(ctx context.Context, id string) (json.RawMessage, error)
	getReserveFn        func(ctx context.Context, id string) (json.RawMessage, error)
	listReservesFn      func(ctx context.Context, market string) ([]json.RawMessage, error)
	getObligationFn     func(ctx context.Context, id string) (json.RawMessage, error)
	getMintFn           func(ctx context.Context, id string) (json.RawMessage, error)
	listTokenAccountsFn func(ctx context.Context, owner string) ([]json.RawMessage, error)
	repayFn             func(ctx context.Context, tx *sdklending.SignedMsgRepay) (RepayResult, error)
}

func (f *fakeEngine) GetLendingMarket(ctx context.Context, id string) (json.RawMessage, error) {
	if f != nil && f.getLendingMarketFn != nil {
		return f.getLendingMarketFn(ctx, id)
	}
	return nil, ErrNotFound
}

func (f *fakeEngine) GetReserve(ctx context.Context, id string) (json.RawMessage, error) {
	if f != nil && f.getReserveFn != nil {
		return f.getReserveFn(ctx, id)
	}
	return nil, ErrNotFound
}

func (f *fakeEngine) ListReserves(ctx context.Context, market string) ([]json.RawMessage, error) {
	if f != nil && f.listReservesFn != nil {
		return f.listReservesFn(ctx, market)
	}
	return nil, nil
}

func (f *fakeEngine) GetObligation(ctx context.Context, id string) (json.RawMessage, error) {
	if f != nil && f.getObligationFn != nil {
		return f.getObligationFn(ctx, id)
	}
	return nil, ErrNotFound
}

func (f *fakeEngine) GetMint(ctx context.Context, id string) (json.RawMessage, error) {
	if f != nil && f.getMintFn != nil {
		return f.getMintFn(ctx, id)
	}
	return nil, ErrNotFound
}

func (f *fakeEngine) ListTokenAccounts(ctx context.Context, owner string) ([]json.RawMessage, error) {
	if f != nil && f.listTokenAccountsFn != nil {
		return f.listTokenAccountsFn(ctx, owner)
	}
	return nil, nil
}

func (f *fakeEngine) Repay(ctx context.Context, tx *sdklending.SignedMsgRepay) (RepayResult, error) {
	if f != nil && f.repayFn != nil {
		return f.repayFn(ctx, tx)
	}
	return RepayResult{}, nil
}

type fakeCaller struct {
	callFn func(ctx context.Context, method string, params any, result any) error
}

func (f *fakeCaller) Call(ctx context.Context, method string, params any, result any) error {
	if f != nil && f.callFn != nil {
		return f.callFn(ctx, method, params, result)
	}
	return nil
}
