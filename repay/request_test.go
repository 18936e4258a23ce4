package repay

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"nhbrepay/native/lending"
	"nhbrepay/state/accounts"
)

func seedObligation(t *testing.T, cache *accounts.Cache) {
	t.Helper()
	owner := addr(9)
	add := func(id, kind, raw string) {
		_, err := cache.Add(id, kind, []byte(raw))
		require.NoError(t, err)
	}
	// Reserve addr(60) lends addr(52); the obligation token mint is addr(55).
	add(addr(52), lending.KindMint, fmt.Sprintf(`{"address":%q,"decimals":6}`, addr(52)))
	add(addr(70), lending.KindObligation, fmt.Sprintf(`{"address":%q,"owner":%q,"borrowReserve":%q,"borrowAmountWad":"2500000000000000000000000","tokenMint":%q}`,
		addr(70), owner, addr(60), addr(55)))
	add(addr(92), lending.KindTokenAccount, fmt.Sprintf(`{"address":%q,"mint":%q,"owner":%q,"amount":"7"}`, addr(92), addr(52), owner))
	add(addr(91), lending.KindTokenAccount, fmt.Sprintf(`{"address":%q,"mint":%q,"owner":%q,"amount":"3"}`, addr(91), addr(52), owner))
	add(addr(90), lending.KindTokenAccount, fmt.Sprintf(`{"address":%q,"mint":%q,"owner":%q,"amount":"1"}`, addr(90), addr(52), addr(8)))
	add(addr(93), lending.KindTokenAccount, fmt.Sprintf(`{"address":%q,"mint":%q,"owner":%q,"amount":"1"}`, addr(93), addr(55), owner))
}

func TestRequestForObligation(t *testing.T) {
	cache := seedCache(t)
	seedObligation(t, cache)
	resolver := NewResolver(cache, addr(9))
	repayReserve, ok := accounts.Lookup[*lending.Reserve](cache, addr(60))
	require.True(t, ok)
	selector := NewSelector(cache, repayReserve, nil)
	selector.Select(addr(61))

	req := resolver.Request(Target{Obligation: addr(70), Reserve: addr(62)}, selector)
	require.Equal(t, addr(70), req.Obligation.Address)
	require.Equal(t, addr(60), req.Reserve.Address, "obligation routes to its borrow reserve")
	require.Equal(t, addr(52), req.LiquidityMint.Address)
	first := addr(91)
	if addr(92) < first {
		first = addr(92)
	}
	require.Equal(t, first, req.Source.Address, "first owned account in identifier order")
	require.Equal(t, addr(93), req.ObligationAccount.Address)
	require.Equal(t, addr(61), req.Collateral.Address)

	require.InDelta(t, 2.5, resolver.Debt(Target{Obligation: addr(70)}), 1e-12)
}

func TestRequestForReserveOnly(t *testing.T) {
	cache := seedCache(t)
	seedObligation(t, cache)
	resolver := NewResolver(cache, addr(9))

	req := resolver.Request(Target{Reserve: addr(62)}, nil)
	require.Nil(t, req.Obligation)
	require.Nil(t, req.ObligationAccount)
	require.Equal(t, addr(62), req.Reserve.Address)
	require.Nil(t, req.Source, "wallet holds no liquidity token of the reserve")
	require.Nil(t, req.Collateral)
	require.Zero(t, resolver.Debt(Target{Reserve: addr(62)}))
}

func TestRequestWithNothingCached(t *testing.T) {
	cache := accounts.NewCache()
	cache.RegisterParsers(lending.Parsers())
	resolver := NewResolver(cache, addr(9))

	req := resolver.Request(Target{Obligation: addr(70)}, nil)
	require.Equal(t, Request{}, req)

	o := New(Config{Input: NewInput(0)})
	require.False(t, o.CanTrigger(req))
	_, err := o.Prepare(req)
	require.True(t, IsSilent(err))
}
