package repay

import (
	"fmt"
	"testing"

	"nhbrepay/native/lending"
	"nhbrepay/state/accounts"
)

type mapNamer map[string]string

func (m mapNamer) Name(mint string) string { return m[mint] }

func reservePayload(id, market, liquidityMint string) []byte {
	return []byte(fmt.Sprintf(`{"address":%q,"lendingMarket":%q,"liquidityMint":%q,"collateralMint":%q}`,
		id, market, liquidityMint, addr(99)))
}

func seedCache(t *testing.T) *accounts.Cache {
	t.Helper()
	cache := accounts.NewCache()
	cache.RegisterParsers(lending.Parsers())

	market, quote, other := addr(50), addr(51), addr(52)
	mustAdd := func(id, kind string, raw []byte) {
		if _, err := cache.Add(id, kind, raw); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	mustAdd(market, lending.KindLendingMarket, []byte(fmt.Sprintf(`{"address":%q,"quoteMint":%q}`, market, quote)))
	mustAdd(addr(60), lending.KindReserve, reservePayload(addr(60), market, other))
	mustAdd(addr(61), lending.KindReserve, reservePayload(addr(61), market, quote))
	mustAdd(addr(62), lending.KindReserve, reservePayload(addr(62), market, addr(53)))
	mustAdd(addr(63), lending.KindReserve, reservePayload(addr(63), addr(54), quote))
	mustAdd(addr(64), lending.KindReserve, reservePayload(addr(64), market, quote))
	return cache
}

func TestOptionsForNonQuoteDebtOfferQuoteReserves(t *testing.T) {
	cache := seedCache(t)
	repayReserve, _ := accounts.Lookup[*lending.Reserve](cache, addr(60))
	selector := NewSelector(cache, repayReserve, mapNamer{addr(51): "USDN"})

	options := selector.Options()
	if len(options) != 2 {
		t.Fatalf("expected two quote reserves, got %d", len(options))
	}
	for _, option := range options {
		if option.Reserve.LiquidityMint != addr(51) {
			t.Fatalf("non-quote reserve offered: %s", option.Reserve.Address)
		}
		if option.Label != "USDN" {
			t.Fatalf("unexpected label %q", option.Label)
		}
	}
}

func TestOptionsForQuoteDebtOfferSameMarket(t *testing.T) {
	cache := seedCache(t)
	repayReserve, _ := accounts.Lookup[*lending.Reserve](cache, addr(61))
	selector := NewSelector(cache, repayReserve, nil)

	got := map[string]bool{}
	for _, option := range selector.Options() {
		got[option.Reserve.Address] = true
	}
	if got[addr(61)] {
		t.Fatal("repay reserve must not back itself")
	}
	if got[addr(63)] {
		t.Fatal("reserve from another market offered")
	}
	for _, want := range []string{addr(60), addr(62), addr(64)} {
		if !got[want] {
			t.Fatalf("expected %s to be offered", want)
		}
	}
}

func TestResolveSelection(t *testing.T) {
	cache := seedCache(t)
	repayReserve, _ := accounts.Lookup[*lending.Reserve](cache, addr(60))
	selector := NewSelector(cache, repayReserve, nil)

	if _, ok := selector.Resolve(); ok {
		t.Fatal("nothing selected should resolve absent")
	}
	selector.Select(addr(61))
	reserve, ok := selector.Resolve()
	if !ok || reserve.Address != addr(61) {
		t.Fatalf("expected selected reserve, got %v %v", reserve, ok)
	}

	selector.Select(addr(70))
	if _, ok := selector.Resolve(); ok {
		t.Fatal("unloaded reserve should resolve absent")
	}
	selector.Select(addr(50))
	if _, ok := selector.Resolve(); ok {
		t.Fatal("non-reserve account should resolve absent")
	}
	selector.Select("")
	if selector.Selected() != "" {
		t.Fatal("expected selection to clear")
	}
}
