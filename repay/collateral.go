package repay

import (
	"strings"

	"nhbrepay/native/lending"
	"nhbrepay/state/accounts"
)

// CollateralOption is one reserve the user may credit on repayment.
type CollateralOption struct {
	Reserve *lending.Reserve
	// Label is the display name of the reserve's liquidity token.
	Label string
}

// TokenNamer resolves a display name for a mint.
type TokenNamer interface {
	Name(mint string) string
}

// Selector lets the user pick the collateral reserve backing a repayment.
// It only records an identifier; the reserve itself is resolved through the
// account cache on demand so a reserve that has not been loaded yet simply
// resolves absent.
type Selector struct {
	cache    *accounts.Cache
	repay    *lending.Reserve
	namer    TokenNamer
	selected string
}

// NewSelector builds a selector for repayments into the given reserve.
func NewSelector(cache *accounts.Cache, repayReserve *lending.Reserve, namer TokenNamer) *Selector {
	return &Selector{cache: cache, repay: repayReserve, namer: namer}
}

// Options lists the reserves of the repay reserve's market that may back the
// repayment. The repay reserve itself is excluded. When the repay reserve does
// not lend the market's quote token only quote-token reserves are offered.
func (s *Selector) Options() []CollateralOption {
	if s == nil || s.cache == nil || s.repay == nil {
		return nil
	}
	market, _ := accounts.Lookup[*lending.LendingMarket](s.cache, s.repay.LendingMarket)
	onlyQuote := market != nil && s.repay.LiquidityMint != market.QuoteMint

	reserves := accounts.All[*lending.Reserve](s.cache, lending.KindReserve)
	options := make([]CollateralOption, 0, len(reserves))
	for _, reserve := range reserves {
		if reserve.Address == s.repay.Address {
			continue
		}
		if reserve.LendingMarket != s.repay.LendingMarket {
			continue
		}
		if onlyQuote && reserve.LiquidityMint != market.QuoteMint {
			continue
		}
		options = append(options, CollateralOption{Reserve: reserve, Label: s.label(reserve.LiquidityMint)})
	}
	return options
}

// Select records id as the chosen collateral reserve. An empty id clears the
// selection.
func (s *Selector) Select(id string) {
	if s == nil {
		return
	}
	s.selected = strings.TrimSpace(id)
}

// Selected returns the recorded identifier, possibly empty.
func (s *Selector) Selected() string {
	if s == nil {
		return ""
	}
	return s.selected
}

// Resolve returns the selected reserve when it is present in the cache.
func (s *Selector) Resolve() (*lending.Reserve, bool) {
	if s == nil || s.selected == "" || s.cache == nil {
		return nil, false
	}
	found := false
	for _, id := range s.cache.ByParser(lending.KindReserve) {
		if id == s.selected {
			found = true
			break
		}
	}
	if !found {
		return nil, false
	}
	return accounts.Lookup[*lending.Reserve](s.cache, s.selected)
}

func (s *Selector) label(mint string) string {
	if s.namer != nil {
		if name := s.namer.Name(mint); name != "" {
			return name
		}
	}
	return mint
}
