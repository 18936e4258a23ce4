package repay

import (
	"strings"

	"nhbrepay/native/lending"
	"nhbrepay/state/accounts"
)

// Target identifies what the panel was opened for. When Obligation is set the
// repay reserve is the obligation's borrow reserve; otherwise Reserve names it
// directly.
type Target struct {
	Obligation string
	Reserve    string
}

// Resolver assembles repay requests from the account cache for one wallet.
type Resolver struct {
	cache *accounts.Cache
	owner string
}

// NewResolver returns a resolver for token accounts owned by owner.
func NewResolver(cache *accounts.Cache, owner string) *Resolver {
	return &Resolver{cache: cache, owner: strings.TrimSpace(owner)}
}

// Obligation returns the cached obligation for target, if any.
func (r *Resolver) Obligation(target Target) (*lending.Obligation, bool) {
	if r == nil || target.Obligation == "" {
		return nil, false
	}
	return accounts.Lookup[*lending.Obligation](r.cache, target.Obligation)
}

// RepayReserve routes target to the reserve that receives the repayment.
func (r *Resolver) RepayReserve(target Target) (*lending.Reserve, bool) {
	if r == nil {
		return nil, false
	}
	id := target.Reserve
	if obligation, ok := r.Obligation(target); ok {
		id = obligation.BorrowReserve
	}
	if id == "" {
		return nil, false
	}
	return accounts.Lookup[*lending.Reserve](r.cache, id)
}

// TokenAccount returns the first wallet token account, in identifier order,
// holding mint.
func (r *Resolver) TokenAccount(mint string) (*lending.TokenAccount, bool) {
	if r == nil || mint == "" {
		return nil, false
	}
	for _, account := range accounts.All[*lending.TokenAccount](r.cache, lending.KindTokenAccount) {
		if account.Mint != mint {
			continue
		}
		if r.owner != "" && account.Owner != r.owner {
			continue
		}
		return account, true
	}
	return nil, false
}

// Debt returns the outstanding debt of target's obligation in human units,
// or zero when it is not loaded.
func (r *Resolver) Debt(target Target) float64 {
	req := r.Request(target, nil)
	debt, err := lending.NewDebt(req.Obligation, req.LiquidityMint)
	if err != nil {
		return 0
	}
	return debt.HumanFloat()
}

// Request gathers every account a repayment of target needs. Missing accounts
// are left nil; the orchestrator treats them as unmet preconditions.
func (r *Resolver) Request(target Target, collateral *Selector) Request {
	var req Request
	if r == nil {
		return req
	}
	if obligation, ok := r.Obligation(target); ok {
		req.Obligation = obligation
		if account, ok := r.TokenAccount(obligation.TokenMint); ok {
			req.ObligationAccount = account
		}
	}
	if reserve, ok := r.RepayReserve(target); ok {
		req.Reserve = reserve
		if mint, ok := accounts.Lookup[*lending.Mint](r.cache, reserve.LiquidityMint); ok {
			req.LiquidityMint = mint
		}
		if account, ok := r.TokenAccount(reserve.LiquidityMint); ok {
			req.Source = account
		}
	}
	if collateral != nil {
		if reserve, ok := collateral.Resolve(); ok {
			req.Collateral = reserve
		}
	}
	return req
}
