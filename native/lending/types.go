package lending

import (
	"github.com/holiman/uint256"
)

// Account kinds understood by the account cache. Each kind is parsed by the
// matching function returned from Parsers.
const (
	KindLendingMarket = "lending_market"
	KindReserve       = "reserve"
	KindObligation    = "obligation"
	KindMint          = "mint"
	KindTokenAccount  = "token_account"
)

// LendingMarket groups the reserves that may be used as collateral for each
// other.
type LendingMarket struct {
	// Address is the bech32 identifier of the market account.
	Address string
	// QuoteMint is the mint every non-quote reserve must be paired against.
	QuoteMint string
}

// Reserve describes a lending pool for a single liquidity token. Amounts are
// integer token units; *Wad values carry 18 implied decimals.
type Reserve struct {
	// Address is the bech32 identifier of the reserve account.
	Address string
	// LendingMarket references the market that owns the reserve.
	LendingMarket string
	// LiquidityMint is the token lent out by the reserve.
	LiquidityMint string
	// LiquiditySupply is the vault holding deposited liquidity.
	LiquiditySupply string
	// CollateralMint is the token minted to depositors.
	CollateralMint string
	// CollateralSupply is the vault holding pledged collateral tokens.
	CollateralSupply string
	// AvailableLiquidity is the amount that can currently be borrowed.
	AvailableLiquidity *uint256.Int
	// BorrowedLiquidityWad tracks outstanding borrows with WAD precision.
	BorrowedLiquidityWad *uint256.Int
	// CumulativeBorrowRateWad is the compounded borrow index.
	CumulativeBorrowRateWad *uint256.Int
}

// Obligation is a borrower position opened against a reserve.
type Obligation struct {
	// Address is the bech32 identifier of the obligation account.
	Address string
	// Owner is the wallet that opened the obligation.
	Owner string
	// BorrowReserve is the reserve the debt was drawn from.
	BorrowReserve string
	// CollateralReserve is the reserve whose collateral backs the debt.
	CollateralReserve string
	// BorrowAmountWad is the outstanding debt expressed in WAD units of the
	// borrow reserve's liquidity token.
	BorrowAmountWad *uint256.Int
	// DepositedCollateral is the collateral token amount pledged.
	DepositedCollateral *uint256.Int
	// TokenMint is the mint of the obligation token held by the borrower.
	TokenMint string
}

// Mint carries the precision metadata for a token.
type Mint struct {
	Address  string
	Decimals uint8
	Supply   *uint256.Int
}

// TokenAccount is a wallet-owned balance of a single mint.
type TokenAccount struct {
	Address string
	Mint    string
	Owner   string
	Amount  *uint256.Int
}

// Clone returns a deep copy of the reserve.
func (r *Reserve) Clone() *Reserve {
	if r == nil {
		return nil
	}
	clone := *r
	clone.AvailableLiquidity = cloneInt(r.AvailableLiquidity)
	clone.BorrowedLiquidityWad = cloneInt(r.BorrowedLiquidityWad)
	clone.CumulativeBorrowRateWad = cloneInt(r.CumulativeBorrowRateWad)
	return &clone
}

// Clone returns a deep copy of the obligation.
func (o *Obligation) Clone() *Obligation {
	if o == nil {
		return nil
	}
	clone := *o
	clone.BorrowAmountWad = cloneInt(o.BorrowAmountWad)
	clone.DepositedCollateral = cloneInt(o.DepositedCollateral)
	return &clone
}

func cloneInt(v *uint256.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	return new(uint256.Int).Set(v)
}
