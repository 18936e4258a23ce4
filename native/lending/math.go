package lending

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// Wad is the fixed-point scale used for debt accounting (1e18).
	Wad = uint256.NewInt(1_000_000_000_000_000_000)

	errNilAmount = errors.New("lending: amount not set")
)

// WadToLamports truncates a WAD encoded value into whole token units.
func WadToLamports(wad *uint256.Int) *uint256.Int {
	if wad == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Div(wad, Wad)
}

// FromLamports converts integer token units into the exact human readable
// amount for a mint with the given precision.
func FromLamports(lamports *uint256.Int, decimals uint8) *big.Rat {
	if lamports == nil {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(lamports.ToBig(), pow10(decimals))
}

// DebtToHuman converts a WAD encoded debt into human readable token units.
// The float result is intended for display and percentage baselines; integer
// accounting must keep using WadToLamports.
func DebtToHuman(debtWad *uint256.Int, decimals uint8) float64 {
	value, _ := FromLamports(WadToLamports(debtWad), decimals).Float64()
	return value
}

// Debt captures an obligation's outstanding balance in both representations.
type Debt struct {
	// Lamports is the debt truncated to whole token units.
	Lamports *uint256.Int
	// Decimals is the precision of the borrowed token.
	Decimals uint8
}

// NewDebt derives the outstanding debt of an obligation using the precision of
// the borrowed liquidity mint.
func NewDebt(obligation *Obligation, mint *Mint) (Debt, error) {
	if obligation == nil || mint == nil {
		return Debt{}, errNilAmount
	}
	if obligation.BorrowAmountWad == nil {
		return Debt{}, errNilAmount
	}
	return Debt{
		Lamports: WadToLamports(obligation.BorrowAmountWad),
		Decimals: mint.Decimals,
	}, nil
}

// Human returns the exact debt in token units.
func (d Debt) Human() *big.Rat {
	return FromLamports(d.Lamports, d.Decimals)
}

// HumanFloat returns the debt in token units as a float64.
func (d Debt) HumanFloat() float64 {
	value, _ := d.Human().Float64()
	return value
}

// IsZero reports whether nothing is owed.
func (d Debt) IsZero() bool {
	return d.Lamports == nil || d.Lamports.IsZero()
}

// FloorRat rounds a non-negative rational towards zero into token units.
// Values that do not fit into 256 bits saturate at the maximum.
func FloorRat(r *big.Rat) *uint256.Int {
	if r == nil || r.Sign() <= 0 {
		return new(uint256.Int)
	}
	q := new(big.Int).Quo(r.Num(), r.Denom())
	return fromBig(q)
}

// CeilRat rounds a non-negative rational up into token units.
func CeilRat(r *big.Rat) *uint256.Int {
	if r == nil || r.Sign() <= 0 {
		return new(uint256.Int)
	}
	q, m := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if m.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return fromBig(q)
}

func fromBig(v *big.Int) *uint256.Int {
	out, overflow := uint256.FromBig(v)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return out
}

func pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}
