// Package funds implements the fungible-asset multiset used for fee
// partitioning: amounts keyed by denomination with checked arithmetic,
// never silent underflow.
package funds

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInsufficientDeposit marks any failure caused by a deposit that
// does not cover the required amounts.
var ErrInsufficientDeposit = errors.New("deposit does not cover required amounts")

// Funds is a multiset of fungible assets: denomination to amount.
// Zero-amount entries are never stored.
type Funds map[string]decimal.Decimal

// Coin is one denominated amount.
type Coin struct {
	Denom  string          `json:"denom"`
	Amount decimal.Decimal `json:"amount"`
}

func (c Coin) String() string {
	return c.Amount.String() + c.Denom
}

// New builds a multiset from coins, accumulating duplicate
// denominations and dropping zero amounts.
func New(coins ...Coin) Funds {
	f := Funds{}
	for _, c := range coins {
		f.add(c.Denom, c.Amount)
	}
	return f
}

func (f Funds) add(denom string, amount decimal.Decimal) {
	sum := f[denom].Add(amount)
	if sum.IsZero() {
		delete(f, denom)
		return
	}
	f[denom] = sum
}

// Amount returns the held amount for denom, zero when absent.
func (f Funds) Amount(denom string) decimal.Decimal {
	return f[denom]
}

// Clone returns an independent copy.
func (f Funds) Clone() Funds {
	out := make(Funds, len(f))
	for denom, amount := range f {
		out[denom] = amount
	}
	return out
}

// Add returns the component-wise sum of f and other.
func (f Funds) Add(other Funds) Funds {
	out := f.Clone()
	for denom, amount := range other {
		out.add(denom, amount)
	}
	return out
}

// ShortfallError reports the first denomination a checked subtraction
// would drive negative.
type ShortfallError struct {
	Denom     string
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("insufficient %s: required %s, available %s", e.Denom, e.Required, e.Available)
}

// Is reports ErrInsufficientDeposit so callers can match the sentinel.
func (e *ShortfallError) Is(target error) bool {
	return target == ErrInsufficientDeposit
}

// Sub returns f minus other, failing with a ShortfallError as soon as
// any denomination would go negative. f is left untouched.
func (f Funds) Sub(other Funds) (Funds, error) {
	out := f.Clone()
	for _, c := range other.Sorted() {
		available := out[c.Denom]
		if available.LessThan(c.Amount) {
			return nil, &ShortfallError{Denom: c.Denom, Required: c.Amount, Available: available}
		}
		rest := available.Sub(c.Amount)
		if rest.IsZero() {
			delete(out, c.Denom)
		} else {
			out[c.Denom] = rest
		}
	}
	return out, nil
}

// IsZero reports whether the multiset holds nothing.
func (f Funds) IsZero() bool {
	return len(f) == 0
}

// Equal reports component-wise equality.
func (f Funds) Equal(other Funds) bool {
	if len(f) != len(other) {
		return false
	}
	for denom, amount := range f {
		if !amount.Equal(other[denom]) {
			return false
		}
	}
	return true
}

// Valid checks that every amount is strictly positive; deposits and
// fee quotes never carry negative or zero entries.
func (f Funds) Valid() error {
	for denom, amount := range f {
		if denom == "" {
			return errors.New("empty denomination")
		}
		if !amount.IsPositive() {
			return fmt.Errorf("non-positive amount %s for %s", amount, denom)
		}
	}
	return nil
}

// Sorted returns the coins ordered by denomination.
func (f Funds) Sorted() []Coin {
	coins := make([]Coin, 0, len(f))
	for denom, amount := range f {
		coins = append(coins, Coin{Denom: denom, Amount: amount})
	}
	sort.Slice(coins, func(i, j int) bool { return coins[i].Denom < coins[j].Denom })
	return coins
}

// String renders the multiset as "10tokena,5tokenb", or "none" when empty.
func (f Funds) String() string {
	if len(f) == 0 {
		return "none"
	}
	coins := f.Sorted()
	parts := make([]string, len(coins))
	for i, c := range coins {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
