package aid

import "github.com/shopspring/decimal"

// DefaultCopayRate is the share of the invoice the beneficiary pays.
var DefaultCopayRate = decimal.RequireFromString("0.15")

// DefaultCopayCodes are the aids subject to co-payment.
var DefaultCopayCodes = []Code{"ATSANGA", "ATSANTDE"}

// Copay computes the amount covered after co-payment.
type Copay struct {
	rate  decimal.Decimal
	codes map[Code]struct{}
}

// NewCopay builds a calculator. A zero rate falls back to DefaultCopayRate.
func NewCopay(rate decimal.Decimal, codes []Code) *Copay {
	if rate.IsZero() {
		rate = DefaultCopayRate
	}
	set := make(map[Code]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return &Copay{rate: rate, codes: set}
}

// DefaultCopay is the 15% calculator over DefaultCopayCodes.
func DefaultCopay() *Copay {
	return NewCopay(DefaultCopayRate, DefaultCopayCodes)
}

// Applies reports whether code is in the copay set.
func (c *Copay) Applies(code Code) bool {
	_, ok := c.codes[code]
	return ok
}

// Rate returns the configured share.
func (c *Copay) Rate() decimal.Decimal {
	return c.rate
}

// Apply returns amount*(1-rate) rounded to cents for copay codes, and amount
// unchanged for every other code.
func (c *Copay) Apply(code Code, amount decimal.Decimal) decimal.Decimal {
	if !c.Applies(code) {
		return amount
	}
	return amount.Mul(decimal.NewFromInt(1).Sub(c.rate)).Round(2)
}

// Share returns the part the beneficiary pays, rounded to cents.
func (c *Copay) Share(code Code, amount decimal.Decimal) (decimal.Decimal, bool) {
	if !c.Applies(code) {
		return decimal.Zero, false
	}
	return amount.Mul(c.rate).Round(2), true
}
