package core

import "github.com/shopspring/decimal"

var two = decimal.NewFromInt(2)

// Shares is each party's portion of one expense. A+B always equals the amount.
type Shares struct {
	A int64 `json:"a"`
	B int64 `json:"b"`
}

// Of returns the share attributed to p.
func (s Shares) Of(p Party) int64 {
	if p == PartyB {
		return s.B
	}
	return s.A
}

// ComputeShares divides amount between the two parties by the split weights.
//
// With zero total weight the expense is personal and belongs entirely to
// the payer. Otherwise A's share is amount*wA/(wA+wB) rounded half to even
// and B receives the rest, so no cent is created or lost.
func ComputeShares(amount int64, split Split, paidBy Party) Shares {
	total := split.total()
	if total.Sign() <= 0 {
		if paidBy == PartyB {
			return Shares{A: 0, B: amount}
		}
		return Shares{A: amount, B: 0}
	}
	a := roundHalfEven(decimal.NewFromInt(amount).Mul(decimal.NewFromInt(split.A)), total)
	return Shares{A: a, B: amount - a}
}

// total sums the weights without overflowing int64.
func (s Split) total() decimal.Decimal {
	return decimal.NewFromInt(s.A).Add(decimal.NewFromInt(s.B))
}

// roundHalfEven computes num/den rounded to an integer with exact arithmetic.
func roundHalfEven(num, den decimal.Decimal) int64 {
	q, r := num.QuoRem(den, 0)
	switch r.Mul(two).Abs().Cmp(den.Abs()) {
	case 1:
		q = q.Add(decimal.NewFromInt(int64(r.Sign() * den.Sign())))
	case 0:
		if q.IntPart()%2 != 0 {
			q = q.Add(decimal.NewFromInt(int64(r.Sign() * den.Sign())))
		}
	}
	return q.IntPart()
}
