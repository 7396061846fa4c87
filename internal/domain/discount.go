package domain

import "fmt"

type DiscountKind string

const (
	DiscountPercentage  DiscountKind = "PERCENTAGE"
	DiscountFixedAmount DiscountKind = "FIXED_AMOUNT"
)

// DiscountPolicy applies to stays of at least MinDays nights at its hotel.
// Rate is in hundredths of a percent (1000 = 10%) and is used by percentage
// policies; Amount is a per-night reduction in the booking currency.
type DiscountPolicy struct {
	ID      int64        `json:"id"`
	HotelID int64        `json:"hotelId"`
	Name    string       `json:"name"`
	MinDays int          `json:"minDays"`
	Kind    DiscountKind `json:"type"`
	Rate    int64        `json:"discountRate"`
	Amount  Amount       `json:"discountAmount"`
}

func (p DiscountPolicy) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPolicy)
	}
	if p.MinDays < 0 {
		return fmt.Errorf("%w: minDays %d is negative", ErrInvalidPolicy, p.MinDays)
	}
	switch p.Kind {
	case DiscountPercentage:
		if p.Rate <= 0 || p.Rate > 10000 {
			return fmt.Errorf("%w: rate %s%% outside (0,100]", ErrInvalidPolicy, Amount(p.Rate))
		}
	case DiscountFixedAmount:
		if p.Amount <= 0 {
			return fmt.Errorf("%w: amount %s must be positive", ErrInvalidPolicy, p.Amount)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidPolicy, p.Kind)
	}
	return nil
}

// Apply returns the discount to subtract from base for a stay of nights,
// never more than base.
func (p DiscountPolicy) Apply(base Amount, nights int) Amount {
	var d Amount
	switch p.Kind {
	case DiscountPercentage:
		d = base.MulRate(p.Rate)
	case DiscountFixedAmount:
		d = p.Amount * Amount(nights)
	}
	if d > base {
		d = base
	}
	return d
}

// SelectPolicy picks the policy with the largest MinDays not exceeding
// nights, breaking ties by the smallest ID. ok is false when none applies.
func SelectPolicy(policies []DiscountPolicy, nights int) (best DiscountPolicy, ok bool) {
	for _, p := range policies {
		if p.MinDays > nights {
			continue
		}
		if !ok || p.MinDays > best.MinDays || (p.MinDays == best.MinDays && p.ID < best.ID) {
			best, ok = p, true
		}
	}
	return best, ok
}
