package app

import (
	"context"
	"fmt"

	"hotel_core/internal/domain"
)

// Quote is the price of one room of a room type for one stay.
type Quote struct {
	RoomTypeID int64                  `json:"roomTypeId"`
	Currency   domain.Currency        `json:"currency"`
	Nights     int                    `json:"nights"`
	Nightly    domain.Amount          `json:"nightly"`
	Base       domain.Amount          `json:"base"`
	Discount   domain.Amount          `json:"discount"`
	Total      domain.Amount          `json:"total"`
	Policy     *domain.DiscountPolicy `json:"policy,omitempty"`
}

// Pricer is the discount engine.
type Pricer struct {
	catalog  domain.Catalog
	policies domain.PolicyRepository
}

func NewPricer(c domain.Catalog, p domain.PolicyRepository) *Pricer {
	return &Pricer{catalog: c, policies: p}
}

func (p *Pricer) Quote(ctx context.Context, rt domain.RoomType, iv domain.Interval, cur domain.Currency) (Quote, error) {
	if err := iv.Validate(); err != nil {
		return Quote{}, err
	}
	nightly, err := rt.Price(cur)
	if err != nil {
		return Quote{}, err
	}
	nights := iv.Nights()
	q := Quote{
		RoomTypeID: rt.ID,
		Currency:   cur,
		Nights:     nights,
		Nightly:    nightly,
		Base:       nightly * domain.Amount(nights),
	}
	q.Total = q.Base

	policies, err := p.policies.ListPolicies(ctx, rt.HotelID)
	if err != nil {
		return Quote{}, fmt.Errorf("load discount policies: %w", err)
	}
	best, ok := domain.SelectPolicy(policies, nights)
	if !ok {
		return q, nil
	}
	if err := best.Validate(); err != nil {
		return Quote{}, fmt.Errorf("policy %d: %w", best.ID, err)
	}
	q.Policy = &best
	q.Discount = best.Apply(q.Base, nights)
	q.Total = q.Base - q.Discount
	return q, nil
}

// QuoteRoomType resolves the room type through the catalog first.
func (p *Pricer) QuoteRoomType(ctx context.Context, roomTypeID int64, iv domain.Interval, cur domain.Currency) (Quote, error) {
	rt, err := p.catalog.GetRoomType(ctx, roomTypeID)
	if err != nil {
		return Quote{}, err
	}
	return p.Quote(ctx, rt, iv, cur)
}
