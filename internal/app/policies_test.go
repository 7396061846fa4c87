package app_test

import (
	"context"
	"errors"
	"testing"

	"hotel_core/internal/domain"
)

func TestPolicies_CreateListDelete(t *testing.T) {
	s := newServices()
	ctx := context.Background()

	p, err := s.policies.Create(ctx, domain.DiscountPolicy{
		HotelID: 1, Name: "  Long stay ", MinDays: 5, Kind: domain.DiscountPercentage, Rate: 1500, Amount: 999,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == 0 || p.Name != "Long stay" || p.Amount != 0 {
		t.Fatalf("unexpected policy %+v", p)
	}

	list, _ := s.policies.List(ctx, 1)
	if len(list) != 1 {
		t.Fatalf("expected one policy, got %d", len(list))
	}
	if other, _ := s.policies.List(ctx, 2); len(other) != 0 {
		t.Fatalf("policies leaked across hotels")
	}

	if err := s.policies.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.policies.Delete(ctx, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestPolicies_CreateRejects(t *testing.T) {
	s := newServices()
	ctx := context.Background()

	if _, err := s.policies.Create(ctx, domain.DiscountPolicy{HotelID: 1, Name: "x", Kind: domain.DiscountPercentage, Rate: 0}); !errors.Is(err, domain.ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy, got %v", err)
	}
	if _, err := s.policies.Create(ctx, domain.DiscountPolicy{HotelID: 1, Name: "   ", Kind: domain.DiscountFixedAmount, Amount: 100}); !errors.Is(err, domain.ErrInvalidPolicy) {
		t.Fatalf("blank name: expected ErrInvalidPolicy, got %v", err)
	}
	if _, err := s.policies.Create(ctx, domain.DiscountPolicy{HotelID: 99, Name: "x", Kind: domain.DiscountFixedAmount, Amount: 100}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown hotel: expected ErrNotFound, got %v", err)
	}
}

func TestPricer_Quote(t *testing.T) {
	s := newServices()
	ctx := context.Background()
	_, _ = s.policies.Create(ctx, domain.DiscountPolicy{HotelID: 1, Name: "3+", MinDays: 3, Kind: domain.DiscountPercentage, Rate: 500})
	_, _ = s.policies.Create(ctx, domain.DiscountPolicy{HotelID: 1, Name: "7+", MinDays: 7, Kind: domain.DiscountPercentage, Rate: 1000})
	_, _ = s.policies.Create(ctx, domain.DiscountPolicy{HotelID: 2, Name: "flat", MinDays: 1, Kind: domain.DiscountFixedAmount, Amount: 50000})

	q, err := s.pricer.QuoteRoomType(ctx, 10, iv("2024-01-01T15:00:00Z", "2024-01-08T11:00:00Z"), domain.KRW)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.Nights != 7 || q.Base != 91000000 || q.Total != 81900000 || q.Policy == nil || q.Policy.Name != "7+" {
		t.Fatalf("unexpected quote %+v", q)
	}

	short, _ := s.pricer.QuoteRoomType(ctx, 10, iv("2024-01-01T15:00:00Z", "2024-01-03T11:00:00Z"), domain.USD)
	if short.Policy != nil || short.Total != short.Base {
		t.Fatalf("no policy applies to 2 nights: %+v", short)
	}

	// fixed discount larger than the stay floors the total at zero
	suite, _ := s.pricer.QuoteRoomType(ctx, 20, iv("2024-01-01T15:00:00Z", "2024-01-02T11:00:00Z"), domain.USD)
	if suite.Total != 0 || suite.Discount != suite.Base {
		t.Fatalf("expected total floored at zero: %+v", suite)
	}

	if _, err := s.pricer.QuoteRoomType(ctx, 11, iv("2024-01-01T15:00:00Z", "2024-01-02T11:00:00Z"), domain.PHP); !errors.Is(err, domain.ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency, got %v", err)
	}
}
