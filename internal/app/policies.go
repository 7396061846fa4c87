package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"hotel_core/internal/domain"
)

// PolicyService manages the discount policies of a hotel.
type PolicyService struct {
	repo    domain.PolicyRepository
	catalog domain.Catalog
}

func NewPolicyService(r domain.PolicyRepository, c domain.Catalog) *PolicyService {
	return &PolicyService{repo: r, catalog: c}
}

func (s *PolicyService) Create(ctx context.Context, p domain.DiscountPolicy) (domain.DiscountPolicy, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return domain.DiscountPolicy{}, err
	}
	if _, err := s.catalog.GetHotel(ctx, p.HotelID); err != nil {
		return domain.DiscountPolicy{}, err
	}
	// only the field matching the kind is kept
	switch p.Kind {
	case domain.DiscountPercentage:
		p.Amount = 0
	case domain.DiscountFixedAmount:
		p.Rate = 0
	}
	created, err := s.repo.CreatePolicy(ctx, p)
	if err != nil {
		return domain.DiscountPolicy{}, err
	}
	log.Info().Int64("policy", created.ID).Int64("hotel", created.HotelID).Msg("discount policy created")
	return created, nil
}

func (s *PolicyService) List(ctx context.Context, hotelID int64) ([]domain.DiscountPolicy, error) {
	return s.repo.ListPolicies(ctx, hotelID)
}

func (s *PolicyService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetPolicy(ctx, id); err != nil {
		return err
	}
	return s.repo.DeletePolicy(ctx, id)
}
