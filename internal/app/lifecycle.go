package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_core/internal/domain"
)

// LifecycleService advances reservations through
// CONFIRMED -> CHECKED_IN -> CHECKED_OUT, or CONFIRMED -> CANCELLED.
type LifecycleService struct {
	res domain.ReservationRepository
	now func() time.Time
}

func NewLifecycleService(r domain.ReservationRepository) *LifecycleService {
	return &LifecycleService{res: r, now: time.Now}
}

func (s *LifecycleService) WithClock(now func() time.Time) *LifecycleService {
	s.now = now
	return s
}

// CheckIn is allowed at any time, early walk-ins included.
func (s *LifecycleService) CheckIn(ctx context.Context, id int64) (domain.Reservation, error) {
	return s.advance(ctx, id, domain.StatusConfirmed, domain.StatusCheckedIn)
}

// CheckOut releases the rooms and makes the stay eligible for settlement.
func (s *LifecycleService) CheckOut(ctx context.Context, id int64) (domain.Reservation, error) {
	return s.advance(ctx, id, domain.StatusCheckedIn, domain.StatusCheckedOut)
}

func (s *LifecycleService) Cancel(ctx context.Context, id int64) (domain.Reservation, error) {
	return s.advance(ctx, id, domain.StatusConfirmed, domain.StatusCancelled)
}

func (s *LifecycleService) advance(ctx context.Context, id int64, from, to domain.Status) (domain.Reservation, error) {
	if err := from.Transition(to); err != nil {
		return domain.Reservation{}, err
	}
	if err := s.res.CompareAndSetStatus(ctx, id, from, to, s.now()); err != nil {
		return domain.Reservation{}, err
	}
	log.Info().Int64("reservation", id).Str("from", string(from)).Str("to", string(to)).Msg("reservation status changed")
	return s.res.GetReservation(ctx, id)
}
