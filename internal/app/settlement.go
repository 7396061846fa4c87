package app

import (
	"context"
	"fmt"
	"time"

	"hotel_core/internal/domain"
)

type SettlementService struct {
	res domain.ReservationRepository
	loc *time.Location
}

// NewSettlementService interprets calendar dates in loc (UTC when nil).
func NewSettlementService(r domain.ReservationRepository, loc *time.Location) *SettlementService {
	if loc == nil {
		loc = time.UTC
	}
	return &SettlementService{res: r, loc: loc}
}

// Report aggregates the hotel's checked-out stays whose checkout falls
// between startDate 00:00 and endDate 23:59:59 inclusive.
func (s *SettlementService) Report(ctx context.Context, hotelID int64, startDate, endDate time.Time) (domain.Settlement, error) {
	from := s.dayStart(startDate)
	to := s.dayStart(endDate).AddDate(0, 0, 1)
	window := domain.Interval{Start: from, End: to}
	if err := window.Validate(); err != nil {
		return domain.Settlement{}, fmt.Errorf("settlement range: %w", err)
	}

	lines, err := s.res.SettlementLines(ctx, hotelID, window)
	if err != nil {
		return domain.Settlement{}, err
	}
	out := domain.Settlement{
		HotelID: hotelID,
		From:    from,
		To:      to.Add(-time.Second),
		Lines:   make([]domain.SettlementLine, 0, len(lines)),
		Totals:  map[domain.Currency]domain.Amount{},
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, l)
		out.Totals[l.Currency] += l.TotalPrice
	}
	return out, nil
}

func (s *SettlementService) dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}
