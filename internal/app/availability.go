package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"hotel_core/internal/domain"
)

// catalogFanout bounds concurrent catalog reads during a search.
const catalogFanout = 8

type AvailabilityService struct {
	catalog domain.Catalog
	res     domain.ReservationRepository
	grace   time.Duration
}

func NewAvailabilityService(c domain.Catalog, r domain.ReservationRepository, grace time.Duration) *AvailabilityService {
	return &AvailabilityService{catalog: c, res: r, grace: grace}
}

type SearchQuery struct {
	HotelID  *int64 // nil searches every hotel
	Interval domain.Interval
	Guests   int
}

func (s *AvailabilityService) Search(ctx context.Context, q SearchQuery) ([]domain.RoomOffer, error) {
	if err := q.Interval.Validate(); err != nil {
		return nil, err
	}
	if q.Guests < 1 {
		return nil, domain.ErrInvalidGuestCount
	}

	var hotels []domain.Hotel
	if q.HotelID != nil {
		h, err := s.catalog.GetHotel(ctx, *q.HotelID)
		if err != nil {
			return nil, err
		}
		hotels = []domain.Hotel{h}
	} else {
		hs, err := s.catalog.ListHotels(ctx)
		if err != nil {
			return nil, err
		}
		hotels = hs
	}

	candidates, err := s.candidates(ctx, hotels, q.Guests)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []domain.RoomOffer{}, nil
	}

	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Room.ID
	}
	occ, err := s.res.Occupancies(ctx, ids, lookback(q.Interval, s.grace))
	if err != nil {
		return nil, fmt.Errorf("load occupancies: %w", err)
	}
	busy := Conflicts(occ, q.Interval, s.grace)

	out := make([]domain.RoomOffer, 0, len(candidates))
	for _, c := range candidates {
		if !busy[c.Room.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

// candidates lists active rooms of active room types that fit guests,
// ordered by hotel, room type and room number.
func (s *AvailabilityService) candidates(ctx context.Context, hotels []domain.Hotel, guests int) ([]domain.RoomOffer, error) {
	perHotel := make([][]domain.RoomOffer, len(hotels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(catalogFanout)
	for i, h := range hotels {
		g.Go(func() error {
			types, err := s.catalog.GetRoomTypes(gctx, h.ID)
			if err != nil {
				return fmt.Errorf("room types of hotel %d: %w", h.ID, err)
			}
			var offers []domain.RoomOffer
			for _, rt := range types {
				if !rt.Active || rt.Capacity < guests {
					continue
				}
				rooms, err := s.catalog.GetRooms(gctx, rt.ID)
				if err != nil {
					return fmt.Errorf("rooms of type %d: %w", rt.ID, err)
				}
				for _, rm := range rooms {
					if !rm.Active {
						continue
					}
					offers = append(offers, domain.RoomOffer{Hotel: h, RoomType: rt, Room: rm, Prices: rt.Prices})
				}
			}
			perHotel[i] = offers
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.RoomOffer
	for _, offers := range perHotel {
		out = append(out, offers...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Hotel.ID != b.Hotel.ID {
			return a.Hotel.ID < b.Hotel.ID
		}
		if a.RoomType.ID != b.RoomType.ID {
			return a.RoomType.ID < b.RoomType.ID
		}
		if a.Room.Number != b.Room.Number {
			return a.Room.Number < b.Room.Number
		}
		return a.Room.ID < b.Room.ID
	})
	return out, nil
}

// Conflicts returns the rooms held by a blocking occupancy whose interval,
// extended by grace for late checkouts, overlaps iv.
func Conflicts(occ []domain.Occupancy, iv domain.Interval, grace time.Duration) map[int64]bool {
	busy := map[int64]bool{}
	for _, o := range occ {
		if !o.Status.Blocks() {
			continue
		}
		if o.Blocking(grace).Overlaps(iv) {
			busy[o.RoomID] = true
		}
	}
	return busy
}

// lookback widens iv so that storage range scans also return late-checkout
// holdings whose nominal checkout precedes iv.Start.
func lookback(iv domain.Interval, grace time.Duration) domain.Interval {
	return domain.Interval{Start: iv.Start.Add(-grace), End: iv.End}
}
