package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_core/internal/domain"
)

type BookRequest struct {
	Guest        domain.Guest
	RoomIDs      []int64
	Interval     domain.Interval
	Guests       int
	Currency     domain.Currency
	LateCheckout bool
}

// BookingService is the only writer of new reservations.
type BookingService struct {
	catalog domain.Catalog
	res     domain.ReservationRepository
	pricer  *Pricer
	grace   time.Duration
	now     func() time.Time
}

func NewBookingService(c domain.Catalog, r domain.ReservationRepository, p *Pricer, grace time.Duration) *BookingService {
	return &BookingService{catalog: c, res: r, pricer: p, grace: grace, now: time.Now}
}

// WithClock replaces the time source used for CreatedAt.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

func (s *BookingService) Book(ctx context.Context, req BookRequest) (domain.Reservation, error) {
	if err := req.Interval.Validate(); err != nil {
		return domain.Reservation{}, err
	}
	if req.Guests < 1 {
		return domain.Reservation{}, domain.ErrInvalidGuestCount
	}
	ids := uniqueIDs(req.RoomIDs)
	if len(ids) == 0 {
		return domain.Reservation{}, domain.ErrEmptySelection
	}
	cur, err := domain.ParseCurrency(string(req.Currency))
	if err != nil {
		return domain.Reservation{}, err
	}

	r, err := s.price(ctx, req, ids, cur)
	if err != nil {
		return domain.Reservation{}, err
	}

	want := req.Interval
	if req.LateCheckout {
		want = want.Extend(s.grace)
	}
	err = s.res.Atomically(ctx, func(ctx context.Context, tx domain.BookingTx) error {
		if err := tx.LockRooms(ctx, ids); err != nil {
			return err
		}
		occ, err := tx.Occupancies(ctx, ids, lookback(want, s.grace))
		if err != nil {
			return err
		}
		if busy := Conflicts(occ, want, s.grace); len(busy) > 0 {
			return fmt.Errorf("%w: rooms %s", domain.ErrRoomUnavailable, joinIDs(busy))
		}
		id, err := tx.InsertReservation(ctx, r)
		if err != nil {
			return err
		}
		r.ID = id
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrRoomUnavailable) {
			log.Warn().Ints64("rooms", ids).Err(err).Msg("booking rejected")
		}
		return domain.Reservation{}, err
	}

	log.Info().
		Int64("reservation", r.ID).
		Str("reference", r.Reference).
		Int("rooms", len(r.Rooms)).
		Str("total", r.TotalPrice.String()).
		Str("currency", string(r.Currency)).
		Msg("reservation booked")
	return r, nil
}

// price resolves the selected rooms and builds the unsaved reservation.
func (s *BookingService) price(ctx context.Context, req BookRequest, ids []int64, cur domain.Currency) (domain.Reservation, error) {
	rooms, err := s.catalog.GetRoomsByID(ctx, ids)
	if err != nil {
		return domain.Reservation{}, err
	}
	byType := map[int64][]domain.Room{}
	for _, rm := range rooms {
		if !rm.Active {
			return domain.Reservation{}, fmt.Errorf("%w: room %s is inactive", domain.ErrRoomUnavailable, rm.Number)
		}
		byType[rm.RoomTypeID] = append(byType[rm.RoomTypeID], rm)
	}

	r := domain.Reservation{
		Reference:    uuid.NewString(),
		Guest:        req.Guest,
		CheckIn:      req.Interval.Start,
		CheckOut:     req.Interval.End,
		Currency:     cur,
		LateCheckout: req.LateCheckout,
		Status:       domain.StatusConfirmed,
		CreatedAt:    s.now(),
	}
	typeIDs := make([]int64, 0, len(byType))
	for id := range byType {
		typeIDs = append(typeIDs, id)
	}
	sort.Slice(typeIDs, func(i, j int) bool { return typeIDs[i] < typeIDs[j] })
	types, err := s.catalog.GetRoomTypesByID(ctx, typeIDs)
	if err != nil {
		return domain.Reservation{}, err
	}

	var applied []string
	for _, rt := range types {
		group := byType[rt.ID]
		if !rt.Active {
			return domain.Reservation{}, fmt.Errorf("%w: room type %s is inactive", domain.ErrRoomUnavailable, rt.Name)
		}
		q, err := s.pricer.Quote(ctx, rt, req.Interval, cur)
		if err != nil {
			return domain.Reservation{}, err
		}
		n := domain.Amount(len(group))
		r.TotalPrice += q.Total * n
		r.DiscountAmount += q.Discount * n
		if q.Policy != nil {
			applied = append(applied, q.Policy.Name)
		}
		for _, rm := range group {
			r.Rooms = append(r.Rooms, domain.RoomBinding{
				RoomID:     rm.ID,
				RoomTypeID: rt.ID,
				HotelID:    rt.HotelID,
				RoomNumber: rm.Number,
				Price:      q.Total,
			})
		}
	}
	sort.Slice(r.Rooms, func(i, j int) bool { return r.Rooms[i].RoomID < r.Rooms[j].RoomID })
	sort.Strings(applied)
	r.DiscountPolicyName = strings.Join(dedupe(applied), ", ")
	return r, nil
}

// Get returns one reservation.
func (s *BookingService) Get(ctx context.Context, id int64) (domain.Reservation, error) {
	return s.res.GetReservation(ctx, id)
}

// Mine lists the reservations booked by userID.
func (s *BookingService) Mine(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	return s.res.ListByUser(ctx, userID)
}

// HotelDay lists reservations of a hotel whose stay touches the calendar
// day containing day.
func (s *BookingService) HotelDay(ctx context.Context, hotelID int64, day time.Time) ([]domain.Reservation, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return s.res.ListByHotel(ctx, hotelID, domain.Interval{Start: start, End: start.AddDate(0, 0, 1)})
}

func uniqueIDs(in []int64) []int64 {
	seen := make(map[int64]bool, len(in))
	out := make([]int64, 0, len(in))
	for _, id := range in {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func dedupe(sorted []string) []string {
	var out []string
	for _, s := range sorted {
		if len(out) == 0 || out[len(out)-1] != s {
			out = append(out, s)
		}
	}
	return out
}

func joinIDs(set map[int64]bool) string {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}
