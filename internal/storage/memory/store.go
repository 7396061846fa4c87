// Package memory is an in-process implementation of the catalog, policy
// and reservation ports. Booking units run under an exclusive lock, so it
// gives the same no-double-booking guarantee as the MySQL store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"hotel_core/internal/domain"
)

type Store struct {
	mu           sync.RWMutex
	hotels       map[int64]domain.Hotel
	roomTypes    map[int64]domain.RoomType
	rooms        map[int64]domain.Room
	policies     map[int64]domain.DiscountPolicy
	reservations map[int64]domain.Reservation
	nextPolicy   int64
	nextRes      int64
}

func New() *Store {
	return &Store{
		hotels:       map[int64]domain.Hotel{},
		roomTypes:    map[int64]domain.RoomType{},
		rooms:        map[int64]domain.Room{},
		policies:     map[int64]domain.DiscountPolicy{},
		reservations: map[int64]domain.Reservation{},
	}
}

// ---- catalog seeding ----

func (s *Store) PutHotel(h domain.Hotel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hotels[h.ID] = h
}

func (s *Store) PutRoomType(rt domain.RoomType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomTypes[rt.ID] = rt
}

func (s *Store) PutRoom(r domain.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
}

// ---- domain.Catalog ----

func (s *Store) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hotels[id]
	if !ok {
		return domain.Hotel{}, fmt.Errorf("hotel %d: %w", id, domain.ErrNotFound)
	}
	return h, nil
}

func (s *Store) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Hotel, 0, len(s.hotels))
	for _, h := range s.hotels {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.RoomType
	for _, rt := range s.roomTypes {
		if rt.HotelID == hotelID {
			out = append(out, rt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetRoomType(ctx context.Context, id int64) (domain.RoomType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rt, ok := s.roomTypes[id]
	if !ok {
		return domain.RoomType{}, fmt.Errorf("room type %d: %w", id, domain.ErrNotFound)
	}
	return rt, nil
}

func (s *Store) GetRooms(ctx context.Context, roomTypeID int64) ([]domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Room
	for _, r := range s.rooms {
		if r.RoomTypeID == roomTypeID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetRoomsByID(ctx context.Context, ids []int64) ([]domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Room, 0, len(ids))
	for _, id := range ids {
		r, ok := s.rooms[id]
		if !ok {
			return nil, fmt.Errorf("room %d: %w", id, domain.ErrNotFound)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) GetRoomTypesByID(ctx context.Context, ids []int64) ([]domain.RoomType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RoomType, 0, len(ids))
	for _, id := range ids {
		rt, ok := s.roomTypes[id]
		if !ok {
			return nil, fmt.Errorf("room type %d: %w", id, domain.ErrNotFound)
		}
		out = append(out, rt)
	}
	return out, nil
}

// ---- domain.PolicyRepository ----

func (s *Store) ListPolicies(ctx context.Context, hotelID int64) ([]domain.DiscountPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.DiscountPolicy{}
	for _, p := range s.policies {
		if p.HotelID == hotelID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetPolicy(ctx context.Context, id int64) (domain.DiscountPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[id]
	if !ok {
		return domain.DiscountPolicy{}, fmt.Errorf("policy %d: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (s *Store) CreatePolicy(ctx context.Context, p domain.DiscountPolicy) (domain.DiscountPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPolicy++
	p.ID = s.nextPolicy
	s.policies[p.ID] = p
	return p, nil
}

func (s *Store) DeletePolicy(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[id]; !ok {
		return fmt.Errorf("policy %d: %w", id, domain.ErrNotFound)
	}
	delete(s.policies, id)
	return nil
}

// ---- domain.ReservationRepository ----

// tx stages inserts until the unit commits; the store lock is held by
// Atomically for the unit's whole lifetime.
type tx struct {
	s       *Store
	pending []domain.Reservation
}

func (t *tx) LockRooms(ctx context.Context, roomIDs []int64) error { return ctx.Err() }

func (t *tx) Occupancies(ctx context.Context, roomIDs []int64, window domain.Interval) ([]domain.Occupancy, error) {
	out := t.s.occupancies(roomIDs, window)
	for _, r := range t.pending {
		out = append(out, occupanciesOf(r, roomIDs, window)...)
	}
	return out, nil
}

func (t *tx) InsertReservation(ctx context.Context, r domain.Reservation) (int64, error) {
	r.ID = t.s.nextRes + int64(len(t.pending)) + 1
	t.pending = append(t.pending, r)
	return r.ID, nil
}

func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, tx domain.BookingTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &tx{s: s}
	if err := fn(ctx, t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.Transient(err)
	}
	for _, r := range t.pending {
		s.reservations[r.ID] = cloneReservation(r)
		s.nextRes = r.ID
	}
	return nil
}

func (s *Store) Occupancies(ctx context.Context, roomIDs []int64, window domain.Interval) ([]domain.Occupancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.occupancies(roomIDs, window), nil
}

func (s *Store) occupancies(roomIDs []int64, window domain.Interval) []domain.Occupancy {
	var out []domain.Occupancy
	for _, r := range s.reservations {
		out = append(out, occupanciesOf(r, roomIDs, window)...)
	}
	return out
}

func occupanciesOf(r domain.Reservation, roomIDs []int64, window domain.Interval) []domain.Occupancy {
	if !r.Status.Blocks() || !r.CheckIn.Before(window.End) || !r.CheckOut.After(window.Start) {
		return nil
	}
	want := make(map[int64]bool, len(roomIDs))
	for _, id := range roomIDs {
		want[id] = true
	}
	var out []domain.Occupancy
	for _, b := range r.Rooms {
		if want[b.RoomID] {
			out = append(out, domain.Occupancy{
				ReservationID: r.ID,
				RoomID:        b.RoomID,
				CheckIn:       r.CheckIn,
				CheckOut:      r.CheckOut,
				LateCheckout:  r.LateCheckout,
				Status:        r.Status,
			})
		}
	}
	return out
}

func (s *Store) GetReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return domain.Reservation{}, fmt.Errorf("reservation %d: %w", id, domain.ErrNotFound)
	}
	return cloneReservation(r), nil
}

func (s *Store) ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	return s.list(func(r domain.Reservation) bool { return r.Guest.UserID == userID }, true), nil
}

func (s *Store) ListByHotel(ctx context.Context, hotelID int64, window domain.Interval) ([]domain.Reservation, error) {
	return s.list(func(r domain.Reservation) bool {
		return holdsHotel(r, hotelID) && r.Interval().Overlaps(window)
	}, false), nil
}

// list orders by check-in then id, newest first when desc is set; the
// MySQL queries use the same orders.
func (s *Store) list(keep func(domain.Reservation) bool, desc bool) []domain.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Reservation{}
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, cloneReservation(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if desc {
			a, b = b, a
		}
		if !a.CheckIn.Equal(b.CheckIn) {
			return a.CheckIn.Before(b.CheckIn)
		}
		return a.ID < b.ID
	})
	return out
}

func (s *Store) CompareAndSetStatus(ctx context.Context, id int64, from, to domain.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return fmt.Errorf("reservation %d: %w", id, domain.ErrNotFound)
	}
	if r.Status != from {
		return fmt.Errorf("%w: reservation %d is %s, expected %s", domain.ErrInvalidTransition, id, r.Status, from)
	}
	r.Status = to
	switch to {
	case domain.StatusCheckedIn:
		r.ActualCheckIn = &at
	case domain.StatusCheckedOut:
		r.ActualCheckOut = &at
	}
	s.reservations[id] = r
	return nil
}

func (s *Store) SettlementLines(ctx context.Context, hotelID int64, window domain.Interval) ([]domain.SettlementLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SettlementLine
	for _, r := range s.reservations {
		if r.Status != domain.StatusCheckedOut || !holdsHotel(r, hotelID) {
			continue
		}
		at := r.EffectiveCheckOut()
		if at.Before(window.Start) || !at.Before(window.End) {
			continue
		}
		line := domain.SettlementLine{ReservationID: r.ID, Reference: r.Reference, CheckedOutAt: at, Currency: r.Currency}
		for _, b := range r.Rooms {
			if b.HotelID == hotelID {
				line.Rooms = append(line.Rooms, b.RoomNumber)
				line.TotalPrice += b.Price
			}
		}
		sort.Strings(line.Rooms)
		out = append(out, line)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckedOutAt.Equal(out[j].CheckedOutAt) {
			return out[i].CheckedOutAt.Before(out[j].CheckedOutAt)
		}
		return out[i].ReservationID < out[j].ReservationID
	})
	return out, nil
}

func holdsHotel(r domain.Reservation, hotelID int64) bool {
	for _, b := range r.Rooms {
		if b.HotelID == hotelID {
			return true
		}
	}
	return false
}

func cloneReservation(r domain.Reservation) domain.Reservation {
	r.Rooms = append([]domain.RoomBinding(nil), r.Rooms...)
	if r.ActualCheckIn != nil {
		t := *r.ActualCheckIn
		r.ActualCheckIn = &t
	}
	if r.ActualCheckOut != nil {
		t := *r.ActualCheckOut
		r.ActualCheckOut = &t
	}
	return r
}
