package app_test

import (
	"context"
	"sync"
	"time"

	"hotel_core/internal/app"
	"hotel_core/internal/domain"
	"hotel_core/internal/storage/memory"
)

const grace = 4 * time.Hour

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func iv(in, out string) domain.Interval { return domain.Interval{Start: at(in), End: at(out)} }

// seed builds two hotels:
//
//	hotel 1: type 10 "Double" (cap 2, USD 100 / KRW 130000) rooms 101, 102
//	         type 11 "Single" (cap 1, USD 60, no KRW) room 103
//	hotel 2: type 20 "Suite" (cap 4, USD 300 / PHP 15000) room 201
func seed() *memory.Store {
	st := memory.New()
	st.PutHotel(domain.Hotel{ID: 1, Name: "Seaside"})
	st.PutHotel(domain.Hotel{ID: 2, Name: "Hillside"})
	st.PutRoomType(domain.RoomType{ID: 10, HotelID: 1, Name: "Double", Capacity: 2, Active: true,
		Prices: map[domain.Currency]domain.Amount{domain.USD: 10000, domain.KRW: 13000000}})
	st.PutRoomType(domain.RoomType{ID: 11, HotelID: 1, Name: "Single", Capacity: 1, Active: true,
		Prices: map[domain.Currency]domain.Amount{domain.USD: 6000}})
	st.PutRoomType(domain.RoomType{ID: 20, HotelID: 2, Name: "Suite", Capacity: 4, Active: true,
		Prices: map[domain.Currency]domain.Amount{domain.USD: 30000, domain.PHP: 1500000}})
	st.PutRoom(domain.Room{ID: 101, RoomTypeID: 10, Number: "101", Active: true})
	st.PutRoom(domain.Room{ID: 102, RoomTypeID: 10, Number: "102", Active: true})
	st.PutRoom(domain.Room{ID: 103, RoomTypeID: 11, Number: "103", Active: true})
	st.PutRoom(domain.Room{ID: 201, RoomTypeID: 20, Number: "201", Active: true})
	return st
}

type services struct {
	store     *memory.Store
	avail     *app.AvailabilityService
	pricer    *app.Pricer
	book      *app.BookingService
	lifecycle *app.LifecycleService
	settle    *app.SettlementService
	policies  *app.PolicyService
	clock     *clock
}

// clock is a settable time source shared by the services under test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newServices() *services {
	st := seed()
	clk := &clock{now: at("2024-01-01T00:00:00Z")}
	pricer := app.NewPricer(st, st)
	return &services{
		store:     st,
		avail:     app.NewAvailabilityService(st, st, grace),
		pricer:    pricer,
		book:      app.NewBookingService(st, st, pricer, grace).WithClock(clk.Now),
		lifecycle: app.NewLifecycleService(st).WithClock(clk.Now),
		settle:    app.NewSettlementService(st, time.UTC),
		policies:  app.NewPolicyService(st, st),
		clock:     clk,
	}
}

func (s *services) mustBook(req app.BookRequest) domain.Reservation {
	if req.Guests == 0 {
		req.Guests = 1
	}
	if req.Currency == "" {
		req.Currency = domain.USD
	}
	r, err := s.book.Book(context.Background(), req)
	if err != nil {
		panic(err)
	}
	return r
}

func roomIDs(offers []domain.RoomOffer) []int64 {
	out := make([]int64, len(offers))
	for i, o := range offers {
		out[i] = o.Room.ID
	}
	return out
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
