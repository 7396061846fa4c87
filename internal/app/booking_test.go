package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hotel_core/internal/app"
	"hotel_core/internal/domain"
)

func TestBook_PricesEachRoomAndBindsAll(t *testing.T) {
	s := newServices()
	ctx := context.Background()
	if _, err := s.policies.Create(ctx, domain.DiscountPolicy{HotelID: 1, Name: "Week", MinDays: 7, Kind: domain.DiscountPercentage, Rate: 1000}); err != nil {
		t.Fatal(err)
	}

	r, err := s.book.Book(ctx, app.BookRequest{
		Guest:    domain.Guest{UserID: 7, Name: "Ana"},
		RoomIDs:  []int64{103, 101, 101},
		Interval: iv("2024-01-01T15:00:00Z", "2024-01-08T11:00:00Z"),
		Guests:   3,
		Currency: "usd",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	// 7 nights: (100 + 60) * 7 = 1120.00, less 10% = 1008.00
	if r.TotalPrice != 100800 || r.DiscountAmount != 11200 {
		t.Fatalf("total=%s discount=%s", r.TotalPrice, r.DiscountAmount)
	}
	if r.Status != domain.StatusConfirmed || r.Currency != domain.USD || r.Reference == "" || r.DiscountPolicyName != "Week" {
		t.Fatalf("unexpected reservation %+v", r)
	}
	if len(r.Rooms) != 2 || r.Rooms[0].RoomID != 101 || r.Rooms[0].Price != 63000 || r.Rooms[1].Price != 37800 {
		t.Fatalf("unexpected bindings %+v", r.Rooms)
	}

	stored, err := s.book.Get(ctx, r.ID)
	if err != nil || stored.Reference != r.Reference {
		t.Fatalf("get: %+v %v", stored, err)
	}
	mine, _ := s.book.Mine(ctx, 7)
	if len(mine) != 1 {
		t.Fatalf("expected one reservation for user 7, got %d", len(mine))
	}
}

func TestBook_AllOrNothing(t *testing.T) {
	s := newServices()
	ctx := context.Background()
	stay := iv("2024-01-10T13:00:00Z", "2024-01-11T11:00:00Z")
	s.mustBook(app.BookRequest{RoomIDs: []int64{102}, Interval: stay})

	_, err := s.book.Book(ctx, app.BookRequest{RoomIDs: []int64{101, 102}, Interval: stay, Guests: 2, Currency: domain.USD})
	if !errors.Is(err, domain.ErrRoomUnavailable) {
		t.Fatalf("expected ErrRoomUnavailable, got %v", err)
	}

	occ, _ := s.store.Occupancies(ctx, []int64{101}, stay)
	if len(occ) != 0 {
		t.Fatalf("rejected booking must not hold room 101, got %+v", occ)
	}
	day, _ := s.book.HotelDay(ctx, 1, at("2024-01-10T00:00:00Z"))
	if len(day) != 1 {
		t.Fatalf("expected exactly the first reservation, got %d", len(day))
	}
}

func TestBook_LateCheckoutCandidateIsExtended(t *testing.T) {
	s := newServices()
	ctx := context.Background()
	s.mustBook(app.BookRequest{RoomIDs: []int64{101}, Interval: iv("2024-01-11T13:00:00Z", "2024-01-12T11:00:00Z")})

	// ends at 11:00 but the late checkout holds the room until 15:00
	_, err := s.book.Book(ctx, app.BookRequest{
		RoomIDs: []int64{101}, Interval: iv("2024-01-10T13:00:00Z", "2024-01-11T11:00:00Z"),
		Guests: 1, Currency: domain.USD, LateCheckout: true,
	})
	if !errors.Is(err, domain.ErrRoomUnavailable) {
		t.Fatalf("expected ErrRoomUnavailable, got %v", err)
	}

	if _, err := s.book.Book(ctx, app.BookRequest{
		RoomIDs: []int64{101}, Interval: iv("2024-01-10T13:00:00Z", "2024-01-11T11:00:00Z"),
		Guests: 1, Currency: domain.USD,
	}); err != nil {
		t.Fatalf("back-to-back stay without late checkout must succeed: %v", err)
	}
}

func TestBook_ConcurrentSameRoom(t *testing.T) {
	s := newServices()
	ctx := context.Background()
	stay := iv("2024-05-01T15:00:00Z", "2024-05-03T11:00:00Z")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.book.Book(ctx, app.BookRequest{RoomIDs: []int64{201}, Interval: stay, Guests: 2, Currency: domain.PHP})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, domain.ErrRoomUnavailable):
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one booking to win, got %d", ok)
	}
}

func TestBook_Rejections(t *testing.T) {
	s := newServices()
	ctx := context.Background()
	stay := iv("2024-01-10T13:00:00Z", "2024-01-11T11:00:00Z")

	cases := []struct {
		name string
		req  app.BookRequest
		want error
	}{
		{"empty", app.BookRequest{Interval: stay, Guests: 1, Currency: domain.USD}, domain.ErrEmptySelection},
		{"interval", app.BookRequest{RoomIDs: []int64{101}, Interval: domain.Interval{Start: stay.End, End: stay.Start}, Guests: 1, Currency: domain.USD}, domain.ErrInvalidInterval},
		{"guests", app.BookRequest{RoomIDs: []int64{101}, Interval: stay, Guests: 0, Currency: domain.USD}, domain.ErrInvalidGuestCount},
		{"currency", app.BookRequest{RoomIDs: []int64{101}, Interval: stay, Guests: 1, Currency: "EUR"}, domain.ErrUnsupportedCurrency},
		{"no price", app.BookRequest{RoomIDs: []int64{103}, Interval: stay, Guests: 1, Currency: domain.KRW}, domain.ErrUnsupportedCurrency},
		{"unknown room", app.BookRequest{RoomIDs: []int64{101, 999}, Interval: stay, Guests: 1, Currency: domain.USD}, domain.ErrNotFound},
	}
	for _, c := range cases {
		if _, err := s.book.Book(ctx, c.req); !errors.Is(err, c.want) {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, err)
		}
	}
	if mine, _ := s.book.Mine(ctx, 0); len(mine) != 0 {
		t.Fatalf("rejected bookings must not persist, got %d", len(mine))
	}
}

func TestBook_InactiveRoomIsUnavailable(t *testing.T) {
	s := newServices()
	s.store.PutRoom(domain.Room{ID: 104, RoomTypeID: 10, Number: "104", Active: false})
	_, err := s.book.Book(context.Background(), app.BookRequest{
		RoomIDs: []int64{104}, Interval: iv("2024-01-10T13:00:00Z", "2024-01-11T11:00:00Z"), Guests: 1, Currency: domain.USD,
	})
	if !errors.Is(err, domain.ErrRoomUnavailable) {
		t.Fatalf("expected ErrRoomUnavailable, got %v", err)
	}
}
