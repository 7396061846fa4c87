package app_test

import (
	"context"
	"errors"
	"testing"

	"hotel_core/internal/app"
	"hotel_core/internal/domain"
)

func TestSearch_Room101Scenario(t *testing.T) {
	s := newServices()
	ctx := context.Background()
	s.mustBook(app.BookRequest{RoomIDs: []int64{101}, Interval: iv("2024-01-10T13:00:00Z", "2024-01-11T11:00:00Z"), Guests: 2})

	inside, err := s.avail.Search(ctx, app.SearchQuery{Interval: iv("2024-01-10T15:00:00Z", "2024-01-10T18:00:00Z"), Guests: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if contains(roomIDs(inside), 101) {
		t.Fatalf("room 101 must be excluded during the stay, got %v", roomIDs(inside))
	}

	after, err := s.avail.Search(ctx, app.SearchQuery{Interval: iv("2024-01-11T12:00:00Z", "2024-01-12T11:00:00Z"), Guests: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !contains(roomIDs(after), 101) {
		t.Fatalf("room 101 must be offered after checkout, got %v", roomIDs(after))
	}
}

func TestSearch_LateCheckoutExtendsBlock(t *testing.T) {
	s := newServices()
	s.mustBook(app.BookRequest{RoomIDs: []int64{101}, Interval: iv("2024-01-10T13:00:00Z", "2024-01-11T11:00:00Z"), LateCheckout: true})

	got, err := s.avail.Search(context.Background(), app.SearchQuery{Interval: iv("2024-01-11T12:00:00Z", "2024-01-12T11:00:00Z"), Guests: 1})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if contains(roomIDs(got), 101) {
		t.Fatalf("late checkout must keep room 101 blocked until 15:00")
	}

	later, _ := s.avail.Search(context.Background(), app.SearchQuery{Interval: iv("2024-01-11T15:00:00Z", "2024-01-12T11:00:00Z"), Guests: 1})
	if !contains(roomIDs(later), 101) {
		t.Fatalf("room 101 must be free once the grace window ends")
	}
}

func TestSearch_FiltersAndOrdering(t *testing.T) {
	s := newServices()
	ctx := context.Background()
	window := iv("2024-02-01T15:00:00Z", "2024-02-02T11:00:00Z")

	all, err := s.avail.Search(ctx, app.SearchQuery{Interval: window, Guests: 1})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := []int64{101, 102, 103, 201}
	got := roomIDs(all)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	big, _ := s.avail.Search(ctx, app.SearchQuery{Interval: window, Guests: 3})
	if ids := roomIDs(big); len(ids) != 1 || ids[0] != 201 {
		t.Fatalf("only the suite fits 3 guests, got %v", ids)
	}

	h := int64(2)
	scoped, _ := s.avail.Search(ctx, app.SearchQuery{HotelID: &h, Interval: window, Guests: 1})
	if ids := roomIDs(scoped); len(ids) != 1 || ids[0] != 201 {
		t.Fatalf("hotel scope ignored, got %v", ids)
	}

	none, _ := s.avail.Search(ctx, app.SearchQuery{Interval: window, Guests: 9})
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", none)
	}
}

func TestSearch_CancelledAndCheckedOutDoNotBlock(t *testing.T) {
	s := newServices()
	ctx := context.Background()
	stay := iv("2024-03-01T15:00:00Z", "2024-03-03T11:00:00Z")
	a := s.mustBook(app.BookRequest{RoomIDs: []int64{101}, Interval: stay})
	b := s.mustBook(app.BookRequest{RoomIDs: []int64{102}, Interval: stay})

	if _, err := s.lifecycle.Cancel(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.lifecycle.CheckIn(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.lifecycle.CheckOut(ctx, b.ID); err != nil {
		t.Fatal(err)
	}

	got, _ := s.avail.Search(ctx, app.SearchQuery{Interval: stay, Guests: 2})
	if ids := roomIDs(got); !contains(ids, 101) || !contains(ids, 102) {
		t.Fatalf("released rooms must be offered again, got %v", ids)
	}
}

func TestSearch_InvalidInput(t *testing.T) {
	s := newServices()
	ctx := context.Background()
	_, err := s.avail.Search(ctx, app.SearchQuery{Interval: iv("2024-01-11T11:00:00Z", "2024-01-10T13:00:00Z"), Guests: 1})
	if !errors.Is(err, domain.ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	_, err = s.avail.Search(ctx, app.SearchQuery{Interval: iv("2024-01-10T13:00:00Z", "2024-01-11T11:00:00Z"), Guests: 0})
	if !errors.Is(err, domain.ErrInvalidGuestCount) {
		t.Fatalf("expected ErrInvalidGuestCount, got %v", err)
	}
	missing := int64(99)
	_, err = s.avail.Search(ctx, app.SearchQuery{HotelID: &missing, Interval: iv("2024-01-10T13:00:00Z", "2024-01-11T11:00:00Z"), Guests: 1})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
