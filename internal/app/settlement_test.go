package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotel_core/internal/app"
	"hotel_core/internal/domain"
)

// stayAndLeave books, checks in and checks out at the given instant.
func (s *services) stayAndLeave(t *testing.T, req app.BookRequest, leave string) domain.Reservation {
	t.Helper()
	ctx := context.Background()
	r := s.mustBook(req)
	if _, err := s.lifecycle.CheckIn(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	s.clock.Set(at(leave))
	out, err := s.lifecycle.CheckOut(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestSettlement_MonthGroupedByCurrency(t *testing.T) {
	s := newServices()
	ctx := context.Background()

	a := s.stayAndLeave(t, app.BookRequest{RoomIDs: []int64{101}, Interval: iv("2024-01-10T13:00:00Z", "2024-01-12T11:00:00Z")}, "2024-01-12T10:00:00Z")
	b := s.stayAndLeave(t, app.BookRequest{RoomIDs: []int64{102}, Interval: iv("2024-01-03T13:00:00Z", "2024-01-04T11:00:00Z"), Currency: domain.KRW}, "2024-01-04T09:00:00Z")
	c := s.stayAndLeave(t, app.BookRequest{RoomIDs: []int64{103}, Interval: iv("2024-01-30T13:00:00Z", "2024-01-31T11:00:00Z")}, "2024-01-31T23:59:59Z")

	// outside the range, or not checked out
	s.stayAndLeave(t, app.BookRequest{RoomIDs: []int64{101}, Interval: iv("2024-01-31T13:00:00Z", "2024-02-01T11:00:00Z")}, "2024-02-01T00:00:00Z")
	s.mustBook(app.BookRequest{RoomIDs: []int64{102}, Interval: iv("2024-01-20T13:00:00Z", "2024-01-21T11:00:00Z")})
	in := s.mustBook(app.BookRequest{RoomIDs: []int64{103}, Interval: iv("2024-01-22T13:00:00Z", "2024-01-23T11:00:00Z")})
	if _, err := s.lifecycle.CheckIn(ctx, in.ID); err != nil {
		t.Fatal(err)
	}
	// another hotel
	s.stayAndLeave(t, app.BookRequest{RoomIDs: []int64{201}, Interval: iv("2024-01-15T13:00:00Z", "2024-01-16T11:00:00Z")}, "2024-01-16T10:00:00Z")

	rep, err := s.settle.Report(ctx, 1, at("2024-01-01T00:00:00Z"), at("2024-01-31T00:00:00Z"))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(rep.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %+v", rep.Lines)
	}
	order := []int64{b.ID, a.ID, c.ID}
	for i, id := range order {
		if rep.Lines[i].ReservationID != id {
			t.Fatalf("lines not ordered by checkout: %+v", rep.Lines)
		}
	}
	if got := rep.Totals[domain.USD]; got != a.TotalPrice+c.TotalPrice {
		t.Fatalf("USD total %s, want %s", got, a.TotalPrice+c.TotalPrice)
	}
	if got := rep.Totals[domain.KRW]; got != b.TotalPrice {
		t.Fatalf("KRW total %s, want %s", got, b.TotalPrice)
	}
	if _, ok := rep.Totals[domain.PHP]; ok {
		t.Fatalf("no PHP stays were settled")
	}
	if !rep.To.Equal(at("2024-01-31T23:59:59Z")) {
		t.Fatalf("range end = %s", rep.To)
	}
}

func TestSettlement_MultiHotelReservationCountsOwnRooms(t *testing.T) {
	s := newServices()
	r := s.stayAndLeave(t, app.BookRequest{RoomIDs: []int64{101, 201}, Interval: iv("2024-01-10T13:00:00Z", "2024-01-11T11:00:00Z")}, "2024-01-11T10:00:00Z")

	one, _ := s.settle.Report(context.Background(), 1, at("2024-01-11T00:00:00Z"), at("2024-01-11T00:00:00Z"))
	two, _ := s.settle.Report(context.Background(), 2, at("2024-01-11T00:00:00Z"), at("2024-01-11T00:00:00Z"))
	if one.Totals[domain.USD] != 10000 || two.Totals[domain.USD] != 30000 {
		t.Fatalf("hotel totals %s / %s", one.Totals[domain.USD], two.Totals[domain.USD])
	}
	if one.Totals[domain.USD]+two.Totals[domain.USD] != r.TotalPrice {
		t.Fatalf("per-hotel totals must add up to the reservation total")
	}
}

func TestSettlement_LocalCalendarDays(t *testing.T) {
	s := newServices()
	seoul := time.FixedZone("KST", 9*60*60)
	svc := app.NewSettlementService(s.store, seoul)

	// 2024-01-11 20:00 UTC is 2024-01-12 05:00 in Seoul
	s.stayAndLeave(t, app.BookRequest{RoomIDs: []int64{101}, Interval: iv("2024-01-10T13:00:00Z", "2024-01-11T11:00:00Z")}, "2024-01-11T20:00:00Z")

	day11, _ := svc.Report(context.Background(), 1, time.Date(2024, 1, 11, 0, 0, 0, 0, seoul), time.Date(2024, 1, 11, 0, 0, 0, 0, seoul))
	day12, _ := svc.Report(context.Background(), 1, time.Date(2024, 1, 12, 0, 0, 0, 0, seoul), time.Date(2024, 1, 12, 0, 0, 0, 0, seoul))
	if len(day11.Lines) != 0 || len(day12.Lines) != 1 {
		t.Fatalf("checkout must land on the local calendar day: %d / %d", len(day11.Lines), len(day12.Lines))
	}
}

func TestSettlement_InvertedRange(t *testing.T) {
	s := newServices()
	_, err := s.settle.Report(context.Background(), 1, at("2024-02-01T00:00:00Z"), at("2024-01-01T00:00:00Z"))
	if !errors.Is(err, domain.ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}
