package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hotel_core/internal/adapters/catalog"
	"hotel_core/internal/domain"
)

func TestClient_GetRoomType_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/room-types/7" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "k" {
			t.Errorf("missing api key header")
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			_, _ = w.Write([]byte(`{"id":7,"hotelId":1,"name":"Deluxe","capacity":2,"active":true,"prices":{"USD":100.00,"KRW":130000}}`))
		}
	}))
	defer ts.Close()

	cl, err := catalog.New(ts.URL, "k", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rt, err := cl.GetRoomType(ctx, 7)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rt.Name != "Deluxe" || rt.Prices[domain.USD] != 10000 || rt.Prices[domain.KRW] != 13000000 {
		t.Fatalf("unexpected payload: %+v", rt)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 calls due to retries, got %d", hits)
	}
}

func TestClient_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, _ := catalog.New(ts.URL, "", 100)
	_, err := cl.GetHotel(context.Background(), 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_ExhaustedRetriesAreTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	cl, _ := catalog.New(ts.URL, "", 100)
	_, err := cl.ListHotels(context.Background())
	if !errors.Is(err, domain.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestClient_GetRoomsByID_MissingRoom(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "1,2" {
			t.Errorf("ids = %q", got)
		}
		_ = json.NewEncoder(w).Encode([]domain.Room{{ID: 1, RoomTypeID: 7, Number: "101", Active: true}})
	}))
	defer ts.Close()

	cl, _ := catalog.New(ts.URL, "", 100)
	_, err := cl.GetRoomsByID(context.Background(), []int64{1, 2})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown room, got %v", err)
	}
}

func TestClient_GetRoomTypesByID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/room-types" || r.URL.Query().Get("ids") != "7,8" {
			t.Errorf("unexpected request %s", r.URL)
		}
		_ = json.NewEncoder(w).Encode([]domain.RoomType{{ID: 7, HotelID: 1, Name: "Double", Active: true}})
	}))
	defer ts.Close()

	cl, _ := catalog.New(ts.URL, "", 100)
	_, err := cl.GetRoomTypesByID(context.Background(), []int64{7, 8})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown room type, got %v", err)
	}
}
