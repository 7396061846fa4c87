package domain

import (
	"context"
	"time"
)

// Catalog is the read-only gateway to the hotel/room-type/room hierarchy.
type Catalog interface {
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotels(ctx context.Context) ([]Hotel, error)
	GetRoomTypes(ctx context.Context, hotelID int64) ([]RoomType, error)
	GetRoomType(ctx context.Context, id int64) (RoomType, error)
	GetRooms(ctx context.Context, roomTypeID int64) ([]Room, error)
	// GetRoomsByID and GetRoomTypesByID return ErrNotFound if any id is
	// unknown.
	GetRoomsByID(ctx context.Context, ids []int64) ([]Room, error)
	GetRoomTypesByID(ctx context.Context, ids []int64) ([]RoomType, error)
}

type PolicyRepository interface {
	ListPolicies(ctx context.Context, hotelID int64) ([]DiscountPolicy, error)
	GetPolicy(ctx context.Context, id int64) (DiscountPolicy, error)
	CreatePolicy(ctx context.Context, p DiscountPolicy) (DiscountPolicy, error)
	DeletePolicy(ctx context.Context, id int64) error
}

// BookingTx is storage as seen from inside one atomic booking unit.
type BookingTx interface {
	// LockRooms serializes concurrent units touching any of roomIDs until
	// the unit ends.
	LockRooms(ctx context.Context, roomIDs []int64) error
	Occupancies(ctx context.Context, roomIDs []int64, window Interval) ([]Occupancy, error)
	InsertReservation(ctx context.Context, r Reservation) (int64, error)
}

type ReservationRepository interface {
	// Atomically runs fn in one atomic unit; nothing fn wrote survives
	// if it returns an error. Write conflicts surface as ErrRoomUnavailable.
	Atomically(ctx context.Context, fn func(ctx context.Context, tx BookingTx) error) error

	// Occupancies lists blocking room holdings with CheckIn < window.End and
	// CheckOut > window.Start.
	Occupancies(ctx context.Context, roomIDs []int64, window Interval) ([]Occupancy, error)

	GetReservation(ctx context.Context, id int64) (Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]Reservation, error)
	ListByHotel(ctx context.Context, hotelID int64, window Interval) ([]Reservation, error)

	// CompareAndSetStatus moves id from -> to in one step and stamps the
	// matching actual check-in/out time with at. It returns ErrNotFound or
	// ErrInvalidTransition when the precondition does not hold.
	CompareAndSetStatus(ctx context.Context, id int64, from, to Status, at time.Time) error

	// SettlementLines lists checked-out reservations holding a room of
	// hotelID whose effective checkout lies in window, ordered by it.
	SettlementLines(ctx context.Context, hotelID int64, window Interval) ([]SettlementLine, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
