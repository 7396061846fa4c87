package domain

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusCancelled  Status = "CANCELLED"
)

// Blocks reports whether a reservation in this status holds its rooms.
func (s Status) Blocks() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn: {StatusCheckedOut},
}

func (s Status) CanTransition(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Transition validates s -> to and returns ErrInvalidTransition otherwise.
func (s Status) Transition(to Status) error {
	if !s.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
	}
	return nil
}

type Guest struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// RoomBinding ties one room to a reservation with the price charged for it.
type RoomBinding struct {
	RoomID     int64  `json:"roomId"`
	RoomTypeID int64  `json:"roomTypeId"`
	HotelID    int64  `json:"hotelId"`
	RoomNumber string `json:"roomNumber"`
	Price      Amount `json:"price"`
}

type Reservation struct {
	ID                 int64         `json:"id"`
	Reference          string        `json:"reference"`
	Guest              Guest         `json:"guest"`
	Rooms              []RoomBinding `json:"rooms"`
	CheckIn            time.Time     `json:"checkInTime"`
	CheckOut           time.Time     `json:"checkOutTime"`
	ActualCheckIn      *time.Time    `json:"actualCheckInTime,omitempty"`
	ActualCheckOut     *time.Time    `json:"actualCheckOutTime,omitempty"`
	Currency           Currency      `json:"currency"`
	TotalPrice         Amount        `json:"totalPrice"`
	DiscountAmount     Amount        `json:"discountAmount"`
	DiscountPolicyName string        `json:"discountPolicyName,omitempty"`
	LateCheckout       bool          `json:"isLateCheckout"`
	Status             Status        `json:"status"`
	CreatedAt          time.Time     `json:"createdAt"`
}

func (r Reservation) Interval() Interval { return Interval{Start: r.CheckIn, End: r.CheckOut} }

// EffectiveCheckOut is the actual checkout when recorded, else the requested one.
func (r Reservation) EffectiveCheckOut() time.Time {
	if r.ActualCheckOut != nil {
		return *r.ActualCheckOut
	}
	return r.CheckOut
}

func (r Reservation) RoomIDs() []int64 {
	ids := make([]int64, len(r.Rooms))
	for i, b := range r.Rooms {
		ids[i] = b.RoomID
	}
	return ids
}

// Occupancy is one room held by one reservation.
type Occupancy struct {
	ReservationID int64
	RoomID        int64
	CheckIn       time.Time
	CheckOut      time.Time
	LateCheckout  bool
	Status        Status
}

// Blocking returns the interval during which the room is unavailable to
// others, with the late-checkout grace applied.
func (o Occupancy) Blocking(grace time.Duration) Interval {
	iv := Interval{Start: o.CheckIn, End: o.CheckOut}
	if o.LateCheckout {
		iv = iv.Extend(grace)
	}
	return iv
}
