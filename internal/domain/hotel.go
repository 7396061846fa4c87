package domain

import "fmt"

// Catalog entities are owned by the external catalog service and are only
// ever read here.

type Hotel struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type RoomType struct {
	ID       int64               `json:"id"`
	HotelID  int64               `json:"hotelId"`
	Name     string              `json:"name"`
	Capacity int                 `json:"capacity"`
	Prices   map[Currency]Amount `json:"prices"`
	Active   bool                `json:"active"`
}

// Price returns the nightly price in cur.
func (rt RoomType) Price(cur Currency) (Amount, error) {
	p, ok := rt.Prices[cur]
	if !ok {
		return 0, fmt.Errorf("%w: room type %d has no %s price", ErrUnsupportedCurrency, rt.ID, cur)
	}
	return p, nil
}

type Room struct {
	ID         int64  `json:"id"`
	RoomTypeID int64  `json:"roomTypeId"`
	Number     string `json:"number"`
	Active     bool   `json:"active"`
}

// RoomOffer is one free room returned by a search.
type RoomOffer struct {
	Hotel    Hotel               `json:"hotel"`
	RoomType RoomType            `json:"roomType"`
	Room     Room                `json:"room"`
	Prices   map[Currency]Amount `json:"prices"`
}
