package domain

import "time"

type SettlementLine struct {
	ReservationID int64     `json:"reservationId"`
	Reference     string    `json:"reference"`
	CheckedOutAt  time.Time `json:"checkedOutAt"`
	Rooms         []string  `json:"rooms"`
	TotalPrice    Amount    `json:"totalPrice"`
	Currency      Currency  `json:"currency"`
}

type Settlement struct {
	HotelID int64               `json:"hotelId"`
	From    time.Time           `json:"from"`
	To      time.Time           `json:"to"`
	Lines   []SettlementLine    `json:"lines"`
	Totals  map[Currency]Amount `json:"totalsByCurrency"`
}
