package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hotel_core/internal/domain"
)

// Catalog reads the catalog tables when they live in the same database.
type Catalog struct{ db *sql.DB }

func NewCatalog(db *sql.DB) *Catalog { return &Catalog{db: db} }

func (c *Catalog) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	var h domain.Hotel
	var addr sql.NullString
	err := c.db.QueryRowContext(ctx, getHotelSQL, id).Scan(&h.ID, &h.Name, &addr)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Hotel{}, fmt.Errorf("hotel %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Hotel{}, storageErr(err)
	}
	h.Address = addr.String
	return h, nil
}

func (c *Catalog) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	rows, err := c.db.QueryContext(ctx, listHotelsSQL)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		var h domain.Hotel
		var addr sql.NullString
		if err := rows.Scan(&h.ID, &h.Name, &addr); err != nil {
			return nil, storageErr(err)
		}
		h.Address = addr.String
		out = append(out, h)
	}
	return out, storageErr(rows.Err())
}

func (c *Catalog) GetRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error) {
	rows, err := c.db.QueryContext(ctx, roomTypesByHotelSQL, hotelID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []domain.RoomType
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		out = append(out, rt)
	}
	return out, storageErr(rows.Err())
}

func (c *Catalog) GetRoomType(ctx context.Context, id int64) (domain.RoomType, error) {
	rt, err := scanRoomType(c.db.QueryRowContext(ctx, getRoomTypeSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RoomType{}, fmt.Errorf("room type %d: %w", id, domain.ErrNotFound)
	}
	return rt, storageErr(err)
}

func (c *Catalog) GetRoomTypesByID(ctx context.Context, ids []int64) ([]domain.RoomType, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ph, args := placeholders(ids)
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(roomTypesByIDSQL, ph), args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []domain.RoomType
	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		found[rt.ID] = true
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	for _, id := range ids {
		if !found[id] {
			return nil, fmt.Errorf("room type %d: %w", id, domain.ErrNotFound)
		}
	}
	return out, nil
}

func (c *Catalog) GetRooms(ctx context.Context, roomTypeID int64) ([]domain.Room, error) {
	return c.rooms(ctx, roomsByTypeSQL, roomTypeID)
}

func (c *Catalog) GetRoomsByID(ctx context.Context, ids []int64) ([]domain.Room, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ph, args := placeholders(ids)
	rooms, err := c.rooms(ctx, fmt.Sprintf(roomsByIDSQL, ph), args...)
	if err != nil {
		return nil, err
	}
	if len(rooms) != len(ids) {
		return nil, fmt.Errorf("rooms %v: %w", missing(ids, rooms), domain.ErrNotFound)
	}
	return rooms, nil
}

func (c *Catalog) rooms(ctx context.Context, query string, args ...any) ([]domain.Room, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		var r domain.Room
		if err := rows.Scan(&r.ID, &r.RoomTypeID, &r.Number, &r.Active); err != nil {
			return nil, storageErr(err)
		}
		out = append(out, r)
	}
	return out, storageErr(rows.Err())
}

func scanRoomType(s scanner) (domain.RoomType, error) {
	var rt domain.RoomType
	var krw, usd, php sql.NullString
	if err := s.Scan(&rt.ID, &rt.HotelID, &rt.Name, &rt.Capacity, &krw, &usd, &php, &rt.Active); err != nil {
		return domain.RoomType{}, err
	}
	rt.Prices = map[domain.Currency]domain.Amount{}
	for cur, ns := range map[domain.Currency]sql.NullString{domain.KRW: krw, domain.USD: usd, domain.PHP: php} {
		if !ns.Valid {
			continue
		}
		a, err := domain.ParseAmount(ns.String)
		if err != nil {
			return domain.RoomType{}, err
		}
		rt.Prices[cur] = a
	}
	return rt, nil
}

func missing(ids []int64, rooms []domain.Room) []int64 {
	found := make(map[int64]bool, len(rooms))
	for _, r := range rooms {
		found[r.ID] = true
	}
	var out []int64
	for _, id := range ids {
		if !found[id] {
			out = append(out, id)
		}
	}
	return out
}
