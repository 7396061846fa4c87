package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"hotel_core/internal/domain"
)

// CachedCatalog serves catalog reads from the cache, filling misses from
// the wrapped gateway. Concurrent misses for one key share a single load.
// The by-id lookups are never cached so bookings see current active flags
// and prices.
type CachedCatalog struct {
	next  domain.Catalog
	cache domain.Cache
	ttl   time.Duration
	sf    singleflight.Group
}

func NewCachedCatalog(next domain.Catalog, c domain.Cache, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{next: next, cache: c, ttl: ttl}
}

func (c *CachedCatalog) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	return cached(ctx, c, hotelKey(id), func() (domain.Hotel, error) { return c.next.GetHotel(ctx, id) })
}

func (c *CachedCatalog) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	return cached(ctx, c, "catalog:hotels", func() ([]domain.Hotel, error) { return c.next.ListHotels(ctx) })
}

func (c *CachedCatalog) GetRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error) {
	return cached(ctx, c, roomTypesKey(hotelID), func() ([]domain.RoomType, error) { return c.next.GetRoomTypes(ctx, hotelID) })
}

func (c *CachedCatalog) GetRoomType(ctx context.Context, id int64) (domain.RoomType, error) {
	return cached(ctx, c, roomTypeKey(id), func() (domain.RoomType, error) { return c.next.GetRoomType(ctx, id) })
}

func (c *CachedCatalog) GetRooms(ctx context.Context, roomTypeID int64) ([]domain.Room, error) {
	return cached(ctx, c, roomsKey(roomTypeID), func() ([]domain.Room, error) { return c.next.GetRooms(ctx, roomTypeID) })
}

func (c *CachedCatalog) GetRoomsByID(ctx context.Context, ids []int64) ([]domain.Room, error) {
	return c.next.GetRoomsByID(ctx, ids)
}

func (c *CachedCatalog) GetRoomTypesByID(ctx context.Context, ids []int64) ([]domain.RoomType, error) {
	return c.next.GetRoomTypesByID(ctx, ids)
}

// Invalidate drops every cached entry describing hotelID.
func (c *CachedCatalog) Invalidate(ctx context.Context, hotelID int64) {
	if c.cache == nil {
		return
	}
	if types, err := c.next.GetRoomTypes(ctx, hotelID); err == nil {
		for _, rt := range types {
			_ = c.cache.Del(ctx, roomTypeKey(rt.ID))
			_ = c.cache.Del(ctx, roomsKey(rt.ID))
		}
	}
	_ = c.cache.Del(ctx, hotelKey(hotelID))
	_ = c.cache.Del(ctx, roomTypesKey(hotelID))
	_ = c.cache.Del(ctx, "catalog:hotels")
}

func cached[T any](ctx context.Context, c *CachedCatalog, key string, load func() (T, error)) (T, error) {
	var out T
	if c.cache == nil {
		return load()
	}
	if ok, _ := c.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	v, err, _ := c.sf.Do(key, func() (any, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		_ = c.cache.Set(ctx, key, v, int(c.ttl.Seconds()))
		return v, nil
	})
	if err != nil {
		return out, err
	}
	return v.(T), nil
}

func hotelKey(id int64) string { return fmt.Sprintf("catalog:hotel:%d", id) }
func roomTypesKey(hotel int64) string { return fmt.Sprintf("catalog:hotel:%d:room-types", hotel) }
func roomTypeKey(id int64) string { return fmt.Sprintf("catalog:room-type:%d", id) }
func roomsKey(roomType int64) string { return fmt.Sprintf("catalog:room-type:%d:rooms", roomType) }
