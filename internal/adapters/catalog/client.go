// Package catalog is the HTTP gateway to the external hotel catalog service.
package catalog

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_core/internal/adapters/observability"
	"hotel_core/internal/domain"
)

const maxAttempts = 4

// Client implements domain.Catalog over the catalog service's REST API.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("catalog base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

func (c *Client) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	var out domain.Hotel
	err := c.get(ctx, "hotel", fmt.Sprintf("/hotels/%d", id), &out)
	return out, err
}

func (c *Client) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	var out []domain.Hotel
	return out, c.get(ctx, "hotels", "/hotels", &out)
}

func (c *Client) GetRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error) {
	var out []domain.RoomType
	return out, c.get(ctx, "room_types", fmt.Sprintf("/hotels/%d/room-types", hotelID), &out)
}

func (c *Client) GetRoomType(ctx context.Context, id int64) (domain.RoomType, error) {
	var out domain.RoomType
	err := c.get(ctx, "room_type", fmt.Sprintf("/room-types/%d", id), &out)
	return out, err
}

func (c *Client) GetRooms(ctx context.Context, roomTypeID int64) ([]domain.Room, error) {
	var out []domain.Room
	return out, c.get(ctx, "rooms", fmt.Sprintf("/room-types/%d/rooms", roomTypeID), &out)
}

func (c *Client) GetRoomsByID(ctx context.Context, ids []int64) ([]domain.Room, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []domain.Room
	if err := c.get(ctx, "rooms_by_id", "/rooms?"+idsQuery(ids), &out); err != nil {
		return nil, err
	}
	found := make(map[int64]bool, len(out))
	for _, r := range out {
		found[r.ID] = true
	}
	if id, ok := firstMissing(ids, found); ok {
		return nil, fmt.Errorf("%w: room %d", domain.ErrNotFound, id)
	}
	return out, nil
}

func (c *Client) GetRoomTypesByID(ctx context.Context, ids []int64) ([]domain.RoomType, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []domain.RoomType
	if err := c.get(ctx, "room_types_by_id", "/room-types?"+idsQuery(ids), &out); err != nil {
		return nil, err
	}
	found := make(map[int64]bool, len(out))
	for _, rt := range out {
		found[rt.ID] = true
	}
	if id, ok := firstMissing(ids, found); ok {
		return nil, fmt.Errorf("%w: room type %d", domain.ErrNotFound, id)
	}
	return out, nil
}

func idsQuery(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return url.Values{"ids": {strings.Join(parts, ",")}}.Encode()
}

func firstMissing(ids []int64, found map[int64]bool) (int64, bool) {
	for _, id := range ids {
		if !found[id] {
			return id, true
		}
	}
	return 0, false
}

var errUnauthorized = errors.New("catalog: unauthorized")

// get performs a rate-limited GET and decodes the JSON body into out.
// 429 and 5xx are retried with backoff, honoring Retry-After; once retries
// run out the error is marked transient.
func (c *Client) get(ctx context.Context, endpoint, path string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
		if err != nil {
			return err
		}
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hotel-core/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("catalog", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return domain.Transient(lastErr)
		}
		observability.ObserveExternal("catalog", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("catalog %s: decode: %w", endpoint, err)
			}
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return fmt.Errorf("%w: catalog %s", domain.ErrNotFound, path)

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return errUnauthorized

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("catalog %s: remote %d", endpoint, resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return domain.Transient(lastErr)

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("catalog %s: bad status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return domain.Transient(lastErr)
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After as seconds or an HTTP-date; 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 100ms with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 100 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	return base + time.Duration(0.5*float64(b[0])/255.0*float64(base))
}
