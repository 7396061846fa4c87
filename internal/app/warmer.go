package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"hotel_core/internal/domain"
)

// CatalogWarmer refreshes the cached view of one hotel at a time.
type CatalogWarmer struct {
	catalog *CachedCatalog
}

func NewCatalogWarmer(c *CachedCatalog) *CatalogWarmer {
	return &CatalogWarmer{catalog: c}
}

// WarmHotel evicts the hotel's entries and loads them again. A hotel the
// catalog no longer knows is evicted and skipped.
func (w *CatalogWarmer) WarmHotel(ctx context.Context, id int64) error {
	w.catalog.Invalidate(ctx, id)

	if _, err := w.catalog.GetHotel(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Int64("hotel", id).Msg("hotel missing from catalog, evicted")
			return nil
		}
		return err
	}
	types, err := w.catalog.GetRoomTypes(ctx, id)
	if err != nil {
		return fmt.Errorf("room types of hotel %d: %w", id, err)
	}
	for _, rt := range types {
		if _, err := w.catalog.GetRoomType(ctx, rt.ID); err != nil {
			return err
		}
		if _, err := w.catalog.GetRooms(ctx, rt.ID); err != nil {
			return fmt.Errorf("rooms of type %d: %w", rt.ID, err)
		}
	}
	return nil
}
