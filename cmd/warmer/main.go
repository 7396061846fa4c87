package main

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_core/internal/adapters/catalog"
	"hotel_core/internal/adapters/observability"
	redisad "hotel_core/internal/adapters/redis"
	"hotel_core/internal/app"
	"hotel_core/internal/domain"
	"hotel_core/internal/shared"
	mysqlrepo "hotel_core/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("catalog", cfg.CatalogBase).
		Int("workers", cfg.WarmWorkers).
		Msg("catalog warmer starting")

	var source domain.Catalog
	if cfg.CatalogBase != "" {
		cl, err := catalog.New(cfg.CatalogBase, cfg.CatalogKey, cfg.CatalogRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize catalog client")
		}
		source = cl
	} else {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		source = mysqlrepo.NewCatalog(db)
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}

	cat := app.NewCachedCatalog(source, cache, cfg.CacheTTL)
	warmer := app.NewCatalogWarmer(cat)

	// the hotel list itself must come from the source, not a stale cache entry
	hotels, err := source.ListHotels(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list hotels failed")
	}

	workers := cfg.WarmWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed atomic.Int64

	for _, h := range hotels {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}
		wg.Add(1)
		go func(hotelID int64) {
			defer wg.Done()
			defer sem.Release(1)

			if err := warmer.WarmHotel(ctx, hotelID); err != nil {
				failed.Add(1)
				log.Warn().Int64("hotel", hotelID).Err(err).Msg("warm failed")
				return
			}
			log.Debug().Int64("hotel", hotelID).Msg("warm ok")
		}(h.ID)
	}

	wg.Wait()
	log.Info().Int("hotels", len(hotels)).Int64("failed", failed.Load()).Msg("catalog warm completed")
}
