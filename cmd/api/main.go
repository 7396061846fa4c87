package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotel_core/internal/adapters/catalog"
	server "hotel_core/internal/adapters/http_server"
	"hotel_core/internal/adapters/observability"
	redisad "hotel_core/internal/adapters/redis"
	"hotel_core/internal/app"
	"hotel_core/internal/domain"
	"hotel_core/internal/shared"
	mysqlrepo "hotel_core/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	if err := mysqlrepo.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}
	log.Info().Msg("database ready")

	// deps
	repo := mysqlrepo.New(db)
	var source domain.Catalog = mysqlrepo.NewCatalog(db)
	if cfg.CatalogBase != "" {
		cl, err := catalog.New(cfg.CatalogBase, cfg.CatalogKey, cfg.CatalogRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize catalog client")
		}
		source = cl
		log.Info().Str("base", cfg.CatalogBase).Msg("using remote catalog")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, catalog reads will miss")
	}
	cat := app.NewCachedCatalog(source, cache, cfg.CacheTTL)
	pricer := app.NewPricer(cat, repo)

	// http
	srv := server.New(cfg.RequestTimeout)
	srv.MountHandlers(&server.Handlers{
		Availability: app.NewAvailabilityService(cat, repo, cfg.LateCheckoutGrace),
		Pricer:       pricer,
		Bookings:     app.NewBookingService(cat, repo, pricer, cfg.LateCheckoutGrace),
		Lifecycle:    app.NewLifecycleService(repo),
		Settlement:   app.NewSettlementService(repo, cfg.SettlementTZ),
		Policies:     app.NewPolicyService(repo, cat),
		Loc:          cfg.SettlementTZ,
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdown)
	}()

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Dur("late_checkout_grace", cfg.LateCheckoutGrace).
		Str("settlement_tz", cfg.SettlementTZ.String()).
		Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
