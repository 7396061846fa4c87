package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	// CatalogBase selects the HTTP catalog service; empty reads the
	// catalog tables from MySQL.
	CatalogBase string
	CatalogKey  string
	CatalogRPS  int

	LateCheckoutGrace time.Duration
	SettlementTZ      *time.Location
	WarmWorkers       int
	RequestTimeout    time.Duration
}

// Load reads the environment, after merging a .env file when present.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric setting")
		}
		return def
	}
	c := Config{
		AppEnv:            env("APP_ENV", "prod"),
		LogLevel:          env("LOG_LEVEL", "info"),
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		MetricsAddr:       env("METRICS_ADDR", ":9100"),
		MySQLDSN:          env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotel?parseTime=true&charset=utf8mb4&loc=UTC"),
		RedisAddr:         env("REDIS_ADDR", "localhost:6379"),
		RedisPass:         env("REDIS_PASSWORD", ""),
		RedisDB:           atoi("REDIS_DB", 0),
		CacheTTL:          time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		CatalogBase:       env("CATALOG_BASE_URL", ""),
		CatalogKey:        env("CATALOG_API_KEY", ""),
		CatalogRPS:        atoi("CATALOG_RPS", 20),
		LateCheckoutGrace: time.Duration(atoi("LATE_CHECKOUT_GRACE_MINUTES", 240)) * time.Minute,
		WarmWorkers:       atoi("WARM_WORKERS", 8),
		RequestTimeout:    time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
	}
	tz := env("SETTLEMENT_TZ", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn().Err(err).Str("tz", tz).Msg("unknown SETTLEMENT_TZ, using UTC")
		loc = time.UTC
	}
	c.SettlementTZ = loc
	if c.LateCheckoutGrace < 0 {
		c.LateCheckoutGrace = 0
	}
	if c.CatalogBase != "" && c.CatalogKey == "" {
		log.Warn().Msg("CATALOG_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
