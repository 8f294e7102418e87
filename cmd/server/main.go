package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"facility-route-service/internal/adapters/cache"
	"facility-route-service/internal/adapters/osrm"
	"facility-route-service/internal/adapters/overpass"
	"facility-route-service/internal/adapters/repositories"
	"facility-route-service/internal/adapters/spatial"
	"facility-route-service/internal/api"
	"facility-route-service/internal/config"
	"facility-route-service/internal/platform/db"
	"facility-route-service/internal/platform/obs"
	"facility-route-service/internal/ports"
	"facility-route-service/internal/services"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const userAgent = "facility-route-service/1.0"

// main is the application composition root.
// It wires concrete adapters (Overpass, OSRM, Redis, Postgres) behind ports and starts the HTTP server.
func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load("facility-route-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	obs.InitLogger(cfg.Log.Level, cfg.Log.Format)
	if envErr != nil {
		log.Debug().Msg("no .env file found (using environment variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := obs.SetupTracing(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			log.Warn().Err(err).Msg("telemetry init failed")
		} else {
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(flushCtx)
			}()
		}
	}

	var source ports.FacilitySource = overpass.NewClient(overpass.Options{
		BaseURL:             cfg.Overpass.URL,
		MaxRadiusMeters:     cfg.Overpass.MaxRadiusMeters,
		QueryTimeoutSeconds: cfg.Overpass.QueryTimeout,
		UserAgent:           userAgent,
		HTTPClient:          &http.Client{Timeout: time.Duration(cfg.Overpass.ClientTimeout) * time.Second},
	})

	// Repeated searches around the same spot are served from Redis when configured.
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, facility cache will fall through")
		}
		source = cache.NewRedisFacilityCache(source, rdb, time.Duration(cfg.Redis.FacilityTTL)*time.Second)
	}

	router := osrm.NewClient(osrm.Options{
		BaseURL:    cfg.OSRM.URL,
		Profile:    cfg.OSRM.Profile,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: time.Duration(cfg.OSRM.ClientTimeout) * time.Second},
	})

	var routeCache ports.RouteCache
	if cfg.Database.URL != "" {
		sqlDB, err := openRouteCache(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("database")
		}
		defer sqlDB.Close()
		routeCache = cache.NewSQLRouteCache(sqlDB, time.Duration(cfg.Database.RouteCacheTTL)*time.Second)
	}

	policy := services.SearchPolicy{
		InitialRadiusMeters: cfg.Search.InitialRadiusMeters,
		MaxAttempts:         cfg.Search.MaxAttempts,
		RadiusMultiplier:    cfg.Search.RadiusMultiplier,
	}
	planner := services.NewRoutePlanner(router, routeCache)
	sessions := services.NewSessionStore(
		func() ports.FacilityIndex { return spatial.NewRTreeIndex() },
		time.Duration(cfg.Session.IdleTTL)*time.Second,
	)
	go sessions.Run(ctx, time.Duration(cfg.Session.SweepInterval)*time.Second)

	handler := api.NewRouter(api.Deps{
		Finder:    services.NewFacilityFinder(services.NewRadiusSearch(source), policy),
		Planner:   planner,
		Estimator: services.NewTravelEstimator(planner, services.DefaultEstimateConcurrency),
		Sessions:  sessions,
		Bounds:    services.DurationBounds{Min: cfg.Animation.Min(), Max: cfg.Animation.Max()},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("listen")
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}

// openRouteCache connects to Postgres and makes sure the route cache table exists.
func openRouteCache(ctx context.Context, url string) (*sql.DB, error) {
	sqlDB, err := db.Open(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open route cache: %w", err)
	}
	if err := repositories.InitSchema(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open route cache: %w", err)
	}
	return sqlDB, nil
}
