package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/villagetaxi/farequote/config"
	"github.com/villagetaxi/farequote/internal/geocode"
	"github.com/villagetaxi/farequote/internal/handler"
	"github.com/villagetaxi/farequote/internal/logger"
	"github.com/villagetaxi/farequote/internal/middleware"
	"github.com/villagetaxi/farequote/internal/repository"
	"github.com/villagetaxi/farequote/internal/service"
	"github.com/villagetaxi/farequote/internal/sink"
	"github.com/villagetaxi/farequote/internal/tariff"
	"github.com/villagetaxi/farequote/pkg/cache"
	"github.com/villagetaxi/farequote/pkg/db"
	"github.com/villagetaxi/farequote/pkg/geo"
)

func main() {
	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx := context.Background()

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}

	// ── Fare rules ──────────────────────────────────────
	fares, err := config.LoadFareTable(cfg.Fare.TableFile)
	if err != nil {
		return err
	}
	table, err := fares.Table(tariff.DefaultTable())
	if err != nil {
		return err
	}
	calendar, err := fares.Calendar(tariff.DefaultCalendar())
	if err != nil {
		return err
	}
	engine := tariff.NewEngine(table, calendar)
	area := service.NewLicenceArea(fares.Districts(service.DefaultLicenceDistricts())...)
	estimator := geo.NewEstimator(fares.RoadFactor)

	zl.Info("fare rules loaded",
		zap.String("source", fareSource(cfg.Fare.TableFile)),
		zap.Strings("licence_districts", area.Districts()),
		zap.Ints("calendar_years", calendar.Years()),
		zap.Float64("road_factor", estimator.RoadFactor))

	// ── Connect to backing stores ───────────────────────
	var pgPool *pgxpool.Pool
	if cfg.NeedsPostgres() {
		pgPool, err = db.NewPostgresPool(ctx, cfg.Postgres, zl)
		if err != nil {
			return err
		}
		defer pgPool.Close()
	}

	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis, zl)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	// ── Initialize layers ───────────────────────────────
	usageStore, err := newUsageStore(ctx, cfg.Usage, pgPool, redisClient)
	if err != nil {
		return err
	}
	geocoder, err := newGeocoder(cfg.Geocoder, redisClient, zl)
	if err != nil {
		return err
	}
	var delivery service.Sink = sink.NewLogSink(zl)
	if cfg.Submission.Sink == config.SinkWebhook {
		delivery = sink.NewWebhookSink(cfg.Submission.WebhookURL, cfg.Submission.Timeout)
	}

	usage := service.NewUsageTracker(usageStore, cfg.Usage.PopularMinCount, zl)
	quotes := service.NewQuoteService(service.QuoteDeps{
		Engine:    engine,
		Estimator: estimator,
		Area:      area,
		Geocoder:  geocoder,
		Usage:     usage,
		Config: service.QuoteConfig{
			MinDistanceMiles: cfg.Fare.MinDistanceMiles,
			MaxDistanceMiles: cfg.Fare.MaxDistanceMiles,
			Location:         loc,
		},
		Logger: zl,
	})
	submissions := service.NewSubmissionService(delivery, quotes, zl)

	quoteHandler := handler.NewQuoteHandler(quotes, zl)
	usageHandler := handler.NewUsageHandler(usage, cfg.Usage.PopularMinCount, zl)
	submissionHandler := handler.NewSubmissionHandler(submissions, zl)
	tariffHandler := handler.NewTariffHandler(engine, area, loc)

	// ── Setup router ────────────────────────────────────
	router := mux.NewRouter()
	router.Use(middleware.RequestID, middleware.RequestLogger(zl), middleware.Recoverer(zl))

	// Health check endpoint.
	router.HandleFunc("/health", healthHandler(pgPool, redisClient)).Methods(http.MethodGet)

	// API v1 routes.
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/quotes/postcode", quoteHandler.QuoteByPostcode).Methods(http.MethodPost)
	api.HandleFunc("/quotes/distance", quoteHandler.QuoteByDistance).Methods(http.MethodPost)
	api.HandleFunc("/routes/popular", usageHandler.PopularRoutes).Methods(http.MethodGet)
	api.HandleFunc("/quote-requests", submissionHandler.SubmitQuoteRequest).Methods(http.MethodPost)
	api.HandleFunc("/tariffs", tariffHandler.ListTariffs).Methods(http.MethodGet)
	api.HandleFunc("/tariffs/select", tariffHandler.SelectTariff).Methods(http.MethodGet)

	// Wrap with CORS so the browser quote form can call the API.
	root := middleware.CORS(router)

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening",
			zap.String("addr", cfg.Server.ServerAddr()),
			zap.String("usage_store", cfg.Usage.Backend),
			zap.String("geocoder", cfg.Geocoder.Provider),
			zap.String("submission_sink", cfg.Submission.Sink))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// ── Graceful shutdown ───────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		zl.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	zl.Info("server gracefully stopped")
	return nil
}

// newUsageStore builds the configured route usage backend. The file store is
// read eagerly so a corrupt file stops startup instead of failing lookups.
func newUsageStore(ctx context.Context, cfg config.UsageConfig, pgPool *pgxpool.Pool, redisClient *redis.Client) (service.UsageStore, error) {
	switch cfg.Backend {
	case config.UsageBackendPostgres:
		store := repository.NewPostgresUsageStore(pgPool)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case config.UsageBackendRedis:
		return repository.NewRedisUsageStore(redisClient, cfg.RedisKey), nil
	default:
		store := repository.NewFileUsageStore(cfg.FilePath)
		if _, err := store.Load(ctx); err != nil {
			return nil, fmt.Errorf("load usage file: %w", err)
		}
		return store, nil
	}
}

// newGeocoder builds the configured postcode provider, cached in Redis when
// a cache TTL is set.
func newGeocoder(cfg config.GeocoderConfig, redisClient *redis.Client, zl *zap.Logger) (service.Geocoder, error) {
	var provider geocode.Provider
	switch cfg.Provider {
	case config.GeocoderGoogle:
		g, err := geocode.NewGoogleGeocoder(cfg.GoogleAPIKey)
		if err != nil {
			return nil, err
		}
		provider = g
	default:
		provider = geocode.NewPostcodesIO(cfg.PostcodesBaseURL, cfg.Timeout)
	}

	if cfg.CacheTTL > 0 && redisClient != nil {
		return geocode.NewCached(provider, redisClient, cfg.CacheTTL, zl), nil
	}
	return provider, nil
}

func fareSource(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// healthHandler returns an HTTP handler that checks the stores in use.
// A nil pool or client is not configured and is skipped.
func healthHandler(pgPool *pgxpool.Pool, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Services: make(map[string]string),
		}

		if pgPool != nil {
			if err := db.HealthCheck(r.Context(), pgPool); err != nil {
				resp.Status = "degraded"
				resp.Services["postgres"] = "unhealthy: " + err.Error()
			} else {
				resp.Services["postgres"] = "healthy"
			}
		}

		if redisClient != nil {
			if err := cache.HealthCheck(r.Context(), redisClient); err != nil {
				resp.Status = "degraded"
				resp.Services["redis"] = "unhealthy: " + err.Error()
			} else {
				resp.Services["redis"] = "healthy"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}
