package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	authhandler "github.com/petalmarket/companypage-api/domains/auth/be/handler"
	authservice "github.com/petalmarket/companypage-api/domains/auth/be/service"
	packageshandler "github.com/petalmarket/companypage-api/domains/packages/be/handler"
	packagesservice "github.com/petalmarket/companypage-api/domains/packages/be/service"
	slideshandler "github.com/petalmarket/companypage-api/domains/slides/be/handler"
	slidesservice "github.com/petalmarket/companypage-api/domains/slides/be/service"
	platformauth "github.com/petalmarket/companypage-api/platform/go/auth"
	"github.com/petalmarket/companypage-api/platform/go/identity"
	platformlogging "github.com/petalmarket/companypage-api/platform/go/logging"
	"github.com/petalmarket/companypage-api/platform/go/metrics"
	platformmiddleware "github.com/petalmarket/companypage-api/platform/go/middleware"
	"github.com/petalmarket/companypage-api/platform/go/persistence"
	"github.com/petalmarket/companypage-api/platform/go/storage"
	"github.com/petalmarket/companypage-api/platform/go/tenant"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`

	AuthProvider        string `env:"AUTH_PROVIDER" envDefault:"firebase"` // firebase | dev
	FirebaseWebAPIKey   string `env:"FIREBASE_WEB_API_KEY"`                // required when AUTH_PROVIDER=firebase
	FirebaseCredentials string `env:"FIREBASE_CREDENTIALS_FILE"`           // optional; falls back to ADC
	DevAuthSecret       string `env:"DEV_AUTH_SECRET"`                     // required when AUTH_PROVIDER=dev

	StorageBackend     string `env:"STORAGE_BACKEND" envDefault:"gcs"`               // gcs | local
	StorageBucket      string `env:"STORAGE_BUCKET"`                                 // required when STORAGE_BACKEND=gcs
	StorageLocalDir    string `env:"STORAGE_LOCAL_DIR" envDefault:"./.data/storage"` // used when STORAGE_BACKEND=local
	PublicAssetBaseURL string `env:"PUBLIC_ASSET_BASE_URL" envDefault:"http://localhost:3000/assets"`

	LoginRatePerMinute int `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	LoginRateBurst     int `env:"LOGIN_RATE_BURST" envDefault:"5"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "companypage-api",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	if err = persistence.Bootstrap(ctx, pool); err != nil {
		logger.Fatal("bootstrap schema", zap.Error(err))
	}

	profileStore, err := persistence.NewProfileStore(pool)
	if err != nil {
		logger.Fatal("init profile store", zap.Error(err))
	}
	companyStore, err := persistence.NewCompanyStore(pool)
	if err != nil {
		logger.Fatal("init company store", zap.Error(err))
	}
	slideStore, err := persistence.NewSlideStore(pool)
	if err != nil {
		logger.Fatal("init slide store", zap.Error(err))
	}
	packageStore, err := persistence.NewPackageStore(pool)
	if err != nil {
		logger.Fatal("init package store", zap.Error(err))
	}

	verifier := buildVerifier(ctx, cfg, logger)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	uploader := meteredUploader{
		Uploader:  buildUploader(ctx, cfg, logger),
		collector: collector,
	}

	tenants := tenant.NewResolver(companyStore)

	authSvc := authservice.New(verifier, profileStore, logger)
	authHandler := authhandler.New(authSvc, logger)

	slidesHandler := slideshandler.New(
		slidesservice.New(slideStore, uploader, logger), tenants, logger)
	packagesHandler := packageshandler.New(
		packagesservice.New(packageStore, companyStore, uploader, logger), tenants, logger)

	loginLimiter := platformmiddleware.NewLoginRateLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst)
	defer loginLimiter.Stop()

	router := chi.NewRouter()
	router.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)
	router.Use(platformlogging.RequestLogger(logger))
	router.Use(collector.Middleware())

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics", metrics.Handler(registry))

	router.Route("/auth", func(r chi.Router) {
		r.With(loginLimiter.Middleware()).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
	})

	router.Group(func(r chi.Router) {
		r.Use(platformauth.RequireProfile(authSvc))

		r.Post("/slides", slidesHandler.Upsert)
		r.Get("/slides", slidesHandler.Get)

		r.Post("/packages", packagesHandler.Upsert)
		r.Get("/packages", packagesHandler.Get)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildVerifier(ctx context.Context, cfg config, logger *zap.Logger) identity.Verifier {
	switch cfg.AuthProvider {
	case "firebase":
		if cfg.FirebaseWebAPIKey == "" {
			logger.Fatal("firebase web api key required when AUTH_PROVIDER=firebase")
		}
		var credentials *string
		if cfg.FirebaseCredentials != "" {
			credentials = &cfg.FirebaseCredentials
		}
		verifier, err := identity.NewFirebaseVerifier(ctx, cfg.FirebaseWebAPIKey, credentials)
		if err != nil {
			logger.Fatal("init firebase verifier", zap.Error(err))
		}
		return verifier
	case "dev":
		if cfg.DevAuthSecret == "" {
			logger.Fatal("dev auth secret required when AUTH_PROVIDER=dev")
		}
		logger.Warn("using dev auth provider; tokens are locally signed")
		return identity.NewDevVerifier(cfg.DevAuthSecret)
	default:
		logger.Fatal("invalid AUTH_PROVIDER (use firebase or dev)", zap.String("provider", cfg.AuthProvider))
		return nil
	}
}

func buildUploader(ctx context.Context, cfg config, logger *zap.Logger) storage.Uploader {
	switch cfg.StorageBackend {
	case "gcs":
		if cfg.StorageBucket == "" {
			logger.Fatal("storage bucket required when STORAGE_BACKEND=gcs")
		}
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			logger.Fatal("init gcs client", zap.Error(err))
		}
		return storage.NewGCSUploader(client, cfg.StorageBucket)
	case "local":
		if strings.TrimSpace(cfg.StorageLocalDir) == "" {
			logger.Fatal("storage local dir required when STORAGE_BACKEND=local")
		}
		uploader, err := storage.NewLocalUploader(cfg.StorageLocalDir, cfg.PublicAssetBaseURL)
		if err != nil {
			logger.Fatal("init local uploader", zap.Error(err))
		}
		return uploader
	default:
		logger.Fatal("invalid STORAGE_BACKEND (use gcs or local)", zap.String("backend", cfg.StorageBackend))
		return nil
	}
}

// meteredUploader counts successful uploads without the domain services
// knowing about metrics.
type meteredUploader struct {
	storage.Uploader
	collector *metrics.Collector
}

func (u meteredUploader) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	url, err := u.Uploader.Upload(ctx, key, contentType, r)
	if err == nil {
		u.collector.RecordUpload()
	}
	return url, err
}
