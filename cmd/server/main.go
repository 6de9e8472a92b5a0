package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/aizah-price-admin/internal/catalog"
	"github.com/iliyamo/aizah-price-admin/internal/config"
	"github.com/iliyamo/aizah-price-admin/internal/database"
	"github.com/iliyamo/aizah-price-admin/internal/handler"
	"github.com/iliyamo/aizah-price-admin/internal/logger"
	"github.com/iliyamo/aizah-price-admin/internal/metrics"
	"github.com/iliyamo/aizah-price-admin/internal/middleware"
	"github.com/iliyamo/aizah-price-admin/internal/priceapi"
	"github.com/iliyamo/aizah-price-admin/internal/priceform"
	"github.com/iliyamo/aizah-price-admin/internal/queue"
	"github.com/iliyamo/aizah-price-admin/internal/repository"
	"github.com/iliyamo/aizah-price-admin/internal/router"
	"github.com/iliyamo/aizah-price-admin/internal/service"
	"github.com/iliyamo/aizah-price-admin/internal/session"
	"github.com/iliyamo/aizah-price-admin/internal/web"
)

const serviceName = "price-admin"

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	metrics.Init()

	rooms, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		lg.Fatal("load room catalog", zap.Error(err))
	}
	if dups := rooms.DuplicateNames(); len(dups) > 0 {
		lg.Warn("room catalog has duplicate names", zap.Strings("names", dups))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := priceapi.New(cfg.PriceAPIURL, cfg.PriceAPITimeout, lg)
	store := session.NewStore(cfg.SessionTTL, func() *priceform.Form {
		return priceform.New(client, rooms, lg)
	}, lg)
	go store.Run(ctx, time.Minute)

	rdb := openRedis(cfg, lg)
	if rdb != nil {
		defer rdb.Close()
	}

	var users handler.UserLister
	if cfg.DBEnabled() {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			lg.Warn("users database unavailable, users page disabled", zap.Error(err))
		} else {
			defer closeDB(db)
			users = repository.NewUserRepo(db)
		}
	}

	var events handler.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled && cfg.AMQPURL != "" {
		events = service.NewPricePublisher(cfg.AMQPURL, lg)
		consumer := &queue.AuditConsumer{URL: cfg.AMQPURL, Dir: cfg.AuditLogDir, Logger: lg}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		lg.Fatal("parse templates", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(lg))

	router.RegisterRoutes(e)
	deps := router.Deps{
		PriceForm: handler.NewPriceFormHandler(rooms, events, lg),
		Users:     handler.NewUserHandler(users, lg),
		Sessions:  store,
		Signer:    session.NewSigner(cfg.SessionSecret),
		Redis:     rdb,
		Config:    cfg,
	}
	router.RegisterPriceForm(e, deps)
	router.RegisterListings(e, deps)

	addr := ":" + cfg.Port
	lg.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown", zap.Error(err))
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

// openRedis returns nil when Redis is not configured or not reachable; the
// rate limiter and cache then pass requests through.
func openRedis(cfg config.Config, lg *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled() {
		return nil
	}
	rdb, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		lg.Warn("redis unavailable, rate limit and cache disabled", zap.Error(err))
		return nil
	}
	return rdb
}

func closeDB(db *sql.DB) { _ = db.Close() }
