package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking/internal/config"
	"github.com/iliyamo/slot-booking/internal/database"
	"github.com/iliyamo/slot-booking/internal/identity"
	"github.com/iliyamo/slot-booking/internal/jobs"
	"github.com/iliyamo/slot-booking/internal/lock"
	"github.com/iliyamo/slot-booking/internal/middleware"
	"github.com/iliyamo/slot-booking/internal/queue"
	"github.com/iliyamo/slot-booking/internal/repository"
	"github.com/iliyamo/slot-booking/internal/router"
	"github.com/iliyamo/slot-booking/internal/service"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.Load()
	bcfg := config.LoadBookingConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	store := repository.NewStore(db, dialect)

	// Redis is optional: without it slot locks are per process, and the
	// cache and rate limiter are disabled.
	rdb := config.NewRedisClient()
	var locker lock.Locker = lock.NewLocalLocker()
	if rdb != nil {
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, bcfg.LockTTL)
		log.Printf("redis connected; using distributed slot locks")
	} else {
		log.Printf("redis unavailable; using in-process slot locks")
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	var pub service.Publisher
	if bcfg.EventsEnabled {
		url := queue.BrokerURL()
		pub = queue.NewPublisher(url)
		go func() {
			if err := queue.StartAppointmentConsumer(ctx, url); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("appointment consumer stopped: %v", err)
			}
		}()
	}

	svcs := service.New(service.Options{
		Store:     store,
		Locker:    locker,
		Publisher: pub,
		Cache:     cache,
		Logger:    logger,
		Config: service.Config{
			Granularity:  bcfg.GranularityMin,
			MaxRangeDays: bcfg.MaxRangeDays,
			LinkPolicy:   service.LinkPolicy(bcfg.LinkPolicy),
			Location:     bcfg.Location(),
		},
	})

	if bcfg.SweepSpec != "" {
		sweep, err := jobs.NewLinkSweep(bcfg.SweepSpec, svcs.Links, logger)
		if err != nil {
			log.Fatalf("link sweep: %v", err)
		}
		sweep.Start()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			sweep.Stop(sctx)
		}()
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, store)
	router.RegisterStaff(e, router.StaffDeps{
		JWTSecret: cfg.JWTSecret,
		Resolver:  identity.NewResolver(store),
		Cache:     cache,
		Services:  svcs,
	})
	router.RegisterPublic(e, svcs.Links, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s, db=%s, link_policy=%s)", addr, cfg.Env, dialect, bcfg.LinkPolicy)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
