package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/variety-jones/cptracker/pkg/cache"
	"github.com/variety-jones/cptracker/pkg/cache/redis"
	"github.com/variety-jones/cptracker/pkg/config"
	"github.com/variety-jones/cptracker/pkg/contest"
	"github.com/variety-jones/cptracker/pkg/metrics"
	"github.com/variety-jones/cptracker/pkg/scheduler"
	"github.com/variety-jones/cptracker/pkg/scraper"
	"github.com/variety-jones/cptracker/pkg/scraper/codeforces"
	"github.com/variety-jones/cptracker/pkg/scraper/leetcard"
	"github.com/variety-jones/cptracker/pkg/server"
	"github.com/variety-jones/cptracker/pkg/store"
	"github.com/variety-jones/cptracker/pkg/store/cached"
	"github.com/variety-jones/cptracker/pkg/store/memory"
	"github.com/variety-jones/cptracker/pkg/store/mongodb"
	"github.com/variety-jones/cptracker/pkg/tracker"
)

const (
	kConnectTimeout  = 10 * time.Second
	kShutdownTimeout = 15 * time.Second
)

func main() {
	// Define the customizable flags.
	var configPath, environment string
	flag.StringVar(&configPath, "config", "",
		"Path to a YAML config file (defaults to $CPTRACKER_CONFIG)")
	flag.StringVar(&environment, "environment", "",
		"The current environment: dev/prod (overrides the config)")

	// Parse all the flags.
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalln(err)
	}
	if environment != "" {
		cfg.Environment = environment
	}

	// Create the zap logger and replace the global logger.
	var logger *zap.Logger
	var loggerError error
	if cfg.IsProduction() {
		logger, loggerError = zap.NewProduction()
	} else {
		logger, loggerError = zap.NewDevelopment()
	}
	if loggerError != nil {
		log.Fatalln(loggerError)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGTERM)
	defer stop()

	listCache := newCache(ctx, cfg)
	userStore, closeStore := newStore(ctx, cfg, listCache)
	defer closeStore()

	collector := metrics.NewCollector()
	t := tracker.New(newScraper(cfg), userStore,
		tracker.WithScrapeTimeout(cfg.Scraper.Timeout),
		tracker.WithUpdateDelay(cfg.Tracker.UpdateDelay),
		tracker.WithObserver(collector))
	zap.S().Infof("Tracking %s profiles", t.Platform())

	// Start the scheduler in a new goroutine.
	if cfg.Scheduler.Enabled {
		sch := scheduler.NewScheduler(t, cfg.Scheduler.Cooldown)
		go sch.Start(ctx)
	}

	opts := server.Options{
		CronSecret:        cfg.CronSecret,
		RequireCronSecret: cfg.IsProduction(),
		Metrics:           collector,
	}
	if cfg.Contests.Enabled {
		client := codeforces.NewCodeforcesClient(cfg.Contests.BaseURL,
			cfg.Scraper.Timeout)
		opts.Contests = contest.NewService(client, listCache, cfg.Contests.TTL)
	}
	srv := server.New(t, opts)
	go func() {
		if err := srv.Start(cfg.Addr); err != nil {
			zap.S().Errorf("http server failed with error %v", err)
			stop()
		}
	}()

	// Wait for a signal.
	<-ctx.Done()
	zap.S().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		kShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorf("http shutdown failed with error %v", err)
	}
}

func newScraper(cfg *config.Config) scraper.Scraper {
	if cfg.Platform == config.PlatformCodeforces {
		return codeforces.NewCodeforcesClient(cfg.Scraper.BaseURL,
			cfg.Scraper.Timeout)
	}
	return leetcard.NewLeetCardClient(cfg.Scraper.BaseURL, cfg.Scraper.Timeout)
}

// newCache connects to Redis when redis.addr is set and returns nil
// otherwise.
func newCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.Redis.Addr == "" {
		return nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, kConnectTimeout)
	defer cancel()

	c, err := redis.NewRedisCache(connectCtx, cfg.Redis.Addr,
		cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		zap.S().Fatal(err)
	}
	return c
}

// newStore builds the configured store, wrapped in the listing cache when
// one is given. The returned func releases its connections.
func newStore(ctx context.Context, cfg *config.Config, c cache.Cache) (
	store.UserStore, func()) {
	connectCtx, cancel := context.WithTimeout(ctx, kConnectTimeout)
	defer cancel()

	var userStore store.UserStore
	closeStore := func() {}
	if cfg.Store == config.StoreMemory {
		zap.S().Warn("Using the in-memory store; data is lost on exit")
		userStore = memory.NewMemoryStore()
	} else {
		ms, err := mongodb.NewMongoStore(connectCtx, cfg.Mongo.URI,
			cfg.Mongo.Database)
		if err != nil {
			zap.S().Fatal(err)
		}
		userStore = ms
		closeStore = func() {
			if err := ms.Close(context.Background()); err != nil {
				zap.S().Errorf("mongo disconnect failed with error %v", err)
			}
		}
	}

	if c != nil {
		userStore = cached.NewCachedStore(userStore, c, cfg.Redis.TTL)
	}
	return userStore, closeStore
}
