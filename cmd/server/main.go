package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/budget-escalator/internal/api"
	"github.com/ignite/budget-escalator/internal/config"
	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/pkg/distlock"
	"github.com/ignite/budget-escalator/internal/pkg/logger"
	"github.com/ignite/budget-escalator/internal/report"
	"github.com/ignite/budget-escalator/internal/repository/memory"
	"github.com/ignite/budget-escalator/internal/repository/postgres"
	"github.com/ignite/budget-escalator/internal/service/campaign"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %v\n"+
			"  Hint: Run 'lsof -i' to find the blocking process", addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  Budget Escalation Engine (cmd/server/main.go)             ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	configPath := "config/config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger.SetLevel(level)

	addr := cfg.Server.Addr()
	if err := checkPortAvailable(addr); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store: PostgreSQL when configured, in-memory otherwise
	var (
		db   *sql.DB
		repo campaign.Repository
	)
	if cfg.Database.URL != "" {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(30 * time.Second)

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		pingCancel()
		if err != nil {
			log.Fatalf("Database ping failed (%s): %v", logger.RedactDSN(cfg.Database.URL), err)
		}
		defer db.Close()
		repo = postgres.New(db)
		logger.Info("using postgres store", "dsn", logger.RedactDSN(cfg.Database.URL))
	} else {
		repo = memory.New()
		logger.Warn("DATABASE_URL not set, using in-memory store")
	}

	// Redis for cross-instance bulk locks; PG advisory locks otherwise
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unavailable, falling back", "url", logger.RedactDSN(cfg.Redis.URL), "error", err)
			redisClient.Close()
			redisClient = nil
		}
		pingCancel()
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	svc := campaign.NewService(repo,
		campaign.WithDefaults(campaign.Defaults{
			RatePct:  cfg.Escalation.DefaultRatePct,
			Cadence:  domain.Cadence(cfg.Escalation.DefaultCadence),
			Currency: cfg.Escalation.DefaultCurrency,
			Platform: cfg.Escalation.DefaultPlatform,
			LockTTL:  cfg.Escalation.LockTTL(),
		}),
		campaign.WithLocks(distlock.Factory(redisClient, db)),
	)

	// Report sink: S3, then local directory, then none
	var (
		sink   report.Sink
		pinger api.Pinger
	)
	switch {
	case cfg.Reports.S3Bucket != "":
		s3Sink, err := report.NewS3Sink(ctx, cfg.Reports.S3Bucket, cfg.Reports.S3Prefix, cfg.Reports.S3Region)
		if err != nil {
			log.Fatalf("Failed to initialize S3 report sink: %v", err)
		}
		sink, pinger = s3Sink, s3Sink
		logger.Info("reports export to s3", "bucket", cfg.Reports.S3Bucket, "prefix", cfg.Reports.S3Prefix)
	case cfg.Reports.LocalDir != "":
		local := report.NewLocalSink(cfg.Reports.LocalDir)
		sink, pinger = local, local
		logger.Info("reports export to local dir", "dir", cfg.Reports.LocalDir)
	default:
		logger.Warn("no report sink configured, export disabled")
	}

	gen, err := report.NewGenerator(svc, sink)
	if err != nil {
		log.Fatalf("Failed to initialize reports: %v", err)
	}

	handlers := api.NewHandlers(svc, gen)
	health := api.NewHealthChecker(db, redisClient, pinger)
	server := api.NewServer(cfg.Server, handlers, health)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
