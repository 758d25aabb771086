package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dbankston2409/mens-health-finder/internal/api"
	"github.com/dbankston2409/mens-health-finder/internal/config"
	"github.com/dbankston2409/mens-health-finder/internal/geocode"
	"github.com/dbankston2409/mens-health-finder/internal/importer"
	"github.com/dbankston2409/mens-health-finder/internal/notify"
	"github.com/dbankston2409/mens-health-finder/internal/store"
	"github.com/dbankston2409/mens-health-finder/internal/webcheck"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfgPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx := context.Background()
	awsCfg, err := store.LoadAWSConfig(ctx, cfg.Storage.AWSOptions())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	recordStore := store.NewDynamoStore(awsCfg, cfg.Storage.DynamoDBTable)
	failureLog := store.NewS3FailureLog(awsCfg, cfg.Storage.S3Bucket)

	var providers []geocode.Provider
	if g := geocode.NewGoogleProvider(cfg.Geocoding.GoogleAPIKey, "", 10*time.Second); g != nil {
		providers = append(providers, g)
		log.Println("Google geocoding provider enabled")
	}
	providers = append(providers, geocode.NewNominatimProvider(cfg.Geocoding.NominatimBaseURL, 10*time.Second))
	geocoder := geocode.NewChain(providers...)

	verifierOpts := []webcheck.Option{webcheck.WithTimeout(cfg.Verification.Timeout())}
	if cfg.Verification.AllowPrivate {
		verifierOpts = append(verifierOpts, webcheck.WithPrivateHosts())
	}
	verifier := webcheck.New(verifierOpts...)

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Notify.Enabled {
		if n := notify.NewSESNotifier(awsCfg, cfg.Notify.Sender, cfg.Notify.Recipients); n != nil {
			notifier = n
			log.Println("SES run notifications enabled")
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis unreachable (%v); falling back to process-local import lock", err)
			redisClient = nil
		}
	}

	imp := importer.New(recordStore, failureLog, geocoder, verifier, importer.Options{
		CommitSize:         cfg.Import.CommitSize,
		DuplicateThreshold: cfg.Import.DuplicateThreshold,
		Notifier:           notifier,
	})

	handlers := api.NewHandlers(recordStore, failureLog, imp, failureLog, redisClient, cfg.Import.LockTTL())
	router := api.SetupRoutes(handlers)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, cfg.Server.Port),
		Handler: router,
	}

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
