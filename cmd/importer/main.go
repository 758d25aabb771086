// Command importer runs a clinic bulk import from the terminal. A run
// that pauses on duplicates is resumed with -resume and a decisions
// file once an operator has reviewed the candidates.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dbankston2409/mens-health-finder/internal/clinic"
	"github.com/dbankston2409/mens-health-finder/internal/config"
	"github.com/dbankston2409/mens-health-finder/internal/geocode"
	"github.com/dbankston2409/mens-health-finder/internal/importer"
	"github.com/dbankston2409/mens-health-finder/internal/normalize"
	"github.com/dbankston2409/mens-health-finder/internal/notify"
	"github.com/dbankston2409/mens-health-finder/internal/pkg/distlock"
	"github.com/dbankston2409/mens-health-finder/internal/store"
	"github.com/dbankston2409/mens-health-finder/internal/webcheck"
)

func main() {
	var (
		cfgPath   = flag.String("config", "config/config.yaml", "path to config file")
		file      = flag.String("file", "", "local CSV or JSON input file")
		s3Key     = flag.String("s3-key", "", "S3 object key of the input file")
		source    = flag.String("source", "", "import source label (defaults to the file name)")
		actor     = flag.String("actor", "", "operator running the import (required)")
		resume    = flag.String("resume", "", "run ID to resume")
		decisions = flag.String("decisions", "", "JSON decisions file for -resume")
	)
	flag.Parse()

	if *actor == "" && *resume == "" {
		log.Fatal("-actor is required")
	}
	if *file == "" && *s3Key == "" && *resume == "" {
		log.Fatal("one of -file, -s3-key or -resume is required")
	}

	cfg, err := config.LoadFromEnv(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
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
	}
	providers = append(providers, geocode.NewNominatimProvider(cfg.Geocoding.NominatimBaseURL, 10*time.Second))

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Notify.Enabled {
		if n := notify.NewSESNotifier(awsCfg, cfg.Notify.Sender, cfg.Notify.Recipients); n != nil {
			notifier = n
		}
	}

	imp := importer.New(recordStore, failureLog, geocode.NewChain(providers...),
		webcheck.New(webcheck.WithTimeout(cfg.Verification.Timeout())),
		importer.Options{
			CommitSize:         cfg.Import.CommitSize,
			DuplicateThreshold: cfg.Import.DuplicateThreshold,
			Notifier:           notifier,
		})

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	lock := distlock.NewLock(redisClient, "clinic-import", cfg.Import.LockTTL())
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		log.Fatalf("Failed to acquire import lock: %v", err)
	}
	if !acquired {
		log.Fatal("Another import is already running")
	}
	defer lock.Release(ctx)

	var summary *clinic.ImportSummary
	if *resume != "" {
		summary = resumeRun(ctx, imp, *resume, *decisions)
	} else {
		summary = startRun(ctx, imp, failureLog, *file, *s3Key, *source, *actor)
	}
	printSummary(summary)
}

func startRun(ctx context.Context, imp *importer.Importer, inputs *store.S3FailureLog, file, s3Key, source, actor string) *clinic.ImportSummary {
	var (
		name string
		data []byte
		err  error
	)
	if file != "" {
		name = file
		data, err = os.ReadFile(file)
	} else {
		name = s3Key
		data, err = inputs.FetchInput(ctx, s3Key)
	}
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}

	var records []clinic.RawRecord
	if strings.EqualFold(filepath.Ext(name), ".json") {
		records, err = normalize.ParseJSON(bytes.NewReader(data))
	} else {
		records, err = normalize.ParseCSV(bytes.NewReader(data))
	}
	if err != nil {
		log.Fatalf("Failed to parse input: %v", err)
	}

	if source == "" {
		source = filepath.Base(name)
	}
	summary, err := imp.Run(ctx, records, source, actor)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	return summary
}

func resumeRun(ctx context.Context, imp *importer.Importer, runID, decisionsPath string) *clinic.ImportSummary {
	if decisionsPath == "" {
		log.Fatal("-decisions is required with -resume")
	}
	data, err := os.ReadFile(decisionsPath)
	if err != nil {
		log.Fatalf("Failed to read decisions: %v", err)
	}
	var decisions []clinic.DuplicateDecision
	if err := json.Unmarshal(data, &decisions); err != nil {
		log.Fatalf("Failed to parse decisions: %v", err)
	}

	summary, err := imp.Resume(ctx, runID, decisions)
	if err != nil {
		log.Fatalf("Resume failed: %v", err)
	}
	return summary
}

func printSummary(s *clinic.ImportSummary) {
	fmt.Printf("Run %s\n", s.RunID)
	fmt.Printf("  total:   %d\n", s.Total)
	fmt.Printf("  success: %d (created %d, merged %d, skipped %d)\n",
		s.Success, s.Created, s.Merged, s.Skipped)
	fmt.Printf("  failed:  %d\n", s.Failed)
	if s.Pending > 0 {
		fmt.Printf("  pending: %d duplicate candidates need decisions\n", s.Pending)
		fmt.Printf("  resume with: importer -resume %s -decisions decisions.json\n", s.RunID)
	}
	for _, f := range s.Failures {
		fmt.Printf("  row %d: %s\n", f.Record.Row, f.Error)
	}
}
