// Package config loads the application configuration from YAML with
// environment variable overrides for deployment secrets.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dbankston2409/mens-health-finder/internal/store"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Storage      StorageConfig      `yaml:"storage"`
	Geocoding    GeocodingConfig    `yaml:"geocoding"`
	Verification VerificationConfig `yaml:"verification"`
	Import       ImportConfig       `yaml:"import"`
	Redis        RedisConfig        `yaml:"redis"`
	Notify       NotifyConfig       `yaml:"notify"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// StorageConfig holds record store and artifact storage configuration
type StorageConfig struct {
	DynamoDBTable string `yaml:"dynamodb_table"`
	S3Bucket      string `yaml:"s3_bucket"`
	AWSRegion     string `yaml:"aws_region"`
	AWSProfile    string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// AWSOptions projects the storage config into store.AWSOptions.
func (c StorageConfig) AWSOptions() store.AWSOptions {
	return store.AWSOptions{
		Region:    c.AWSRegion,
		Profile:   c.GetAWSProfile(),
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Table:     c.DynamoDBTable,
		Bucket:    c.S3Bucket,
	}
}

// GeocodingConfig holds geocoding provider configuration. The Google
// provider is used when an API key is present; the free fallback is
// always available but rate-limited.
type GeocodingConfig struct {
	GoogleAPIKey     string `yaml:"google_api_key"`
	NominatimBaseURL string `yaml:"nominatim_base_url"`
}

// VerificationConfig holds website liveness check configuration
type VerificationConfig struct {
	TimeoutSeconds int  `yaml:"timeout_seconds"`
	AllowPrivate   bool `yaml:"allow_private"` // only for local development
}

// Timeout returns the configured timeout as a duration
func (c VerificationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ImportConfig holds batch import tuning
type ImportConfig struct {
	CommitSize         int     `yaml:"commit_size"`
	DuplicateThreshold float64 `yaml:"duplicate_threshold"`
	LockTTLMinutes     int     `yaml:"lock_ttl_minutes"`
}

// LockTTL returns the import lock TTL as a duration
func (c ImportConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLMinutes) * time.Minute
}

// RedisConfig holds the optional Redis connection for import locking
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NotifyConfig holds SES notification settings
type NotifyConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Sender     string   `yaml:"sender"`
	Recipients []string `yaml:"recipients"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-east-1"
	}
	if cfg.Verification.TimeoutSeconds == 0 {
		cfg.Verification.TimeoutSeconds = 5
	}
	if cfg.Import.CommitSize == 0 {
		cfg.Import.CommitSize = store.DefaultCommitSize
	}
	if cfg.Import.CommitSize > store.MaxBatchClinics {
		cfg.Import.CommitSize = store.MaxBatchClinics
	}
	if cfg.Import.DuplicateThreshold == 0 {
		cfg.Import.DuplicateThreshold = 0.85
	}
	if cfg.Import.LockTTLMinutes == 0 {
		cfg.Import.LockTTLMinutes = 30
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if v := os.Getenv("DYNAMODB_TABLE"); v != "" {
		cfg.Storage.DynamoDBTable = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Storage.AWSRegion = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	if v := os.Getenv("GOOGLE_GEOCODING_API_KEY"); v != "" {
		cfg.Geocoding.GoogleAPIKey = v
	}
	if v := os.Getenv("NOMINATIM_BASE_URL"); v != "" {
		cfg.Geocoding.NominatimBaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("IMPORT_COMMIT_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= store.MaxBatchClinics {
			cfg.Import.CommitSize = n
		}
	}
	if v := os.Getenv("NOTIFY_SENDER"); v != "" {
		cfg.Notify.Sender = v
		cfg.Notify.Enabled = true
	}

	return cfg, nil
}
