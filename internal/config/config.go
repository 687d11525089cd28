// Package config handles loading and validation of service configuration.
// Supports both development (env vars or CONFIG_FILE) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"golang.org/x/mod/semver"
)

// Config holds all service configuration.
// Environment determines whether the storefront token loads from env vars (development)
// or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string `json:"port"`
	Environment string `json:"environment"` // "development" or "production"
	LogLevel    string `json:"log_level"`   // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string `json:"gcp_project,omitempty"`
	SecretName string `json:"secret_name,omitempty"`

	// Demo serves a generated in-memory catalog instead of a real store.
	Demo bool `json:"demo"`

	Store     StoreConfig   `json:"store"`
	Session   SessionConfig `json:"session"`
	PageSizes PageSizes     `json:"page_sizes"`

	// MaxItems hides "load more" once a product feed shows this many items. 0 = no cap.
	MaxItems      int `json:"max_items"`
	PredictiveMax int `json:"predictive_max"`
}

// StoreConfig identifies the remote store.
type StoreConfig struct {
	Domain          string `json:"domain"`
	APIVersion      string `json:"api_version"` // YYYY-MM
	StorefrontToken string `json:"storefront_token,omitempty"`
	ClientVersion   string `json:"client_version"` // semver, sent in User-Agent
}

// SessionConfig selects where the cart session is persisted.
type SessionConfig struct {
	Backend       string        `json:"backend"` // "memory", "file" or "redis"
	Dir           string        `json:"dir,omitempty"`
	RedisAddr     string        `json:"redis_addr,omitempty"`
	RedisPassword string        `json:"redis_password,omitempty"`
	RedisDB       int           `json:"redis_db,omitempty"`
	KeyPrefix     string        `json:"key_prefix,omitempty"`
	TTL           time.Duration `json:"-"`
	TTLString     string        `json:"ttl,omitempty"`
}

// PageSizes is the page size of each paginated feed.
type PageSizes struct {
	Products           int `json:"products"`
	Collections        int `json:"collections"`
	CollectionProducts int `json:"collection_products"`
	Variants           int `json:"variants"`
	Search             int `json:"search"`
	CartLines          int `json:"cart_lines"`
}

// DefaultPageSizes mirror the storefront screens.
var DefaultPageSizes = PageSizes{
	Products:           20,
	Collections:        2,
	CollectionProducts: 20,
	Variants:           10,
	Search:             10,
	CartLines:          20,
}

const (
	defaultPort          = "8080"
	defaultAPIVersion    = "2024-07"
	defaultClientVersion = "v0.1.0"
	defaultSecretName    = "storefront-token"
	defaultKeyPrefix     = "storefront"
	defaultPredictiveMax = 10
)

var apiVersionPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg, err := loadFromEnv()
	if err != nil {
		return nil, err
	}

	if cfg.Environment == "production" && !cfg.Demo && cfg.Store.StorefrontToken == "" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if err := cfg.loadFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading storefront token: %w", err)
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFromEnv reads configuration from individual environment variables.
func loadFromEnv() (*Config, error) {
	cfg := &Config{
		Port:        envOrDefault("PORT", defaultPort),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		SecretName:  os.Getenv("SECRET_NAME"),
		Store: StoreConfig{
			Domain:          os.Getenv("STORE_DOMAIN"),
			APIVersion:      os.Getenv("STORE_API_VERSION"),
			StorefrontToken: os.Getenv("STOREFRONT_TOKEN"),
			ClientVersion:   os.Getenv("CLIENT_VERSION"),
		},
		Session: SessionConfig{
			Backend:       os.Getenv("SESSION_BACKEND"),
			Dir:           os.Getenv("SESSION_DIR"),
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			KeyPrefix:     os.Getenv("SESSION_KEY_PREFIX"),
			TTLString:     os.Getenv("SESSION_TTL"),
		},
	}

	var err error
	if cfg.Demo, err = boolEnv("DEMO"); err != nil {
		return nil, err
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"REDIS_DB", &cfg.Session.RedisDB},
		{"PAGE_SIZE_PRODUCTS", &cfg.PageSizes.Products},
		{"PAGE_SIZE_COLLECTIONS", &cfg.PageSizes.Collections},
		{"PAGE_SIZE_COLLECTION_PRODUCTS", &cfg.PageSizes.CollectionProducts},
		{"PAGE_SIZE_VARIANTS", &cfg.PageSizes.Variants},
		{"PAGE_SIZE_SEARCH", &cfg.PageSizes.Search},
		{"PAGE_SIZE_CART_LINES", &cfg.PageSizes.CartLines},
		{"MAX_ITEMS", &cfg.MaxItems},
		{"PREDICTIVE_MAX", &cfg.PredictiveMax},
	}
	for _, i := range ints {
		if *i.dst, err = intEnv(i.key); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadFromSecretManager fetches the storefront token from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{secret_name}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, withDefault(c.SecretName, defaultSecretName))

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	c.Store.StorefrontToken = strings.TrimSpace(string(result.Payload.Data))
	return nil
}

// finish applies defaults and validates.
func (c *Config) finish() error {
	c.applyDefaults()
	if c.Session.TTLString != "" {
		ttl, err := time.ParseDuration(c.Session.TTLString)
		if err != nil {
			return fmt.Errorf("invalid session ttl: %w", err)
		}
		c.Session.TTL = ttl
	}
	return c.validate()
}

func (c *Config) applyDefaults() {
	c.Port = withDefault(c.Port, defaultPort)
	c.Environment = withDefault(c.Environment, "development")
	c.LogLevel = withDefault(c.LogLevel, "info")
	c.Store.APIVersion = withDefault(c.Store.APIVersion, defaultAPIVersion)
	c.Store.ClientVersion = withDefault(c.Store.ClientVersion, defaultClientVersion)
	c.Session.Backend = withDefault(c.Session.Backend, "memory")
	c.Session.KeyPrefix = withDefault(c.Session.KeyPrefix, defaultKeyPrefix)

	d := DefaultPageSizes
	c.PageSizes.Products = intWithDefault(c.PageSizes.Products, d.Products)
	c.PageSizes.Collections = intWithDefault(c.PageSizes.Collections, d.Collections)
	c.PageSizes.CollectionProducts = intWithDefault(c.PageSizes.CollectionProducts, d.CollectionProducts)
	c.PageSizes.Variants = intWithDefault(c.PageSizes.Variants, d.Variants)
	c.PageSizes.Search = intWithDefault(c.PageSizes.Search, d.Search)
	c.PageSizes.CartLines = intWithDefault(c.PageSizes.CartLines, d.CartLines)
	c.PredictiveMax = intWithDefault(c.PredictiveMax, defaultPredictiveMax)
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if !semver.IsValid(normalizeVersion(c.Store.ClientVersion)) {
		return fmt.Errorf("client_version %q is not a semantic version", c.Store.ClientVersion)
	}
	if c.MaxItems < 0 {
		return fmt.Errorf("max_items must not be negative")
	}

	switch c.Session.Backend {
	case "memory":
	case "file":
		if c.Session.Dir == "" {
			return fmt.Errorf("session dir is required for the file backend")
		}
	case "redis":
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q (memory, file or redis)", c.Session.Backend)
	}

	if c.Demo {
		return nil
	}

	if c.Store.Domain == "" {
		return fmt.Errorf("store domain is required")
	}
	if !apiVersionPattern.MatchString(c.Store.APIVersion) {
		return fmt.Errorf("api_version %q must look like YYYY-MM", c.Store.APIVersion)
	}
	if c.Store.StorefrontToken == "" {
		return fmt.Errorf("storefront_token is required")
	}
	return nil
}

// UserAgent identifies this client to the store.
func (c *Config) UserAgent() string {
	return "storefront/" + strings.TrimPrefix(semver.Canonical(normalizeVersion(c.Store.ClientVersion)), "v")
}

// normalizeVersion adds the "v" prefix semver expects.
func normalizeVersion(v string) string {
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

func intWithDefault(val, defaultVal int) int {
	if val > 0 {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// intEnv parses an integer env var; unset means 0.
func intEnv(key string) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
