package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/pilot-catalog/internal/messaging/rabbitmq"
)

const defaultAddr = "0.0.0.0:8080"

// Config is shared by every binary, loadable from environment variables
// (PILOT_ prefix), flags, or YAML config files. Validate checks what a given
// binary needs.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"HTTP listen address for the API and probes"`
	Mongo       MongoConfig
	DatabaseURL string         `usage:"PostgreSQL URL of the catalog read store (PILOT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RabbitMQ    RabbitMQConfig `env:"RABBITMQ" flag:"rabbitmq" yaml:"rabbitmq"`
	Shopify     ShopifyConfig
	Graceful    GracefulConfig
	SeedFile    string `default:"db/seed/pilots.json" usage:"Intake payloads created by seed-pilots" flag:"seed-file"`
}

// MongoConfig locates the pilot product write store.
type MongoConfig struct {
	URI      string `usage:"MongoDB connection URI (PILOT_MONGO_URI or MONGO_URI)"`
	Database string `default:"maison_amane" usage:"MongoDB database name"`
}

// RabbitMQConfig configures the broker connection and consumers.
type RabbitMQConfig struct {
	URL            string        `usage:"AMQP URL (PILOT_RABBITMQ_URL or RABBITMQ_URL)"`
	Prefetch       int           `default:"10" usage:"Unacknowledged deliveries per consumer"`
	HandlerTimeout time.Duration `default:"30s" usage:"Maximum time to handle one delivery"`
	Retry          rabbitmq.RetryPolicy
}

// ShopifyConfig selects and configures the Shopify client.
type ShopifyConfig struct {
	Fake        bool          `default:"true" usage:"Use the fake Shopify client"`
	FakeLatency time.Duration `default:"0s" usage:"Simulated latency of the fake client"`
	StoreURL    string        `usage:"Shop domain, e.g. maison-amane.myshopify.com"`
	AccessToken string        `usage:"Admin API access token"`
	APIVersion  string        `default:"2025-01" usage:"Admin API version"`
	Timeout     time.Duration `default:"10s" usage:"Admin API request timeout"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files and the given command line arguments, then applies platform
// defaults. Pass os.Args[1:] from main.
func LoadConfig(args []string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PILOT",
		Files:     []string{"config.yaml", "/etc/pilot/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
		Args: args,
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	return &cfg, nil
}

// applyPlatformDefaults maps the unprefixed variables set by hosting
// platforms and docker-compose onto the configuration.
func (c *Config) applyPlatformDefaults() {
	fallback := func(dst *string, env string) {
		if *dst != "" {
			return
		}
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	fallback(&c.Mongo.URI, "MONGO_URI")
	fallback(&c.RabbitMQ.URL, "RABBITMQ_URL")
	fallback(&c.DatabaseURL, "DATABASE_URL")
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

// Binary names a deployable process.
type Binary string

const (
	APIServer         Binary = "api-server"
	CatalogProjection Binary = "catalog-projection"
	ShopifySync       Binary = "shopify-sync"
	SeedPilots        Binary = "seed-pilots"
)

// Validate reports the settings missing for b.
func (c *Config) Validate(b Binary) error {
	var missing []string
	need := func(v, name string) {
		if v == "" {
			missing = append(missing, name)
		}
	}

	need(c.RabbitMQ.URL, "PILOT_RABBITMQ_URL")
	switch b {
	case APIServer:
		need(c.Mongo.URI, "PILOT_MONGO_URI")
	case CatalogProjection:
		need(c.DatabaseURL, "PILOT_DATABASE_URL")
	case SeedPilots:
		need(c.Mongo.URI, "PILOT_MONGO_URI")
		need(c.SeedFile, "PILOT_SEED_FILE")
	case ShopifySync:
		need(c.Mongo.URI, "PILOT_MONGO_URI")
		if !c.Shopify.Fake {
			need(c.Shopify.StoreURL, "PILOT_SHOPIFY_STORE_URL")
			need(c.Shopify.AccessToken, "PILOT_SHOPIFY_ACCESS_TOKEN")
		}
	default:
		return errors.Errorf("unknown binary %q", b)
	}
	if len(missing) > 0 {
		return errors.Errorf("%s: missing required settings %v", b, missing)
	}
	if c.RabbitMQ.Retry.MaxAttempts < 1 {
		return errors.Errorf("%s: retry max attempts must be at least 1", b)
	}
	return nil
}
