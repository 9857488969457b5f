package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"table-sync/internal/catalog"
	"table-sync/internal/model"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Source      model.StoreConfig `mapstructure:"source"`
	Destination model.StoreConfig `mapstructure:"destination"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Sync        SyncConfig        `mapstructure:"sync"`
	Security    SecurityConfig    `mapstructure:"security"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	Host            string        `mapstructure:"host"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CatalogConfig lists the replicated tables in foreign-key dependency order
type CatalogConfig struct {
	Tables           []string                            `mapstructure:"tables"`
	PrimaryKeys      map[string]string                   `mapstructure:"primary_keys"`
	TimestampColumns map[string]catalog.TimestampColumns `mapstructure:"timestamp_columns"`
	DeleteSentinel   string                              `mapstructure:"delete_sentinel"`
	DeleteSentinels  map[string]string                   `mapstructure:"delete_sentinels"`
}

type SyncConfig struct {
	PageSize            int  `mapstructure:"page_size"`
	BatchSize           int  `mapstructure:"batch_size"`
	StatusSampleSize    int  `mapstructure:"status_sample_size"`
	StrictDelete        bool `mapstructure:"strict_delete"`
	TransactionalTables bool `mapstructure:"transactional_tables"`
}

type SecurityConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`
	JWTExpiration      time.Duration `mapstructure:"jwt_expiration"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
	RateLimitBurst     int           `mapstructure:"rate_limit_burst"`
	EnableAuth         bool          `mapstructure:"enable_auth"`
	EnableRateLimit    bool          `mapstructure:"enable_rate_limit"`
	AllowedOrigins     []string      `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configs/config.yaml (or the file at path) and overlays environment
// variables, e.g. SOURCE_DSN or SYNC_STRICT_DELETE.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set default values
	setDefaults(v)

	// Enable environment variable support
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and environment
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Store defaults
	for _, store := range []string{"source", "destination"} {
		v.SetDefault(store+".driver", string(model.StoreTypePostgreSQL))
		v.SetDefault(store+".dsn", "")
		v.SetDefault(store+".host", "localhost")
		v.SetDefault(store+".port", 0)
		v.SetDefault(store+".database", "")
		v.SetDefault(store+".username", "")
		v.SetDefault(store+".password", "")
		v.SetDefault(store+".ssl_mode", "")
		v.SetDefault(store+".max_open_conns", 0)
	}

	// Catalog defaults
	v.SetDefault("catalog.tables", []string{})
	v.SetDefault("catalog.delete_sentinel", "")

	// Sync defaults
	v.SetDefault("sync.page_size", 1000)
	v.SetDefault("sync.batch_size", 1000)
	v.SetDefault("sync.status_sample_size", 10)
	v.SetDefault("sync.strict_delete", true)
	v.SetDefault("sync.transactional_tables", false)

	// Security defaults
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_expiration", "24h")
	v.SetDefault("security.rate_limit_per_minute", 30)
	v.SetDefault("security.rate_limit_burst", 5)
	v.SetDefault("security.enable_auth", false)
	v.SetDefault("security.enable_rate_limit", false)
	v.SetDefault("security.allowed_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
}

// Validate checks the settings the engine cannot run without
func (c *Config) Validate() error {
	if c.Sync.PageSize <= 0 {
		return fmt.Errorf("sync.page_size must be positive, got %d", c.Sync.PageSize)
	}
	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("sync.batch_size must be positive, got %d", c.Sync.BatchSize)
	}
	validate := validator.New()
	if err := validate.Struct(&c.Source); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := validate.Struct(&c.Destination); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if c.Security.EnableAuth && c.Security.JWTSecret == "" {
		return errors.New("security.jwt_secret is required when security.enable_auth is set")
	}
	return nil
}

// BuildCatalog turns the catalog section into an immutable catalog
func (c *Config) BuildCatalog() (*catalog.Catalog, error) {
	return catalog.New(c.Catalog.Tables, catalog.Options{
		PrimaryKeys:      c.Catalog.PrimaryKeys,
		TimestampColumns: c.Catalog.TimestampColumns,
		DeleteSentinel:   c.Catalog.DeleteSentinel,
		DeleteSentinels:  c.Catalog.DeleteSentinels,
	})
}
