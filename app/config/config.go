// Package config loads the blog API configuration.
//
// Values come from, in increasing precedence: built-in defaults, a YAML file
// (with ${VAR} references expanded from the environment), and a handful of
// environment variables for secrets. A .env file, when given, is loaded into
// the environment first and never overrides variables that are already set.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete server configuration.
type Config struct {
	App     AppConfig     `yaml:"app"`
	HTTP    HTTPConfig    `yaml:"http"`
	API     APIConfig     `yaml:"api"`
	Logging LoggingConfig `yaml:"logging"`
	Storage StorageConfig `yaml:"storage"`
	Content ContentConfig `yaml:"content"`
	Query   QueryConfig   `yaml:"query"`
}

type AppConfig struct {
	Name string `yaml:"name" validate:"required"`
}

// HTTPConfig configures the listener and its timeouts.
type HTTPConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"min=0"`
	// Compress gzips responses for clients that accept it.
	Compress bool `yaml:"compress"`
}

// APIConfig configures the /api surface.
type APIConfig struct {
	// Key is the shared secret every /api request must present in x-api-key.
	// An empty key locks the API.
	Key string `yaml:"key"`
	// StrictNotFound answers updates of missing comments with 404 instead of 500.
	StrictNotFound bool `yaml:"strict_not_found"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// StorageConfig selects and configures the comment store.
type StorageConfig struct {
	Driver   string         `yaml:"driver" validate:"oneof=memory badger postgres"`
	Badger   BadgerConfig   `yaml:"badger"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type BadgerConfig struct {
	Path       string `yaml:"path"`
	InMemory   bool   `yaml:"in_memory"`
	SyncWrites bool   `yaml:"sync_writes"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// ContentConfig selects and configures the post source.
type ContentConfig struct {
	Driver string `yaml:"driver" validate:"oneof=contentful file"`
	// CacheTTL is how long fetched posts are reused. Zero disables caching.
	CacheTTL   time.Duration    `yaml:"cache_ttl" validate:"min=0"`
	Contentful ContentfulConfig `yaml:"contentful"`
	File       FileConfig       `yaml:"file"`
}

type ContentfulConfig struct {
	SpaceID     string        `yaml:"space_id"`
	AccessToken string        `yaml:"access_token"`
	Environment string        `yaml:"environment"`
	ContentType string        `yaml:"content_type"`
	BaseURL     string        `yaml:"base_url" validate:"omitempty,url"`
	PageSize    int           `yaml:"page_size" validate:"min=0,max=1000"`
	Timeout     time.Duration `yaml:"timeout" validate:"min=0"`
}

type FileConfig struct {
	Path string `yaml:"path"`
}

// QueryConfig tunes post listing.
type QueryConfig struct {
	// Locale is the BCP 47 tag whose collation orders titles and authors.
	Locale string `yaml:"locale" validate:"required"`
}

// Default returns the configuration used for anything the file leaves unset.
func Default() *Config {
	return &Config{
		App: AppConfig{Name: "blogapi"},
		HTTP: HTTPConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Compress:        true,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{
			Driver: "memory",
			Badger: BadgerConfig{Path: "data/comments"},
		},
		Content: ContentConfig{
			Driver:   "contentful",
			CacheTTL: 60 * time.Second,
			Contentful: ContentfulConfig{
				Environment: "master",
				ContentType: "blogPost",
				BaseURL:     "https://cdn.contentful.com",
				PageSize:    100,
				Timeout:     10 * time.Second,
			},
		},
		Query: QueryConfig{Locale: "en"},
	}
}

// Load reads the configuration file at path on top of Default. An empty path
// uses the defaults alone. envFiles are loaded into the environment first.
func Load(path string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets deployment secrets bypass the config file.
func (c *Config) applyEnv() {
	overrides := []struct {
		name string
		dst  *string
	}{
		{"API_KEY", &c.API.Key},
		{"CONTENTFUL_SPACE_ID", &c.Content.Contentful.SpaceID},
		{"CONTENTFUL_ACCESS_TOKEN", &c.Content.Contentful.AccessToken},
		{"CONTENTFUL_ENVIRONMENT", &c.Content.Contentful.Environment},
		{"DATABASE_URL", &c.Storage.Postgres.DSN},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.dst = v
		}
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and the settings each selected driver needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", fe.Namespace(), fe.ActualTag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.Storage.Driver {
	case "badger":
		if c.Storage.Badger.Path == "" && !c.Storage.Badger.InMemory {
			return errors.New("invalid config: storage.badger.path is required unless in_memory is set")
		}
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			return errors.New("invalid config: storage.postgres.dsn is required")
		}
	}

	switch c.Content.Driver {
	case "contentful":
		if c.Content.Contentful.SpaceID == "" || c.Content.Contentful.AccessToken == "" {
			return errors.New("invalid config: content.contentful.space_id and access_token are required")
		}
	case "file":
		if c.Content.File.Path == "" {
			return errors.New("invalid config: content.file.path is required")
		}
	}
	return nil
}

// Addr is the host:port the server listens on.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}
