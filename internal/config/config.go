// Package config loads and validates portal API configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreMongo     = "mongo"
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"
)

// Event publisher backends.
const (
	EventsNone     = "none"
	EventsMemory   = "memory"
	EventsPubSub   = "pubsub"
	EventsRabbitMQ = "rabbitmq"
)

const defaultSheetID = "1FGNgaNGtq4rDewGnVDkGpBbclHx9bFST6FFebRwcGnM"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	API       APIConfig       `mapstructure:"api"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Store     StoreConfig     `mapstructure:"store"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Firestore FirestoreConfig `mapstructure:"firestore"`
	Database  DBConfig        `mapstructure:"database"`
	Notices   NoticesConfig   `mapstructure:"notices"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Events    EventsConfig    `mapstructure:"events"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// APIConfig controls the public routes.
type APIConfig struct {
	Prefix                string `mapstructure:"prefix"`
	WelcomeMessage        string `mapstructure:"welcome_message"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
}

// CORSConfig lists the origins allowed to call the API. "*" allows any.
type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// StoreConfig selects the status check backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

// MongoConfig addresses the MongoDB deployment.
type MongoConfig struct {
	URL                   string `mapstructure:"url"`
	Database              string `mapstructure:"database"`
	Collection            string `mapstructure:"collection"`
	ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds"`
}

// FirestoreConfig addresses the Firestore database.
type FirestoreConfig struct {
	ProjectID  string `mapstructure:"project_id"`
	DatabaseID string `mapstructure:"database_id"`
	Collection string `mapstructure:"collection"`
}

// DBConfig controls the Postgres connection pool.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// NoticesConfig points at the published notices sheet.
type NoticesConfig struct {
	SheetID string `mapstructure:"sheet_id"`
	// URL overrides the export URL derived from SheetID.
	URL   string `mapstructure:"url"`
	Limit int    `mapstructure:"limit"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// EventsConfig selects where status check events go.
type EventsConfig struct {
	Backend string `mapstructure:"backend"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// RabbitMQConfig addresses the AMQP broker.
type RabbitMQConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCHOOLAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORS.Origins = normalizeOrigins(cfg.CORS.Origins)
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	cfg.Events.Backend = strings.ToLower(strings.TrimSpace(cfg.Events.Backend))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8001)
	v.SetDefault("api.prefix", "/api")
	v.SetDefault("api.welcome_message", "Chatkhil Government Technical School and College API")
	v.SetDefault("api.request_timeout_seconds", 60)
	v.SetDefault("cors.origins", []string{"*"})
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("store.backend", StoreMongo)
	v.SetDefault("mongo.url", "")
	v.SetDefault("mongo.database", "")
	v.SetDefault("mongo.collection", "status_checks")
	v.SetDefault("mongo.connect_timeout_seconds", 10)
	v.SetDefault("firestore.project_id", "")
	v.SetDefault("firestore.database_id", "(default)")
	v.SetDefault("firestore.collection", "status_checks")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.table", "status_checks")
	v.SetDefault("database.max_conns", 0)
	v.SetDefault("database.min_conns", 0)
	v.SetDefault("database.max_conn_lifetime", 0)
	v.SetDefault("notices.sheet_id", defaultSheetID)
	v.SetDefault("notices.url", "")
	v.SetDefault("notices.limit", 10)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "school-portal-api/1.0")
	v.SetDefault("events.backend", EventsNone)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.queue", "status_check.created")
}

// bindLegacyEnv keeps the variable names of existing deployments working
// alongside the prefixed ones.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"mongo.url":      {"SCHOOLAPI_MONGO_URL", "MONGO_URL"},
		"mongo.database": {"SCHOOLAPI_MONGO_DATABASE", "DB_NAME"},
		"cors.origins":   {"SCHOOLAPI_CORS_ORIGINS", "CORS_ORIGINS"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

func normalizeOrigins(raw []string) []string {
	var out []string
	for _, entry := range raw {
		for _, origin := range strings.Split(entry, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				out = append(out, origin)
			}
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if !strings.HasPrefix(c.API.Prefix, "/") {
		return fmt.Errorf("api.prefix must start with /")
	}
	if c.API.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("api.request_timeout_seconds must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Notices.Limit <= 0 {
		return fmt.Errorf("notices.limit must be > 0")
	}
	if c.Notices.URL == "" && c.Notices.SheetID == "" {
		return fmt.Errorf("notices.sheet_id or notices.url must be set")
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	return c.validateEvents()
}

func (c Config) validateStore() error {
	switch c.Store.Backend {
	case StoreMongo:
		if c.Mongo.URL == "" || c.Mongo.Database == "" {
			return fmt.Errorf("mongo.url and mongo.database must be set for the mongo store")
		}
	case StoreFirestore:
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("firestore.project_id must be set for the firestore store")
		}
	case StorePostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn must be set for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("store.backend %q is not supported", c.Store.Backend)
	}
	return nil
}

func (c Config) validateEvents() error {
	switch c.Events.Backend {
	case EventsNone, EventsMemory:
	case EventsPubSub:
		if c.PubSub.ProjectID == "" || c.PubSub.TopicName == "" {
			return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set for pubsub events")
		}
	case EventsRabbitMQ:
		if c.RabbitMQ.URL == "" {
			return fmt.Errorf("rabbitmq.url must be set for rabbitmq events")
		}
	default:
		return fmt.Errorf("events.backend %q is not supported", c.Events.Backend)
	}
	return nil
}

// NoticesURL returns the CSV export URL of the notices sheet.
func (c Config) NoticesURL() string {
	if c.Notices.URL != "" {
		return c.Notices.URL
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv", url.PathEscape(c.Notices.SheetID))
}

// FetchTimeout converts the outbound HTTP timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RequestTimeout bounds the handling of one inbound request.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeoutSeconds) * time.Second
}
