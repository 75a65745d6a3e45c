package config

import (
	"time"

	"github.com/spf13/viper"
)

// APIConfig holds backend gateway settings.
type APIConfig struct {
	BaseURL       string
	Timeout       time.Duration
	HealthTimeout time.Duration
	SessionFile   string
}

// GetAPIConfig returns the backend gateway settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		BaseURL:       viper.GetString("api.baseUrl"),
		Timeout:       viper.GetDuration("api.timeout"),
		HealthTimeout: viper.GetDuration("api.healthTimeout"),
		SessionFile:   viper.GetString("api.sessionFile"),
	}
}

// TrackedShip is one entry of fleet.tracked.
type TrackedShip struct {
	IMO  string `json:"imo" mapstructure:"imo"`
	Name string `json:"name" mapstructure:"name"`
}

// FleetConfig holds the tracked ships and polling settings.
type FleetConfig struct {
	Tracked      []TrackedShip
	WindowStart  int64
	WindowEnd    int64
	PollInterval time.Duration
	PollLookback time.Duration
}

// GetFleetConfig returns the fleet settings.
func GetFleetConfig() FleetConfig {
	var tracked []TrackedShip
	if err := viper.UnmarshalKey("fleet.tracked", &tracked); err != nil {
		tracked = nil
	}
	return FleetConfig{
		Tracked:      tracked,
		WindowStart:  viper.GetInt64("fleet.window.start"),
		WindowEnd:    viper.GetInt64("fleet.window.end"),
		PollInterval: viper.GetDuration("fleet.pollInterval"),
		PollLookback: viper.GetDuration("fleet.pollLookback"),
	}
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds in-memory sqlite backend settings.
type SQLiteConfig struct {
	DumpPath     string
	DumpInterval time.Duration
}

// WebSocketConfig holds streaming backend settings.
type WebSocketConfig struct {
	URL    string
	Secret string
}

// StorageConfig selects and configures the snapshot storage backend.
type StorageConfig struct {
	Type      string
	Memory    MemoryConfig
	SQLite    SQLiteConfig
	WebSocket WebSocketConfig
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
	}
}

// DBConfig holds relational database settings for the gorm backend.
type DBConfig struct {
	Driver     string
	Host       string
	Port       string
	Username   string
	Password   string
	Database   string
	SSLMode    string
	SQLitePath string
}

// GetDBConfig returns the database settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Driver:     viper.GetString("db.driver"),
		Host:       viper.GetString("db.host"),
		Port:       viper.GetString("db.port"),
		Username:   viper.GetString("db.username"),
		Password:   viper.GetString("db.password"),
		Database:   viper.GetString("db.database"),
		SSLMode:    viper.GetString("db.sslmode"),
		SQLitePath: viper.GetString("db.sqlitePath"),
	}
}

// InfluxConfig holds InfluxDB export settings.
type InfluxConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Protocol string
	Token    string
	Org      string
	Bucket   string
}

// GetInfluxConfig returns the InfluxDB export settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GraylogConfig holds GELF log shipping settings.
type GraylogConfig struct {
	Enabled bool
	Address string
}

// GetGraylogConfig returns the GELF settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Address     string
	CORSOrigins []string
}

// GetServerConfig returns the HTTP service settings.
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Address:     viper.GetString("server.address"),
		CORSOrigins: viper.GetStringSlice("server.corsOrigins"),
	}
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// CacheConfig selects the statistics cache.
type CacheConfig struct {
	Type  string
	TTL   time.Duration
	Redis RedisConfig
}

// GetCacheConfig returns the cache settings.
func GetCacheConfig() CacheConfig {
	return CacheConfig{
		Type: viper.GetString("cache.type"),
		TTL:  viper.GetDuration("cache.ttl"),
		Redis: RedisConfig{
			Address:  viper.GetString("cache.redis.address"),
			Password: viper.GetString("cache.redis.password"),
			DB:       viper.GetInt("cache.redis.db"),
		},
	}
}

// NATSConfig holds ship update publishing settings.
type NATSConfig struct {
	Enabled       bool
	URL           string
	SubjectPrefix string
}

// GetNATSConfig returns the NATS settings.
func GetNATSConfig() NATSConfig {
	return NATSConfig{
		Enabled:       viper.GetBool("nats.enabled"),
		URL:           viper.GetString("nats.url"),
		SubjectPrefix: viper.GetString("nats.subjectPrefix"),
	}
}

// GetMonitorInterval returns the connectivity check interval.
func GetMonitorInterval() time.Duration {
	return viper.GetDuration("monitor.interval")
}
