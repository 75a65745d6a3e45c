package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "sailboard.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. SAILBOARD_API_BASEURL.
const EnvPrefix = "SAILBOARD"

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
// Environment variables override file values.
func Load(configDir string) error {
	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// IsNotFound reports whether Load failed only because no config file exists.
func IsNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf)
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./sailboard-logs")
	viper.SetDefault("mode", "mock")

	viper.SetDefault("api.baseUrl", "http://localhost:3000/api")
	viper.SetDefault("api.timeout", "10s")
	viper.SetDefault("api.healthTimeout", "3s")
	viper.SetDefault("api.sessionFile", "./.sailboard/session.json")

	viper.SetDefault("fleet.tracked", []map[string]string{
		{"imo": "9996903", "name": "Amadeus Saffier"},
		{"imo": "9512331", "name": "NBA Magritte"},
		{"imo": "999690", "name": "Amadeus"},
	})
	viper.SetDefault("fleet.window.start", 1741281633)
	viper.SetDefault("fleet.window.end", 1741317363)
	viper.SetDefault("fleet.pollInterval", "30s")
	viper.SetDefault("fleet.pollLookback", "5m")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./exports")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpPath", "./sailboard.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/api/v1/stream")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("db.driver", "postgres")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "sailboard")
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("db.sqlitePath", "./sailboard-fallback.db")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "sailboard")
	viper.SetDefault("influx.bucket", "ship-telemetry")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "sailboard")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.corsOrigins", []string{"*"})

	viper.SetDefault("cache.type", "memory")
	viper.SetDefault("cache.ttl", "1m")
	viper.SetDefault("cache.redis.address", "localhost:6379")
	viper.SetDefault("cache.redis.password", "")
	viper.SetDefault("cache.redis.db", 0)

	viper.SetDefault("nats.enabled", false)
	viper.SetDefault("nats.url", "nats://localhost:4222")
	viper.SetDefault("nats.subjectPrefix", "ships")

	viper.SetDefault("monitor.interval", "30s")
	viper.SetDefault("monitor.statusFile", "")
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
