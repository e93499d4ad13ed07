package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadBackend reads the backend configuration from configPath, or from
// the usual search paths when empty. Environment variables prefixed
// AUTOSCALER_ override file values.
func LoadBackend(configPath string) (*BackendConfig, error) {
	v := newViper(configPath, "backend")
	setBackendDefaults(v)

	if err := readIn(v); err != nil {
		return nil, err
	}

	var cfg BackendConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// LoadNode reads the node configuration.
func LoadNode(configPath string) (*NodeConfig, error) {
	v := newViper(configPath, "node")
	setNodeDefaults(v)

	if err := readIn(v); err != nil {
		return nil, err
	}

	var cfg NodeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func newViper(configPath, defaultName string) *viper.Viper {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(defaultName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/autoscaler")
	}

	v.SetEnvPrefix("AUTOSCALER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func readIn(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		// No file found, defaults and env vars carry the config.
	}
	return nil
}

func setBackendDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "autoscaler-backend")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "15s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "autoscaler")
	v.SetDefault("database.user", "admin")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.ping_timeout", "5s")

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.jwt_secret", "change-me-in-production")
	v.SetDefault("api.jwt_duration", "24h")
	v.SetDefault("api.jwt_issuer", "autoscaler-backend")

	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.ping_interval", "30s")

	v.SetDefault("liveness.timeout", "5m")
	v.SetDefault("liveness.sweep_schedule", "@every 1m")

	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.port", 9090)

	v.SetDefault("events.buffer_size", 256)
}

func setNodeDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "autoscaler-node")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "15s")

	v.SetDefault("backend.url", "http://localhost:8080")
	v.SetDefault("backend.credentials_file", "node_credentials.json")
	v.SetDefault("backend.heartbeat_interval", "60s")
	v.SetDefault("backend.request_timeout", "10s")

	v.SetDefault("provider.endpoint", "http://localhost:9000")
	v.SetDefault("provider.request_timeout", "10s")

	v.SetDefault("pools.cache_file", "pools.yaml")
	v.SetDefault("pools.analytics_queue_size", 1000)

	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.port", 9091)
}
