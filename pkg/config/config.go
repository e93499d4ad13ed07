package config

import (
	"fmt"
	"time"
)

// BackendConfig configures the central management backend.
type BackendConfig struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	API        APIConfig        `mapstructure:"api"`
	WebSocket  WebSocketConfig  `mapstructure:"websocket"`
	Liveness   LivenessConfig   `mapstructure:"liveness"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Events     EventsConfig     `mapstructure:"events"`
}

// NodeConfig configures one autoscaler node process. Pool definitions
// are not part of this file; they arrive from the backend as YAML.
type NodeConfig struct {
	App        AppConfig        `mapstructure:"app"`
	Backend    BackendLink      `mapstructure:"backend"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	Pools      PoolsFileConfig  `mapstructure:"pools"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// ProviderConfig locates the cloud provider's instance pool API.
type ProviderConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxConnections  int           `mapstructure:"max_connections"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
	)
}

// BackendLink is the node's view of the backend: where to register,
// where to heartbeat, and how to identify itself.
type BackendLink struct {
	URL               string        `mapstructure:"url"`
	CredentialsFile   string        `mapstructure:"credentials_file"`
	NodeName          string        `mapstructure:"node_name"`
	Region            string        `mapstructure:"region"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// PoolsFileConfig points at the locally cached pool configuration and
// bounds the analytics buffer between heartbeats.
type PoolsFileConfig struct {
	CacheFile          string `mapstructure:"cache_file"`
	AnalyticsQueueSize int    `mapstructure:"analytics_queue_size"`
}

type APIConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    int           `mapstructure:"rate_limit"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTDuration  time.Duration `mapstructure:"jwt_duration"`
	JWTIssuer    string        `mapstructure:"jwt_issuer"`
	CORS         CORSConfig    `mapstructure:"cors"`
}

type WebSocketConfig struct {
	MaxConnections  int           `mapstructure:"max_connections"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	BroadcastBuffer int           `mapstructure:"broadcast_buffer"`
	ClientBuffer    int           `mapstructure:"client_buffer"`
}

// LivenessConfig drives the offline sweeper: any node silent longer
// than Timeout is marked OFFLINE on the sweep schedule.
type LivenessConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}
