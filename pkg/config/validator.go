package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

var validModes = map[string]bool{"development": true, "production": true, "test": true}
var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

func (a AppConfig) validate() []error {
	var errs []error
	if a.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}
	if !validModes[a.Mode] {
		errs = append(errs, errors.New("app.mode must be one of: development, production, test"))
	}
	if !validLogLevels[a.LogLevel] {
		errs = append(errs, errors.New("app.log_level must be one of: debug, info, warn, error"))
	}
	return errs
}

func (c *BackendConfig) Validate() error {
	errs := c.App.validate()

	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, errors.New("database.port must be between 1 and 65535"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Database.MaxConnections <= 0 {
		errs = append(errs, errors.New("database.max_connections must be positive"))
	}

	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.App.Mode == "production" && c.API.JWTSecret == "change-me-in-production" {
		errs = append(errs, errors.New("api.jwt_secret must be changed in production"))
	}

	if c.Liveness.Timeout <= 0 {
		errs = append(errs, errors.New("liveness.timeout must be positive"))
	}
	if _, err := cron.ParseStandard(c.Liveness.SweepSchedule); err != nil {
		errs = append(errs, fmt.Errorf("liveness.sweep_schedule is not a valid cron expression: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}
	return nil
}

func (c *NodeConfig) Validate() error {
	errs := c.App.validate()

	if c.Backend.URL == "" {
		errs = append(errs, errors.New("backend.url is required"))
	}
	if c.Backend.CredentialsFile == "" {
		errs = append(errs, errors.New("backend.credentials_file is required"))
	}
	if c.Backend.NodeName == "" {
		errs = append(errs, errors.New("backend.node_name is required"))
	}
	if c.Backend.Region == "" {
		errs = append(errs, errors.New("backend.region is required"))
	}
	if c.Backend.HeartbeatInterval <= 0 {
		errs = append(errs, errors.New("backend.heartbeat_interval must be positive"))
	}
	if c.Backend.RequestTimeout <= 0 {
		errs = append(errs, errors.New("backend.request_timeout must be positive"))
	}
	if c.Backend.RequestTimeout >= c.Backend.HeartbeatInterval {
		errs = append(errs, errors.New("backend.request_timeout must be less than backend.heartbeat_interval"))
	}

	if c.Provider.Endpoint == "" {
		errs = append(errs, errors.New("provider.endpoint is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}
	return nil
}
