package types

import (
	"time"
)

type ConfigManager interface {
	Load() error
	GetConfig() *ServiceConfig
}

type ServiceConfig struct {
	Name          string          `yaml:"name" json:"name" validate:"required"`
	Version       string          `yaml:"version" json:"version" validate:"required"`
	ProductionEnv bool            `yaml:"production_env" json:"production_env"`
	Server        *ServerConfig   `yaml:"server" json:"server" validate:"required"`
	Logger        *LoggerConfig   `yaml:"logger" json:"logger" validate:"required"`
	Cache         *CacheConfig    `yaml:"cache" json:"cache" validate:"required"`
	Metrics       *MetricsConfig  `yaml:"metrics" json:"metrics"`
	Security      *SecurityConfig `yaml:"security" json:"security" validate:"required"`
	Users         *UsersConfig    `yaml:"users" json:"users" validate:"required"`
}

type ServerConfig struct {
	HTTP        *HTTPConfig        `yaml:"http" json:"http" validate:"required"`
	Compression *CompressionConfig `yaml:"compression" json:"compression"`
}

type HTTPConfig struct {
	Host            string `yaml:"host" json:"host"`
	Port            int    `yaml:"port" json:"port" validate:"min=1,max=65535"`
	ReadTimeout     int    `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    int    `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     int    `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout int    `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

type CompressionConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Algorithm string `yaml:"algorithm" json:"algorithm" validate:"omitempty,oneof=br gzip"`
	Level     int    `yaml:"level" json:"level"`
	Threshold int    `yaml:"threshold" json:"threshold" validate:"min=0"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" json:"level" validate:"required"`
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=console json"`
	Output string `yaml:"output" json:"output" validate:"omitempty,oneof=stdout stderr file"`
	File   string `yaml:"file" json:"file" validate:"required_if=Output file"`
}

type CacheConfig struct {
	Type            string        `yaml:"type" json:"type" validate:"required"`
	DefaultTTL      time.Duration `yaml:"default_ttl" json:"default_ttl" validate:"min=0"`
	CleanupSchedule string        `yaml:"cleanup_schedule" json:"cleanup_schedule"`
	Config          interface{}   `yaml:"config" json:"config"`
}

type MetricsConfig struct {
	Enabled         bool              `yaml:"enabled" json:"enabled"`
	Namespace       string            `yaml:"namespace" json:"namespace"`
	Path            string            `yaml:"path" json:"path" validate:"required_if=Enabled true"`
	Labels          map[string]string `yaml:"labels" json:"labels"`
	EnableGoMetrics bool              `yaml:"enable_go_metrics" json:"enable_go_metrics"`
}

type SecurityConfig struct {
	AuthEnabled bool                 `yaml:"auth_enabled" json:"auth_enabled"`
	Api         *ApiSecurityConfig   `yaml:"api" json:"api" validate:"required"`
	Admin       *AdminSecurityConfig `yaml:"admin" json:"admin" validate:"required"`
}

type ApiSecurityConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

type AdminSecurityConfig struct {
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" json:"access_token_ttl" validate:"min=0"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" json:"refresh_token_ttl" validate:"min=0"`
	Roles           []string      `yaml:"roles" json:"roles" validate:"dive,required"`
}

type UsersConfig struct {
	Type string `yaml:"type" json:"type" validate:"required,oneof=memory sqlite"`
	DSN  string `yaml:"dsn" json:"dsn" validate:"required_if=Type sqlite"`
}
