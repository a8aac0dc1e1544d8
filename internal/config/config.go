package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jabiru-analytics/jabiru/internal/utils"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "change-me-in-production"

// Global configuration structure.
type Global struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	// HTTP server
	ListenHost  string   `mapstructure:"listen_host" yaml:"listen_host"`
	ListenPort  int      `mapstructure:"listen_port" yaml:"listen_port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`

	// Persistence
	DatabaseDriver  string `mapstructure:"database_driver" yaml:"database_driver"`
	DatabaseURL     string `mapstructure:"database_url" yaml:"database_url"`
	UploadDir       string `mapstructure:"upload_dir" yaml:"upload_dir"`
	MaxUploadBytes  int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	MaxProcessBytes int64  `mapstructure:"max_process_bytes" yaml:"max_process_bytes"`

	// Auth
	JWTSecret        string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTExpireMinutes int    `mapstructure:"jwt_expire_minutes" yaml:"jwt_expire_minutes"`
	BcryptCost       int    `mapstructure:"bcrypt_cost" yaml:"bcrypt_cost"`

	// Completion API
	OpenAIAPIKey    string  `mapstructure:"openai_api_key" yaml:"openai_api_key"`
	OpenAIBaseURL   string  `mapstructure:"openai_base_url" yaml:"openai_base_url"`
	Model           string  `mapstructure:"model" yaml:"model"`
	ChatTemperature float64 `mapstructure:"chat_temperature" yaml:"chat_temperature"`
	ChatMaxTokens   int     `mapstructure:"chat_max_tokens" yaml:"chat_max_tokens"`
	CacheTTLMinutes int     `mapstructure:"cache_ttl_minutes" yaml:"cache_ttl_minutes"`
	HTTPTimeoutSec  int     `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	PricingFile     string  `mapstructure:"pricing_file" yaml:"pricing_file"`
}

// Addr returns the host:port the HTTP server listens on.
func (c *Global) Addr() string {
	return net.JoinHostPort(c.ListenHost, strconv.Itoa(c.ListenPort))
}

// CacheTTL returns how long completions stay cached.
func (c *Global) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// JWTExpiry returns the lifetime of issued access tokens.
func (c *Global) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpireMinutes) * time.Minute
}

// HTTPTimeout returns the completion client timeout; zero means none.
func (c *Global) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// IsProduction reports whether the service runs in production mode.
func (c *Global) IsProduction() bool { return c.Environment == "production" }

// Validate rejects settings the server cannot start with.
func (c *Global) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid database_driver: %s (use sqlite or postgres)", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("invalid listen_port: %d", c.ListenPort)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid max_upload_bytes: %d", c.MaxUploadBytes)
	}
	if c.JWTExpireMinutes <= 0 {
		return fmt.Errorf("invalid jwt_expire_minutes: %d", c.JWTExpireMinutes)
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return errors.New("jwt_secret must be set in production")
	}
	return nil
}

// DefaultDir returns ~/.jabiru, where the config file lives by default.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".jabiru"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.jabiru/config.yaml.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("JABIRU")
	v.AutomaticEnv()
	_ = v.BindEnv("openai_api_key", "JABIRU_OPENAI_API_KEY", "OPENAI_API_KEY")

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("listen_host", "0.0.0.0")
	v.SetDefault("listen_port", 5001)
	v.SetDefault("cors_origins", []string{"http://localhost:5173", "http://localhost:5174"})
	v.SetDefault("database_driver", "sqlite")
	v.SetDefault("database_url", "jabiru.db")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("max_upload_bytes", 10<<20)
	v.SetDefault("max_process_bytes", 50<<20)
	v.SetDefault("jwt_secret", DefaultJWTSecret)
	v.SetDefault("jwt_expire_minutes", 30)
	v.SetDefault("bcrypt_cost", 12)
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("model", "gpt-3.5-turbo")
	v.SetDefault("chat_temperature", 0.7)
	v.SetDefault("chat_max_tokens", 2000)
	v.SetDefault("cache_ttl_minutes", 24*60)
	v.SetDefault("http_timeout_sec", 0)
	v.SetDefault("pricing_file", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
