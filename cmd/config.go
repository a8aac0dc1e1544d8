package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/jabiru-analytics/jabiru/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Jabiru configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		showConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func showConfig(w io.Writer, c *cfgpkg.Global) {
	fmt.Fprintf(w, "environment: %s\n", c.Environment)
	fmt.Fprintf(w, "log_level: %s\n", c.LogLevel)
	fmt.Fprintf(w, "listen_host: %s\n", c.ListenHost)
	fmt.Fprintf(w, "listen_port: %d\n", c.ListenPort)
	fmt.Fprintf(w, "cors_origins: %s\n", strings.Join(c.CORSOrigins, ","))
	fmt.Fprintf(w, "database_driver: %s\n", c.DatabaseDriver)
	fmt.Fprintf(w, "database_url: %s\n", c.DatabaseURL)
	fmt.Fprintf(w, "upload_dir: %s\n", c.UploadDir)
	fmt.Fprintf(w, "max_upload_bytes: %d\n", c.MaxUploadBytes)
	fmt.Fprintf(w, "max_process_bytes: %d\n", c.MaxProcessBytes)
	fmt.Fprintf(w, "jwt_secret: %s\n", mask(c.JWTSecret))
	fmt.Fprintf(w, "jwt_expire_minutes: %d\n", c.JWTExpireMinutes)
	fmt.Fprintf(w, "bcrypt_cost: %d\n", c.BcryptCost)
	fmt.Fprintf(w, "openai_api_key: %s\n", mask(c.OpenAIAPIKey))
	fmt.Fprintf(w, "openai_base_url: %s\n", c.OpenAIBaseURL)
	fmt.Fprintf(w, "model: %s\n", c.Model)
	fmt.Fprintf(w, "chat_temperature: %.3f\n", c.ChatTemperature)
	fmt.Fprintf(w, "chat_max_tokens: %d\n", c.ChatMaxTokens)
	fmt.Fprintf(w, "cache_ttl_minutes: %d\n", c.CacheTTLMinutes)
	if c.HTTPTimeoutSec > 0 {
		fmt.Fprintf(w, "http_timeout_sec: %d\n", c.HTTPTimeoutSec)
	}
	if c.PricingFile != "" {
		fmt.Fprintf(w, "pricing_file: %s\n", c.PricingFile)
	}
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "environment":
		switch val {
		case "development", "production":
			c.Environment = val
		default:
			return fmt.Errorf("invalid environment: %s (use development or production)", val)
		}
	case "log_level":
		c.LogLevel = val
	case "listen_host":
		c.ListenHost = val
	case "listen_port":
		c.ListenPort, err = atoi()
	case "cors_origins":
		c.CORSOrigins = splitList(val)
	case "database_driver":
		switch strings.ToLower(val) {
		case "sqlite", "postgres":
			c.DatabaseDriver = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid database_driver: %s (use sqlite or postgres)", val)
		}
	case "database_url":
		c.DatabaseURL = val
	case "upload_dir":
		c.UploadDir = val
	case "max_upload_bytes":
		c.MaxUploadBytes, err = strconv.ParseInt(val, 10, 64)
	case "max_process_bytes":
		c.MaxProcessBytes, err = strconv.ParseInt(val, 10, 64)
	case "jwt_secret":
		c.JWTSecret = val
	case "jwt_expire_minutes":
		c.JWTExpireMinutes, err = atoi()
	case "bcrypt_cost":
		c.BcryptCost, err = atoi()
	case "openai_api_key":
		c.OpenAIAPIKey = val
	case "openai_base_url":
		c.OpenAIBaseURL = val
	case "model":
		c.Model = val
	case "chat_temperature":
		c.ChatTemperature, err = strconv.ParseFloat(val, 64)
	case "chat_max_tokens":
		c.ChatMaxTokens, err = atoi()
	case "cache_ttl_minutes":
		c.CacheTTLMinutes, err = atoi()
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi()
	case "pricing_file":
		c.PricingFile = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
