package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jabiru-analytics/jabiru/internal/ai"
	"github.com/jabiru-analytics/jabiru/internal/auth"
	cfgpkg "github.com/jabiru-analytics/jabiru/internal/config"
	"github.com/jabiru-analytics/jabiru/internal/server"
	"github.com/jabiru-analytics/jabiru/internal/storage"
	"github.com/jabiru-analytics/jabiru/internal/store"
)

// Version is stamped at build time with -ldflags.
var Version = "1.0.0"

const shutdownTimeout = 15 * time.Second

var (
	serveHost      string
	servePort      int
	serveNoMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			c.ListenHost = serveHost
		}
		if cmd.Flags().Changed("port") {
			c.ListenPort = servePort
		}
		if err := c.Validate(); err != nil {
			return err
		}
		logger, err := newLogger(c)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, c, logger)
	},
}

func runServer(ctx context.Context, c *cfgpkg.Global, logger *zap.Logger) error {
	st, err := store.Open(ctx, c.DatabaseDriver, c.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()
	if !serveNoMigrate {
		if err := st.Migrate(ctx); err != nil {
			return err
		}
	}

	files, err := storage.NewLocal(c.UploadDir)
	if err != nil {
		return err
	}

	svc, err := buildAIService(c, logger)
	if err != nil {
		return err
	}
	if svc == nil {
		logger.Warn("no OpenAI API key configured; AI endpoints are disabled")
	}

	srv := server.NewServer(server.Config{
		Addr:            c.Addr(),
		CORSOrigins:     c.CORSOrigins,
		MaxUploadBytes:  c.MaxUploadBytes,
		MaxProcessBytes: c.MaxProcessBytes,
		BcryptCost:      c.BcryptCost,
		ChatTemperature: c.ChatTemperature,
		ChatMaxTokens:   c.ChatMaxTokens,
		Version:         Version,
	}, server.Deps{
		Store:  st,
		Files:  files,
		AI:     svc,
		Tokens: auth.NewTokenIssuer(c.JWTSecret, c.JWTExpiry(), nil),
		Logger: logger,
	})

	logger.Info("configuration loaded",
		zap.String("environment", c.Environment),
		zap.String("database_driver", c.DatabaseDriver),
		zap.String("model", c.Model),
	)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// buildAIService returns nil without error when no API key is configured.
func buildAIService(c *cfgpkg.Global, logger *zap.Logger) (*ai.Service, error) {
	client, err := ai.NewClient(ai.ClientConfig{
		APIKey:  c.OpenAIAPIKey,
		BaseURL: c.OpenAIBaseURL,
		Timeout: c.HTTPTimeout(),
	})
	if errors.Is(err, ai.ErrMissingAPIKey) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	prices, err := loadPrices(c)
	if err != nil {
		return nil, err
	}
	return ai.NewService(client, ai.ServiceOptions{
		Model:  c.Model,
		Prices: prices,
		Cache:  ai.NewResponseCache(c.CacheTTL(), nil),
		Logger: logger.Named("ai"),
	}), nil
}

// loadPrices returns the built-in price table merged with the optional pricing file.
func loadPrices(c *cfgpkg.Global) (*ai.PriceTable, error) {
	p := ai.NewPriceTable()
	if c.PricingFile == "" {
		return p, nil
	}
	m, err := ai.LoadCatalogFromJSON(c.PricingFile)
	if err != nil {
		return nil, fmt.Errorf("load pricing file: %w", err)
	}
	p.Merge(m)
	return p, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoMigrate, "no-migrate", false, "skip applying database migrations at startup")
}
