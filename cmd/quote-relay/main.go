// Package main is the entry point for the quote relay server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/marianglobal/quote-relay/internal/config"
	"github.com/marianglobal/quote-relay/internal/provider"
	"github.com/marianglobal/quote-relay/internal/provider/ses"
	"github.com/marianglobal/quote-relay/internal/provider/smtp"
	"github.com/marianglobal/quote-relay/internal/provider/stdout"
	"github.com/marianglobal/quote-relay/internal/relay"
	webtls "github.com/marianglobal/quote-relay/internal/tls"
	"github.com/marianglobal/quote-relay/internal/web"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	// Select email delivery provider
	prov := selectProvider(cfg)

	if prov.Name() != "stdout" && cfg.Mail.Receiver == "" {
		slog.Error("RECEIVER_EMAIL is required for the configured provider", "provider", prov.Name())
		os.Exit(1)
	}

	mailRelay := relay.New(relay.Config{
		Provider:    prov,
		Sender:      cfg.Mail.Sender,
		Owner:       cfg.Mail.Receiver,
		SendTimeout: cfg.SendTimeout(),
	})

	serverCfg := web.ServerConfig{
		ListenAddr:  cfg.HTTP.Listen,
		Dispatcher:  mailRelay,
		MaxBodySize: cfg.HTTP.MaxBodySize,
		CORSOrigin:  cfg.HTTP.CORSOrigin,
	}

	tlsMode := "disabled"
	if cfg.TLS.Enabled {
		tlsConfig, err := webtls.LoadOrGenerate(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			slog.Error("failed to setup TLS", "error", err)
			os.Exit(1)
		}
		serverCfg.TLSConfig = tlsConfig
		tlsMode = "self-signed"
		if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
			tlsMode = "file"
		}
	}

	server := web.New(serverCfg)

	slog.Info("starting quote-relay",
		"listen", cfg.HTTP.Listen,
		"provider", prov.Name(),
		"receiver_configured", cfg.Mail.Receiver != "",
		"tls_mode", tlsMode,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		slog.Info("received signal, initiating shutdown", "signal", sig)
		cancel()
	}()

	// Start the server (blocks until context is cancelled)
	if err := server.ListenAndServe(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("quote-relay stopped")
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// selectProvider chooses the email delivery backend based on configuration.
// If the PROVIDER env var is set, it takes precedence. Otherwise it falls
// back to auto-detection: SMTP if configured, then SES, then stdout.
func selectProvider(cfg *config.Config) provider.Provider {
	switch cfg.Provider {
	case "smtp":
		if !cfg.SMTPConfigured() {
			slog.Error("SMTP provider selected but SMTP_HOST, SMTP_USER, and SMTP_PASS are required")
			os.Exit(1)
		}
		slog.Info("using SMTP provider",
			"host", cfg.SMTP.Host,
			"port", cfg.SMTP.Port,
		)
		return newSMTPProvider(cfg)

	case "ses":
		if !cfg.SESConfigured() {
			slog.Error("SES provider selected but SES_REGION is required")
			os.Exit(1)
		}
		slog.Info("using AWS SES provider",
			"region", cfg.SES.Region,
		)
		return newSESProvider(cfg)

	case "stdout":
		slog.Info("using stdout provider")
		return stdout.New()

	case "":
		// Auto-detection fallback
		if cfg.SMTPConfigured() {
			slog.Info("using SMTP provider (auto-detected)",
				"host", cfg.SMTP.Host,
				"port", cfg.SMTP.Port,
			)
			return newSMTPProvider(cfg)
		}
		if cfg.SESConfigured() {
			slog.Info("using AWS SES provider (auto-detected)",
				"region", cfg.SES.Region,
			)
			return newSESProvider(cfg)
		}
		slog.Info("no provider configured, using stdout provider")
		return stdout.New()

	default:
		slog.Error("unknown provider", "provider", cfg.Provider)
		os.Exit(1)
		return nil
	}
}

func newSMTPProvider(cfg *config.Config) provider.Provider {
	return smtp.New(smtp.SMTPProviderConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	})
}

func newSESProvider(cfg *config.Config) provider.Provider {
	p, err := ses.New(context.Background(), ses.SESProviderConfig{
		Region:          cfg.SES.Region,
		AccessKeyID:     cfg.SES.AccessKeyID,
		SecretAccessKey: cfg.SES.SecretAccessKey,
	})
	if err != nil {
		slog.Error("failed to create SES provider", "error", err)
		os.Exit(1)
	}
	return p
}
