// Command vidgateway serves an in-memory copy of the video API for local
// development of the vidstream client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/haryoiro/vidstream/internal/config"
	"github.com/haryoiro/vidstream/internal/constants"
	"github.com/haryoiro/vidstream/internal/devgateway"
	"github.com/haryoiro/vidstream/internal/logger"
	"github.com/haryoiro/vidstream/internal/version"
)

type gatewayConfig struct {
	Addr        string        `env:"VIDGATEWAY_ADDR"`
	Secret      string        `env:"VIDGATEWAY_SECRET"`
	PublicURL   string        `env:"VIDGATEWAY_PUBLIC_URL"`
	TokenTTL    time.Duration `env:"VIDGATEWAY_TOKEN_TTL"`
	MaxUploadMB int64         `env:"VIDGATEWAY_MAX_UPLOAD_MB"`
	LogFile     string        `env:"VIDGATEWAY_LOG"`
}

func main() {
	if err := config.LoadDotEnv(constants.DotEnvFileName); err != nil {
		fmt.Fprintf(os.Stderr, "Ignoring .env: %v\n", err)
	}

	cfg := gatewayConfig{
		Addr:        constants.DefaultGatewayAddr,
		TokenTTL:    constants.DefaultTokenTTL,
		MaxUploadMB: constants.DefaultMaxUploadBytes >> 20,
	}
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid environment: %v\n", err)
		os.Exit(1)
	}

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&cfg.Secret, "secret", cfg.Secret, "HS256 signing secret (required)")
	flag.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "Prefix for media references")
	flag.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "Lifetime of issued tokens")
	flag.Int64Var(&cfg.MaxUploadMB, "max-upload-mb", cfg.MaxUploadMB, "Largest accepted upload in MiB")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Also write logs to this file")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info("vidgateway"))
		return
	}

	if err := initLogging(cfg.LogFile, *debugMode); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.CloseLogger()

	gateway, err := devgateway.New(devgateway.Options{
		Secret:         cfg.Secret,
		TokenTTL:       cfg.TokenTTL,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
		PublicURL:      cfg.PublicURL,
	})
	if err != nil {
		logger.Fatal("%v (set -secret or VIDGATEWAY_SECRET)", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           gateway,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("vidgateway %s listening on %s", version.String(), cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown: %v", err)
	}
}

func initLogging(logFile string, debugMode bool) error {
	logLevel := logger.INFO
	if debugMode {
		logLevel = logger.DEBUG
	}

	if logFile == "" {
		l := logger.NewWriterLogger(os.Stdout, logLevel)
		l.SetDebugMode(debugMode)
		logger.SetLogger(l)
		return nil
	}
	return logger.InitConsoleLogger(logFile, logLevel, debugMode)
}
