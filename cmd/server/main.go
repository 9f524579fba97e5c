package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/gophsync/internal/config"
	"github.com/iudanet/gophsync/internal/docstore/backend"
	"github.com/iudanet/gophsync/internal/server"
	"github.com/iudanet/gophsync/internal/server/handlers"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse flags
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Listen address")
	dsn := flag.String("dsn", "", "Document backend DSN (memory://, sqlite://, postgres://, s3://)")
	issueToken := flag.String("issue-token", "", "Print an access token for the given subject and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		return nil
	}

	// Порядок: файл, переменные окружения, явно заданные флаги
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = *addr
		case "dsn":
			cfg.Server.DSN = *dsn
		}
	})
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	jwtCfg := handlers.JWTConfig{
		Secret:         []byte(cfg.Server.JWTSecret),
		AccessTokenTTL: cfg.Server.TokenTTL,
	}

	if *issueToken != "" {
		token, expiresIn, err := handlers.GenerateAccessToken(jwtCfg, *issueToken)
		if err != nil {
			return err
		}
		fmt.Println(token)
		fmt.Fprintf(os.Stderr, "expires in %ds\n", expiresIn)
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg.Server.DSN)
	if err != nil {
		return fmt.Errorf("failed to open document backend: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close document backend", "error", err)
		}
	}()

	srv := server.New(logger, store, server.Config{
		Version:         Version,
		JWT:             jwtCfg,
		RateLimit:       cfg.Server.RateLimit,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	})
	defer srv.Close()

	logger.Info("GophSync server starting", "addr", cfg.Server.Addr, "version", Version)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func printVersion() {
	fmt.Printf("GophSync Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
