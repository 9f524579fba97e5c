package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/gophsync/internal/client/api"
	"github.com/iudanet/gophsync/internal/client/data"
	"github.com/iudanet/gophsync/internal/client/iocli"
	"github.com/iudanet/gophsync/internal/client/storage"
	"github.com/iudanet/gophsync/internal/client/storage/boltdb"
	"github.com/iudanet/gophsync/internal/client/sync"
	"github.com/iudanet/gophsync/internal/config"
	"github.com/iudanet/gophsync/internal/conflict"
	"github.com/iudanet/gophsync/internal/docstore"
	"github.com/iudanet/gophsync/internal/docstore/backend"
	"github.com/iudanet/gophsync/internal/models"
)

// Env is everything a command may need
type Env struct {
	Auth        storage.AuthStorage
	Watermarks  storage.MetadataStorage
	Clients     *data.Service[*models.Client]
	Missions    *data.Service[*models.Mission]
	ClientSync  *sync.Engine[*models.Client]
	MissionSync *sync.Engine[*models.Mission]
	Logger      *slog.Logger
	ServerURL   string
	closers     []func() error
}

// Close releases the local database and the remote store
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	e.closers = nil
	return errors.Join(errs...)
}

// NewEnv wires services and engines around a local database and a remote store
func NewEnv(s *boltdb.Storage, remote docstore.Store, strategy conflict.Strategy, syncOpts sync.Options) (*Env, error) {
	clients, err := boltdb.NewRepository(s, models.ClientSchema)
	if err != nil {
		return nil, err
	}
	missions, err := boltdb.NewRepository(s, models.MissionSchema)
	if err != nil {
		return nil, err
	}

	resolver := conflict.New(strategy)
	syncOpts.Watermarks = s

	return &Env{
		Auth:        s,
		Watermarks:  s,
		Clients:     data.NewService(clients, syncOpts.Logger),
		Missions:    data.NewService(missions, syncOpts.Logger),
		ClientSync:  sync.NewEngine(clients, remote, resolver, models.ClientSchema, syncOpts),
		MissionSync: sync.NewEngine(missions, remote, resolver, models.MissionSchema, syncOpts),
		Logger:      syncOpts.Logger,
	}, nil
}

// OpenEnv is the production Opener: config file, environment, then flags
func OpenEnv(ctx context.Context, opts *Options, io iocli.IO) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	applyFlags(&cfg, opts)

	level := cfg.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(io, &slog.HandlerOptions{Level: level}))

	strategy, err := conflict.ParseStrategy(cfg.Client.Strategy)
	if err != nil {
		return nil, err
	}

	s, err := boltdb.New(ctx, cfg.Client.DBPath)
	if err != nil {
		return nil, err
	}

	remote, serverURL, err := openRemote(ctx, s, cfg.Client, opts.ServerURL != "")
	if err != nil {
		s.Close()
		return nil, err
	}

	env, err := NewEnv(s, remote, strategy, sync.Options{
		Enabled:     cfg.Client.SyncEnabled,
		Logger:      logger,
		PushDeleted: cfg.Client.PushDeleted,
	})
	if err != nil {
		remote.Close()
		s.Close()
		return nil, err
	}
	env.ServerURL = serverURL
	env.closers = append(env.closers, s.Close, remote.Close)

	logger.Debug("Environment opened", "db", cfg.Client.DBPath, "server", serverURL, "strategy", strategy)
	return env, nil
}

func applyFlags(cfg *config.Config, opts *Options) {
	if opts.DBPath != "" {
		cfg.Client.DBPath = opts.DBPath
	}
	if opts.ServerURL != "" {
		cfg.Client.ServerURL = opts.ServerURL
	}
	if opts.Remote != "" {
		cfg.Client.Remote = opts.Remote
	}
	if opts.Strategy != "" {
		cfg.Client.Strategy = opts.Strategy
	}
	if opts.Offline {
		cfg.Client.SyncEnabled = false
	}
}

// openRemote открывает remote по DSN, иначе документный сервер с сохраненным токеном.
// Адрес из --server важнее адреса, сохраненного при login.
func openRemote(ctx context.Context, auth storage.AuthStorage, cfg config.ClientConfig, explicitServer bool) (backend.Store, string, error) {
	if cfg.Remote != "" {
		remote, err := backend.Open(ctx, cfg.Remote)
		if err != nil {
			return nil, "", err
		}
		return remote, cfg.Remote, nil
	}

	serverURL := cfg.ServerURL
	var token string

	authData, err := auth.GetAuth(ctx)
	switch {
	case err == nil:
		token = authData.Token
		if authData.ServerURL != "" && !explicitServer {
			serverURL = authData.ServerURL
		}
	case !errors.Is(err, storage.ErrAuthNotFound):
		return nil, "", fmt.Errorf("failed to get auth data: %w", err)
	}

	return serverStore{api.NewClient(serverURL, api.WithToken(token))}, serverURL, nil
}

type serverStore struct {
	*api.Client
}

func (serverStore) Close() error { return nil }
