// Package main provides the match server. It accepts TCP client
// connections, authenticates player accounts, pairs queued players into
// game rooms, and relays moves between room members.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/matchserver/internal/account"
	"github.com/cory-johannsen/matchserver/internal/config"
	"github.com/cory-johannsen/matchserver/internal/game/dispatch"
	"github.com/cory-johannsen/matchserver/internal/game/match"
	"github.com/cory-johannsen/matchserver/internal/game/room"
	"github.com/cory-johannsen/matchserver/internal/observability"
	"github.com/cory-johannsen/matchserver/internal/protocol"
	"github.com/cory-johannsen/matchserver/internal/server"
	"github.com/cory-johannsen/matchserver/internal/storage/postgres"
	"github.com/cory-johannsen/matchserver/internal/transport"
)

type senderFunc func(id int64, msg protocol.Message) error

func (f senderFunc) Send(id int64, msg protocol.Message) error { return f(id, msg) }

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting match server",
		zap.String("listen_addr", cfg.Listen.Addr()),
		zap.String("storage_backend", cfg.Storage.Backend),
	)

	ctx := context.Background()
	lifecycle := server.NewLifecycle(logger)

	// Select the account backend
	var accounts account.Store
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		accounts = postgres.NewAccountRepository(pool.DB())

		health := postgres.NewHealthService(pool, logger, 30*time.Second, 5*time.Second)
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: health.Start,
			StopFn: func() {
				health.Stop()
				pool.Close()
			},
		})
	default:
		store, err := account.OpenFileStore(cfg.Storage.AccountsFile)
		if err != nil {
			logger.Fatal("opening account file", zap.Error(err))
		}
		logger.Info("account file loaded",
			zap.String("path", cfg.Storage.AccountsFile),
			zap.Int("accounts", store.Count()),
		)
		accounts = store
	}

	// Build services. The dispatcher replies through the acceptor, and the
	// acceptor delivers connection events to the dispatcher, so the sender
	// is a closure over the acceptor assigned below.
	var acceptor *transport.Acceptor
	dispatcher := dispatch.New(accounts, match.NewQueue(), room.NewRegistry(),
		senderFunc(func(id int64, msg protocol.Message) error {
			return acceptor.Send(id, msg)
		}), logger)
	acceptor = transport.NewAcceptor(cfg.Listen, dispatcher, logger)

	lifecycle.Add("listener", &server.FuncService{
		StartFn: func() error {
			return acceptor.ListenAndServe()
		},
		StopFn: func() {
			acceptor.Stop()
		},
	})

	logger.Info("match server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("listen_addr", cfg.Listen.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
