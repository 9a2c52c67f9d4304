// Package main provides the Mafia game server binary: the gRPC GameService
// plus the orchestrator loop that matches, starts and tears down games.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/partygames/mafia/internal/config"
	"github.com/partygames/mafia/internal/game/session"
	"github.com/partygames/mafia/internal/gameserver"
	"github.com/partygames/mafia/internal/gameserver/mafiav1"
	"github.com/partygames/mafia/internal/observability"
	"github.com/partygames/mafia/internal/server"
	"github.com/partygames/mafia/internal/stats"
	"github.com/partygames/mafia/internal/storage/postgres"
	"github.com/partygames/mafia/internal/storage/sqlite"
)

const healthInterval = 30 * time.Second

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "gameserver")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting game server",
		zap.String("grpc_addr", cfg.GameServer.Addr()),
		zap.Int("game_capacity", cfg.GameServer.GameCapacity),
		zap.String("stats_driver", cfg.Stats.Driver),
	)

	lifecycle := server.NewLifecycle(logger)

	store, err := openStats(ctx, cfg, lifecycle, logger)
	if err != nil {
		logger.Fatal("opening stats store", zap.Error(err))
	}

	registry := session.NewRegistry(cfg.GameServer.OutboxSize, cfg.GameServer.RPCTimeout, logger)
	orch := gameserver.NewOrchestrator(
		cfg.GameServer,
		registry,
		gameserver.NewGRPCDialer(),
		store,
		gameserver.NewGameFactory(logger),
		logger,
	)

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(observability.UnaryServerInterceptor(logger)))
	mafiav1.RegisterGameServiceServer(grpcServer, gameserver.NewGameServiceServer(orch, store, logger))

	lifecycle.Add("orchestrator", &server.FuncService{
		StartFn: orch.Run,
		StopFn: func() {
			orch.Wait()
			registry.Close()
		},
	})

	lifecycle.Add("grpc", &server.FuncService{
		StartFn: func(context.Context) error {
			lis, err := net.Listen("tcp", cfg.GameServer.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.GameServer.Addr(), err)
			}
			logger.Info("gRPC server listening",
				zap.String("addr", lis.Addr().String()),
			)
			return grpcServer.Serve(lis)
		},
		StopFn: func() {
			grpcServer.GracefulStop()
		},
	})

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("grpc_addr", cfg.GameServer.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// openStats opens the configured stats backend and registers a lifecycle
// service that owns it.
func openStats(ctx context.Context, cfg config.Config, lifecycle *server.Lifecycle, logger *zap.Logger) (stats.Store, error) {
	switch cfg.Stats.Driver {
	case config.StatsDriverSQLite:
		dbStart := time.Now()
		store, err := sqlite.Open(cfg.Stats.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("sqlite stats store opened",
			zap.String("path", cfg.Stats.SQLitePath),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		lifecycle.Add("sqlite", &server.FuncService{
			StartFn: func(ctx context.Context) error {
				<-ctx.Done()
				return nil
			},
			StopFn: func() {
				if err := store.Close(); err != nil {
					logger.Warn("closing sqlite stats store", zap.Error(err))
				}
			},
		})
		return store, nil

	case config.StatsDriverPostgres:
		dbStart := time.Now()
		store, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func(ctx context.Context) error {
				ticker := time.NewTicker(healthInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
						if err := store.Health(ctx, 5*time.Second); err != nil {
							logger.Warn("database health check failed", zap.Error(err))
						}
					}
				}
			},
			StopFn: store.Close,
		})
		return store, nil
	}
	logger.Info("stats disabled")
	return stats.Nop{}, nil
}
