// Package main provides the bot client binary. It hosts the PlayerService the
// game server calls back into, registers, and plays random offered actions.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/partygames/mafia/internal/client"
	"github.com/partygames/mafia/internal/config"
	"github.com/partygames/mafia/internal/game/deck"
	"github.com/partygames/mafia/internal/gameserver/mafiav1"
	"github.com/partygames/mafia/internal/observability"
	"github.com/partygames/mafia/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	name := flag.String("name", "", "display name; overrides client.name")
	statsFor := flag.String("stats", "", "print the stats record of this player and exit")
	list := flag.Bool("list", false, "print every stats record and exit")
	avatar := flag.String("avatar", "", "set the avatar of -name (\"default\" restores it) and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *name != "" {
		cfg.Client.Name = *name
	}

	logger, err := observability.NewLogger(cfg.Logging, "client")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	conn, err := grpc.NewClient(cfg.Client.ServerAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.Fatal("creating game server client", zap.String("addr", cfg.Client.ServerAddr), zap.Error(err))
	}
	defer conn.Close()
	gameClient := mafiav1.NewGameServiceClient(conn)

	ctx := context.Background()

	timeout := cfg.Client.RegisterTimeout
	switch {
	case *statsFor != "":
		if err := printStats(ctx, gameClient, *statsFor, timeout); err != nil {
			logger.Fatal("fetching player stats", zap.String("player", *statsFor), zap.Error(err))
		}
		return
	case *list:
		if err := printPlayers(ctx, gameClient, timeout); err != nil {
			logger.Fatal("listing player stats", zap.Error(err))
		}
		return
	case *avatar != "":
		if err := setAvatar(ctx, gameClient, cfg.Client.Name, *avatar, timeout); err != nil {
			logger.Fatal("updating avatar", zap.String("player", cfg.Client.Name), zap.Error(err))
		}
		return
	}

	bot := client.NewBot(cfg.Client, gameClient, deck.NewCryptoSource(), logger)

	lis, err := net.Listen("tcp", cfg.Client.Addr())
	if err != nil {
		logger.Fatal("listening", zap.String("addr", cfg.Client.Addr()), zap.Error(err))
	}
	port := lis.Addr().(*net.TCPAddr).Port

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(observability.UnaryServerInterceptor(logger)))
	mafiav1.RegisterPlayerServiceServer(grpcServer, bot)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("player-service", &server.FuncService{
		StartFn: func(context.Context) error {
			logger.Info("PlayerService listening", zap.String("addr", lis.Addr().String()))
			return grpcServer.Serve(lis)
		},
		StopFn: grpcServer.GracefulStop,
	})
	lifecycle.Add("bot", &server.FuncService{
		StartFn: func(ctx context.Context) error {
			if err := bot.Register(ctx, port); err != nil {
				return err
			}
			return bot.Run(ctx)
		},
		StopFn: func() {
			if err := bot.Leave(context.Background()); err != nil {
				logger.Warn("leaving game server", zap.Error(err))
			}
		},
	})

	logger.Info("client initialized",
		zap.String("name", bot.Name()),
		zap.String("server_addr", cfg.Client.ServerAddr),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("client error", zap.Error(err))
	}
}

func printStats(ctx context.Context, c mafiav1.GameServiceClient, name string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	rec, err := c.PlayerStats(ctx, &mafiav1.PlayerStatsRequest{Name: name})
	if err != nil {
		return err
	}
	printRecord(rec)
	return nil
}

func printPlayers(ctx context.Context, c mafiav1.GameServiceClient, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	resp, err := c.ListPlayers(ctx, &emptypb.Empty{})
	if err != nil {
		return err
	}
	for _, rec := range resp.Players {
		printRecord(rec)
	}
	return nil
}

// setAvatar updates the avatar of name. The literal "default" sends an empty
// avatar, which the server resets to its default.
func setAvatar(ctx context.Context, c mafiav1.GameServiceClient, name, avatar string, timeout time.Duration) error {
	if name == "" {
		return errors.New("-avatar needs -name or client.name")
	}
	if avatar == "default" {
		avatar = ""
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	rec, err := c.UpdateAvatar(ctx, &mafiav1.UpdateAvatarRequest{Name: name, Avatar: avatar})
	if err != nil {
		return err
	}
	printRecord(rec)
	return nil
}

func printRecord(rec *mafiav1.PlayerStatsResponse) {
	fmt.Fprintf(os.Stdout, "%s: wins=%d losses=%d played=%s avatar=%s\n",
		rec.Name, rec.Wins, rec.Losses,
		(time.Duration(rec.SecondsPlayed * float64(time.Second))).Round(time.Second),
		rec.Avatar,
	)
}
