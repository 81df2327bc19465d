// Package main provides the Telnet frontend. It accepts terminal players and
// bridges each one to the game server over a gRPC session stream.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cory-johannsen/connectfour/internal/config"
	"github.com/cory-johannsen/connectfour/internal/frontend/handlers"
	"github.com/cory-johannsen/connectfour/internal/frontend/telnet"
	gamev1 "github.com/cory-johannsen/connectfour/internal/gameserver/gamev1"
	"github.com/cory-johannsen/connectfour/internal/observability"
	"github.com/cory-johannsen/connectfour/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("loading .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting telnet frontend",
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.String("gameserver_addr", cfg.GameServer.Addr()),
	)

	cc, err := grpc.NewClient(cfg.GameServer.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.Fatal("creating game server client", zap.Error(err))
	}
	defer cc.Close()

	handler := handlers.NewGameHandler(gamev1.NewGameServiceClient(cc), cfg.Telnet, observability.Component(logger, "handler"))
	acceptor := telnet.NewAcceptor(cfg.Telnet, handler, observability.Component(logger, "telnet"))

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.Start,
		StopFn:  acceptor.Stop,
	})

	logger.Info("frontend initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
