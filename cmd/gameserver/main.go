// Package main provides the game server binary. It owns every game and serves
// players over gRPC (for frontends) and WebSocket (for browsers).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/connectfour/internal/config"
	"github.com/cory-johannsen/connectfour/internal/game/matchmaking"
	"github.com/cory-johannsen/connectfour/internal/game/session"
	"github.com/cory-johannsen/connectfour/internal/gameserver"
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

	logger.Info("starting game server",
		zap.String("grpc_addr", cfg.GameServer.Addr()),
		zap.Bool("websocket", cfg.WebSocket.Enabled),
	)

	coord := gameserver.NewCoordinator(
		session.NewRegistry(),
		matchmaking.NewQueue(),
		matchmaking.NewPendingTable(),
		observability.Component(logger, "coordinator"),
	)
	hub := gameserver.NewHub(coord, cfg.GameServer.OutboxSize, observability.Component(logger, "hub"))

	grpcServer := grpc.NewServer()
	gamev1.RegisterGameServiceServer(grpcServer, gameserver.NewGameServiceServer(hub, observability.Component(logger, "grpc")))

	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("grpc", &server.FuncService{
		StartFn: func(context.Context) error {
			lis, err := net.Listen("tcp", cfg.GameServer.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.GameServer.Addr(), err)
			}
			logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
			return grpcServer.Serve(lis)
		},
		StopFn: grpcServer.GracefulStop,
	})

	if cfg.WebSocket.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.WebSocket.Path, gameserver.NewWebSocketHandler(hub, gameserver.WebSocketConfig{
			AllowedOrigins: cfg.WebSocket.AllowedOrigins,
			ReadLimit:      cfg.WebSocket.ReadLimit,
			PongWait:       cfg.WebSocket.PongWait,
			WriteWait:      cfg.WebSocket.WriteWait,
		}, observability.Component(logger, "websocket")))
		httpServer := &http.Server{Addr: cfg.WebSocket.Addr(), Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		lifecycle.Add("websocket", &server.FuncService{
			StartFn: func(context.Context) error {
				logger.Info("websocket endpoint listening",
					zap.String("addr", cfg.WebSocket.Addr()),
					zap.String("path", cfg.WebSocket.Path),
				)
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			},
			StopFn: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpServer.Shutdown(ctx)
			},
		})
	}

	if cfg.Server.StatsInterval > 0 {
		reporter := gameserver.NewStatsReporter(cfg.Server.StatsInterval, hub, observability.Component(logger, "stats"))
		lifecycle.Add("stats", &server.FuncService{
			StartFn: func(ctx context.Context) error {
				reporter.Run(ctx)
				return nil
			},
		})
	}

	logger.Info("game server initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
