package main

import (
	"log"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/n4wf3l/perfume-platform-backend/internal/config"
	"github.com/n4wf3l/perfume-platform-backend/internal/logging"
	"github.com/n4wf3l/perfume-platform-backend/internal/server"
)

func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.Init(cfg.Debug)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	app := iris.New()
	server.RegisterRoutes(app, cfg)

	addr := cfg.Server.Addr()
	zap.L().Info("api server listening", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		zap.L().Fatal("api server stopped", zap.Error(err))
	}
}
