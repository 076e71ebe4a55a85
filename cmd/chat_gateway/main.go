package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"tab_chat_sync/internal/chat/app"
	"tab_chat_sync/internal/chat/router"
	"tab_chat_sync/pkg/config"
	"tab_chat_sync/pkg/logger"
	testtool "tab_chat_sync/pkg/test_tool"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatGateway, config.EnvConfig.ChatGatewayLogPath)
	defer logger.Log.Sync()

	cfg, err := config.LoadConfig[config.ChatGateway](config.EnvConfig.ChatGateway, config.EnvConfig.ChatGatewayYAMLPath)
	if err != nil {
		logger.Log.Fatal("load config", zap.Error(err))
	}
	logger.Log.SetDebugMode(cfg.Debug || config.IsLocal())
	if cfg.Pprof {
		testtool.StartPprof()
	}
	syncCfg := cfg.Sync.WithDefaults()
	rooms := app.RoomsFromConfig(cfg.Rooms)

	ctx := context.Background()
	backend, err := app.NewBackend(ctx, cfg.Redis, syncCfg.Namespace)
	if err != nil {
		logger.Log.Fatal("connect store", zap.Error(err))
	}

	handler := app.NewChatWebsocketHandler(func(profile string, listener app.ChangeListener) *app.Session {
		if profile == "" {
			// no shared profile: every connection is its own user
			profile = uuid.NewString()
		}
		return app.NewSession(app.SessionConfig{
			Store:        backend.Store(syncCfg.Namespace, profile),
			Feed:         backend.Feed,
			PollInterval: syncCfg.PollInterval,
			SeedDemo:     cfg.SeedDemo,
			Options: []app.EngineOption{
				app.WithRooms(rooms),
				app.WithChangeListener(listener),
			},
		})
	})

	r := fiber.New(fiber.Config{DisableStartupMessage: !config.IsLocal()})
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatGatewayLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		logger.Log.Fatal("open access log", zap.Error(err))
	}
	defer file.Close()
	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, rooms, handler)

	go func() {
		port := ":" + cfg.Port
		logger.Log.Info("chat gateway listening", zap.String("port", port))
		if err := r.Listen(port); err != nil {
			logger.Log.Error("fiber stopped", zap.Error(err))
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		ctx,
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"fiber": func(ctx context.Context) error {
				// every open context writes its user offline before the server stops
				if err := handler.CloseAll(ctx); err != nil {
					return err
				}
				return r.ShutdownWithContext(ctx)
			},
		},
	)

	exitCode := <-wait
	if err := backend.Close(); err != nil {
		logger.Log.Warn("close store", zap.Error(err))
	}
	logger.Log.Info("chat gateway exited", zap.Int("code", exitCode))
	logger.Log.Sync()
	os.Exit(exitCode)
}
