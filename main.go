package main

import (
	"context"
	"log"

	"inci.cards/configs"
	"inci.cards/configs/configsgoogle"
	"inci.cards/configs/configslog"
	"inci.cards/pkg/cardstate"
	"inci.cards/pkg/codestore"
	"inci.cards/routes"
	"inci.cards/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := configslog.InitLogger(cfg.AppEnv); err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer configslog.Sync()

	ctx := context.Background()
	if err := configsgoogle.Connect(ctx); err != nil {
		configslog.Log.Fatal("google connection failed", zap.Error(err))
	}

	aiService, err := services.NewAIService(ctx)
	if err != nil {
		configslog.Log.Fatal("AI service initialization failed", zap.Error(err))
	}

	registry := cardstate.NewRegistry()
	codes := codestore.New()
	userService := services.NewUserService()
	authService := services.NewAuthService(codes, userService)

	app := fiber.New(fiber.Config{
		AppName:   "Cosmetic Agent",
		BodyLimit: 110 * 1024 * 1024, // ten files at the 10 MB per-file cap, plus multipart overhead
	})

	routes.SetupRoutes(app, routes.Deps{
		Auth:     authService,
		Cards:    services.NewCardService(aiService, registry),
		Intake:   services.NewIntakeService(aiService),
		Batch:    services.NewBatchService(aiService),
		AI:       aiService,
		Registry: registry,
	})

	configslog.SLog.Infof("listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		configslog.Log.Fatal("server stopped", zap.Error(err))
	}
}
