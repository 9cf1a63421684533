package main

import (
	"context"
	"log"

	"inci.cards/configs"
	"inci.cards/configs/configsgoogle"
	"inci.cards/configs/configslog"
	"inci.cards/journal"
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
		configslog.SLog.Fatalf("google connection failed: %v", err)
	}

	if err := journal.Initialize(ctx); err != nil {
		configslog.SLog.Fatalf("journal setup failed: %v", err)
	}
}
