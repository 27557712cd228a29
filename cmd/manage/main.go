package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/AnshRaj112/thoughtify-backend/internal/config"
	"github.com/AnshRaj112/thoughtify-backend/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := newRootCmd(cfg, log, postgresOpener(cfg)).Execute(); err != nil {
		os.Exit(1)
	}
}
