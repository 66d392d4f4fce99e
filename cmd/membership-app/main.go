package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"membership-app-go/internal/app"
	"membership-app-go/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	log := logger.NewFromEnv()
	log.Info("app: starting", "pid", os.Getpid())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(log)
	if err != nil {
		log.Critical("app: init failed", "err", err)
		return 1
	}

	if err := application.Run(ctx); err != nil {
		log.Critical("app: stopped with error", "err", err)
		return 1
	}
	log.Info("app: stopped")
	return 0
}
