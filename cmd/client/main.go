package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/slwang/voiceledger/internal/client/cli"
	"github.com/slwang/voiceledger/internal/client/config"
	"github.com/slwang/voiceledger/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.New("info", "text")

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
