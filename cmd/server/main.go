package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/slwang/voiceledger/internal/logging"
	"github.com/slwang/voiceledger/internal/server"
	"github.com/slwang/voiceledger/internal/server/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig("server")
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	// No speech backend ships with the server binary.
	if err := server.Run(ctx, cfg, logger, nil); err != nil {
		log.Fatalf("%v", err)
	}
}
