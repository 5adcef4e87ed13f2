package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"compliance-feed/backend/global"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		global.Logger.Error().Err(err).Msg("exit")
		stop()
		os.Exit(1)
	}
}
