package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dumpty-dev/dumpty/cmd/dumpty/cmd"
)

func main() {
	// Cleanup handlers run synchronously on interruption: engines observe
	// the context between steps and roll back before returning.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
