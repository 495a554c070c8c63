package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/biosleuth/ko2pathway/cmd"
)

// main is the entry point of the application.
func main() {
	// Interrupts abort the run gracefully; the cache keeps its last
	// successfully written state either way.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}
