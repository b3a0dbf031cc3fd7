// cmd/nepafeed/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/law-makers/nepafeed/internal/cli"
)

func main() {
	// Cancel the run on interrupt; the current term finishes unwinding and
	// no partial feeds are written.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx)
}
