// feedlog collects crypto prices, game rankings and video statistics into
// append-only CSV tables.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xtxerr/feedlog/cmd/feedlog/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.ExecuteContext(ctx)
	stop()
	os.Exit(code)
}
