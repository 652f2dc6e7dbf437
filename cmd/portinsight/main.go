// Command portinsight aggregates port visit events and scores ports for
// investment, once per processing date.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Stderr.WriteString("portinsight: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
