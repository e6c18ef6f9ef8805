package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/askdb/askdb/internal/cli/askdbctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := askdbctl.NewRootCmd(askdbctl.Options{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Fehler:", err)
		os.Exit(1)
	}
}
