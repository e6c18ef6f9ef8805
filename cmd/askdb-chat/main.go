package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/tui"
)

func main() {
	cfg, err := config.LoadFromEnv("askdb-chat")
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Fehler:", err)
		os.Exit(1)
	}

	// The terminal owns stdout, so pipeline logs are discarded here.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service, _, err := pipeline.FromConfig(cfg, logger)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Fehler:", err)
		os.Exit(1)
	}

	if err := tui.Run(service); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Fehler:", err)
		os.Exit(1)
	}
}
