package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/NewsFlow/internal/cli"
)

func main() {
	// Keep stdout for command output
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if err := cli.NewRootCmd(cli.BuildServices).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
