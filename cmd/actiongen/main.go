package main

import (
	"log/slog"
	"os"

	"actiongen/internal/ui/cli"
)

func main() {
	level := new(slog.LevelVar)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	os.Exit(cli.Run(os.Args[1:], level))
}
