package main

import (
	"context"
	"log/slog"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; in containers everything arrives via real env vars.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	app := mustBootstrapTrackerAPI()
	defer app.Close()

	if err := app.Run(); err != nil && err != context.Canceled {
		panic(err)
	}
}
