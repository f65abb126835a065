package main

import (
	"context"
	"fmt"
	"os"

	"github.com/swarupplay/backend/internal/app"
)

const usage = `usage: swarupplay <command>

commands:
  serve            start the HTTP API and streaming proxy
  migrate [up|status]
  seed <name>      apply seeds/<name>_seed.sql`

func main() {
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "swarupplay: %v\n\n%s\n", err, usage)
		os.Exit(1)
	}
}
