package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"videohub/internal/config"
	"videohub/internal/httpx"
	"videohub/internal/kv"
	"videohub/internal/logging"
)

func main() {
	if err := config.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	store, err := kv.OpenSQLite(cfg.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open state in %s: %v\n", cfg.Dir, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		store:       store,
		feedHTTP:    httpx.NewClient(httpx.Options{Timeout: cfg.HTTPTimeout}),
		uploadHTTP:  httpx.NewClient(httpx.Options{Timeout: -1}),
		concurrency: cfg.FeedConcurrency,
		log:         logging.Default,
	}
	code := a.run(ctx, os.Args[1:])

	stop()
	_ = store.Close()
	os.Exit(code)
}
