// Command cachekeeper serves the entity cache over HTTP.
//
//	cachekeeper                  run the server, configured from the environment
//	cachekeeper hash-password    print a bcrypt hash for API_PASSWORD_HASH
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/cachekeeper/pkg/logger"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(os.Args[2:], os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "hash-password: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("cachekeeper stopped", logger.Error(err))
		os.Exit(1)
	}
}
