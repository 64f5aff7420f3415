// Command dws runs the dictionary writing system: the HTTP API over a
// BaseX-backed LIFT dictionary and offline LIFT imports.
//
//	dws [serve]                          start the HTTP server (default)
//	dws import FILE [--mode] [--ranges]  stream a LIFT file into the database
//	dws version                          print build information
//
// Configuration comes from CONFIG_PATH (or ./config.yaml) and the
// environment.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
