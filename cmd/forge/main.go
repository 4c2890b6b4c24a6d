// Package main provides the forge CLI for building patched runtime binaries.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(os.LookupEnv).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
