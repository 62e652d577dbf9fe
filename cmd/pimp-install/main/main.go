package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	pimpinstall "github.com/pimp-project/pimp-install/cmd/pimp-install"
)

func main() {
	// Interrupts cancel the running step; the report still gets printed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := pimpinstall.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		pimpinstall.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
