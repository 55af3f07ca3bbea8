package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	c := &cli{open: openRuntime}
	err := c.rootCmd().ExecuteContext(ctx)
	if cerr := c.close(); cerr != nil {
		fmt.Fprintln(os.Stderr, "cleanup:", cerr)
	}
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
