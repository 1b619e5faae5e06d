// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, logOut := newRootCmd()
	err := cmd.ExecuteContext(ctx)
	_ = logOut.Close()
	if err != nil {
		os.Exit(1)
	}
}
