// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"spectrum/cmd"
	applog "spectrum/internal/log"
	"spectrum/pkg/build"
)

// main wires signal handling around the command tree.
func main() {
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build: %v, using development defaults", err)
	}

	// One thread for the render loop, one for UI and I/O.
	runtime.GOMAXPROCS(2)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		stop()
		applog.Fatalf("%v", err)
	}
}
