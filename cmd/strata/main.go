// Command strata generates the dependency wiring of a project from its
// //strata:: markers.
//
// Usage:
//
//	strata generate [patterns...] [--watch]
//	strata clean [patterns...]
//	strata inspect [patterns...] [--listen addr]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

// execute runs the command line args, for tests
func execute(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
