// Command focal runs mock-driven scenarios against focal functions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/focal/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()

	if err == nil {
		os.Exit(cli.ExitSuccess)
	}

	// Usage errors from cobra carry no exit code.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "focal:", err)
		os.Exit(cli.ExitCommandError)
	}
	if exitErr.Code == cli.ExitCommandError {
		fmt.Fprintln(os.Stderr, "focal:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
