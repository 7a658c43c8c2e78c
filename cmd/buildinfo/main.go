package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/launchbynttdata/launch-build-info/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := cli.Run(ctx, args, stdout, stderr); err != nil {
		_, _ = fmt.Fprintf(stderr, "buildinfo: %v\n", err)
		return 1
	}
	return 0
}
