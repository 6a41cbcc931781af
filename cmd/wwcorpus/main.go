package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/BegaDeveloper/wwcorpus/internal/config"
)

const (
	exitSuccess       = 0
	exitFailure       = 1
	exitConfiguration = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runWith(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
}

func runWith(ctx context.Context, args []string, stdout, stderr io.Writer, getenv config.Lookup) int {
	application := &app{stdout: stdout, stderr: stderr, getenv: getenv}
	root := newRootCommand(application)
	root.SetArgs(args)
	if runError := root.ExecuteContext(ctx); runError != nil {
		fmt.Fprintf(stderr, "wwcorpus: %v\n", runError)
		return exitCode(runError)
	}
	return exitSuccess
}

func exitCode(err error) int {
	if errors.Is(err, config.ErrConfiguration) {
		return exitConfiguration
	}
	return exitFailure
}
