package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gobeaver/datasetkit"
	"github.com/gobeaver/datasetkit/internal/cli"
)

func main() {
	inv, err := cli.ParseInvocation(os.Args[1:])
	if err != nil {
		var invErr *cli.InvocationError
		if errors.As(err, &invErr) {
			if invErr.ExitCode == cli.ExitSuccess {
				fmt.Fprint(os.Stdout, invErr.Message)
			} else {
				fmt.Fprintln(os.Stderr, invErr.Message)
			}
			os.Exit(invErr.ExitCode)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitInternalError)
	}

	datasetkit.SetLogger(log.New(os.Stderr, "", log.LstdFlags).Printf)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, execErr := cli.Execute(ctx, inv, os.Stdout)
	if execErr != nil {
		fmt.Fprintln(os.Stderr, execErr)
	}
	stop()
	os.Exit(result.ExitCode)
}
