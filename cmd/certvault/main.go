package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/certvault/internal/cli"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	// Undo is not needed for a short-lived process.
	_, _ = maxprocs.Set()

	os.Exit(cli.NewApp(os.Stdout, os.Stderr).Execute(context.Background(), os.Args[1:]))
}
