package main

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/certvault/internal/buildinfo"
	"github.com/dmitrijs2005/certvault/internal/server"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", v...)
	})); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	os.Exit(server.Main())
}
