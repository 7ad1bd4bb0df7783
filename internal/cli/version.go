package cli

import (
	"github.com/dmitrijs2005/certvault/internal/buildinfo"
	"github.com/spf13/cobra"
)

func (a *App) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(*cobra.Command, []string) {
			buildinfo.PrintBuildData(a.out)
		},
	}
}
