package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X github.com/raysh454/owaspscan/internal/cli.Version=...".
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func newVersionCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(root.io.Out, "owaspscan %s (built %s, %s)\n", Version, BuildTime, runtime.Version())
		},
	}
}
