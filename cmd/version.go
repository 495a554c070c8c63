package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/biosleuth/ko2pathway/internal/config"
)

// newVersionCmd creates the `version` command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ko2pathway version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ko2pathway %s (%s/%s)\n", config.Version, runtime.GOOS, runtime.GOARCH)
		},
	}
}
