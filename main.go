//go:build !(js || wasm)

package main

import (
	"github.com/cottand/typeguard/cmd"
	"github.com/spf13/cobra"
	"os"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "typeguard [subcommand]",
	Short:        "typeguard checks documented types at runtime",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	cmd.Register(rootCmd)
}
