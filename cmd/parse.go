package cmd

import (
	"errors"
	"fmt"
	"github.com/cottand/typeguard/guard"
	"github.com/cottand/typeguard/guarderr"
	"github.com/spf13/cobra"
	"strings"
)

var ParseCmd = &cobra.Command{
	Use:          "parse <annotation>",
	Short:        "Print the type tree of an annotation",
	Example:      "  typeguard parse 'Hash{Symbol => Array<Integer>}, nil'",
	RunE:         runParse,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func runParse(cmd *cobra.Command, args []string) error {
	tree, err := guard.Describe(strings.Join(args, " "))
	if err != nil {
		var guardErr guarderr.GuardError
		if errors.As(err, &guardErr) {
			return fmt.Errorf("%s", guarderr.FormatWithCode(guardErr))
		}
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), tree)
	return err
}
