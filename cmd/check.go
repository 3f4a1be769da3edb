package cmd

import (
	"fmt"
	"github.com/cottand/typeguard/builder"
	"github.com/cottand/typeguard/config"
	"github.com/cottand/typeguard/guard"
	"github.com/cottand/typeguard/guarderr"
	"github.com/cottand/typeguard/metrics"
	"github.com/cottand/typeguard/object"
	"github.com/cottand/typeguard/resolve"
	"github.com/cottand/typeguard/typemodel"
	"github.com/spf13/cobra"
)

var CheckCmd = &cobra.Command{
	Use:   "check <file.go|./folder|file.yml>...",
	Short: "Check that annotations are well-formed and reference declared types",
	Long: `Builds the definitions of the targets and resolves every annotation
against the builtin types and the types the targets declare themselves.`,
	RunE:         runCheck,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var (
	checkStrict *bool
	checkSource *string
)

func init() {
	checkStrict = CheckCmd.Flags().Bool("strict", false, "stop at the first unresolvable name")
	checkSource = CheckCmd.Flags().StringP("source", "s", "", "annotation source, one of yard (doc comments) or rbs (signature files)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Target = args
	cfg.Reparse = true
	if *checkSource != "" {
		cfg.Source = config.Source(*checkSource)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if *checkStrict {
		cfg.Resolution.RaiseOnNameError = true
	}

	b, err := builder.New(cfg)
	if err != nil {
		return err
	}
	defs, buildErrs, err := b.Build()
	if err != nil {
		return fmt.Errorf("could not build definitions: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, e := range buildErrs.Errors() {
		fmt.Fprintln(out, guarderr.FormatWithCode(e))
	}

	ns := object.New()
	guard.Declare(ns, defs)
	registry := metrics.NewRegistry()
	resolved, err := resolve.New(ns, cfg.Resolution, registry).Resolve(defs)
	if err != nil {
		return err
	}
	for _, v := range registry.Violations() {
		fmt.Fprintln(out, v.Format())
	}

	malformed, unresolved := len(buildErrs.Errors()), registry.Len()
	fmt.Fprintf(out, "%d methods checked, %d malformed annotations, %d unresolved definitions\n",
		typemodel.CountMethods(resolved), malformed, unresolved)
	if malformed > 0 || unresolved > 0 {
		return fmt.Errorf("found %d errors", malformed+unresolved)
	}
	return nil
}
