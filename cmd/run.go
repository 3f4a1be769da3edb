package cmd

import (
	"fmt"
	"github.com/cottand/typeguard/builder"
	"github.com/cottand/typeguard/config"
	"github.com/cottand/typeguard/guard"
	"github.com/cottand/typeguard/object"
	"github.com/cottand/typeguard/script"
	"github.com/cottand/typeguard/util"
	"github.com/spf13/cobra"
	"os"
	"path/filepath"
)

var RunCmd = &cobra.Command{
	Use:   "run <file.go> <function> [args]...",
	Short: "Interpret a Go file and call one of its functions with typeguard enabled",
	Long: `Interprets a Go file, wraps every function and method documented in it,
and calls function with args. Arguments are literals like :symbol or "quoted",
or YAML. The violations found during the call are reported afterwards.`,
	Example:      "  typeguard run shop.go Total '[1, 2, 3]' :eur",
	RunE:         runRun,
	Args:         cobra.MinimumNArgs(2),
	SilenceUsage: true,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	target, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("could not get absolute path of target: %w", err)
	}
	src, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("could not read target: %w", err)
	}
	callArgs, err := DecodeArgs(args[2:])
	if err != nil {
		return err
	}

	ns := object.New()
	if _, err := script.Load(ns, target, src, script.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())); err != nil {
		return err
	}
	cfg.Enabled = true
	cfg.Source = config.SourceYard
	cfg.Target = []string{target}
	b, err := builder.New(cfg)
	if err != nil {
		return err
	}
	g := guard.New(cfg, ns)
	if err := g.Process(b); err != nil {
		return err
	}
	if cfg.AtExitReport {
		defer func() {
			if err := g.Finish(); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
		}()
	}

	result, err := ns.Call(util.CamelToSnake(args[1]), callArgs...)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, object.Inspect(result))
	if cfg.AtExitReport {
		return nil
	}
	return g.Report(out)
}
