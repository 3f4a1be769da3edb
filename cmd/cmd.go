package cmd

import (
	"fmt"
	"github.com/cottand/typeguard/config"
	"github.com/cottand/typeguard/internal/log"
	"github.com/cottand/typeguard/object"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"log/slog"
	"os"
)

var (
	configPath *string
	logLevel   *int
)

// Register adds the typeguard subcommands and the flags they share to root
func Register(root *cobra.Command) {
	configPath = root.PersistentFlags().StringP("config", "c", "", "configuration file, "+config.FileName+" when present")
	logLevel = root.PersistentFlags().IntP("log-level", "l", int(slog.LevelError), "log level")
	root.PersistentPreRun = func(*cobra.Command, []string) {
		log.SetLevel(slog.Level(*logLevel))
	}
	root.AddCommand(ParseCmd, CheckCmd, RunCmd, ReplCmd)
}

// loadConfig reads --config, or the configuration file of the working
// directory when there is one
func loadConfig() (config.Config, error) {
	path := ""
	if configPath != nil {
		path = *configPath
	}
	if path == "" {
		if _, err := os.Stat(config.FileName); err != nil {
			return config.Default(), nil
		}
		path = config.FileName
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("could not load configuration '%s': %w", path, err)
	}
	return cfg, nil
}

// DecodeArgs turns command line arguments into values of the object model.
// Literals like :symbol or "quoted" are read first, anything else is YAML.
func DecodeArgs(args []string) ([]any, error) {
	values := make([]any, 0, len(args))
	for _, arg := range args {
		if v, ok := object.ParseLiteral(arg); ok {
			values = append(values, v)
			continue
		}
		var v any
		if err := yaml.Unmarshal([]byte(arg), &v); err != nil {
			return nil, fmt.Errorf("could not decode argument '%s': %w", arg, err)
		}
		values = append(values, v)
	}
	return values, nil
}
