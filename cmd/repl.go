package cmd

import (
	"errors"
	"fmt"
	"github.com/cottand/typeguard/config"
	"github.com/cottand/typeguard/guard"
	"github.com/cottand/typeguard/object"
	"github.com/cottand/typeguard/parser"
	"github.com/cottand/typeguard/resolve"
	"github.com/cottand/typeguard/validate"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ReplCmd = &cobra.Command{
	Use:   "repl",
	Short: "Explore annotations interactively",
	Long: `Reads annotations and prints their type tree. A line of the form
'annotation = value' checks value against the annotation instead.`,
	RunE:         runRepl,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
}

const (
	replPrompt  = "typeguard> "
	historyFile = ".typeguard_history"
)

func runRepl(cmd *cobra.Command, _ []string) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := filepath.Join(os.TempDir(), historyFile)
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
	}
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	session := newReplSession()
	out := cmd.OutOrStdout()
	for {
		line, err := ln.Prompt(replPrompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ":quit" {
			return nil
		}
		ln.AppendHistory(line)

		result, err := session.eval(line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		fmt.Fprint(out, result)
	}
}

// replSession evaluates lines against a namespace of builtin types
type replSession struct {
	ns       *object.Namespace
	resolver *resolve.Resolver
}

func newReplSession() *replSession {
	ns := object.New()
	return &replSession{
		ns:       ns,
		resolver: resolve.New(ns, config.Resolution{RaiseOnNameError: true}, nil),
	}
}

func (s *replSession) eval(line string) (string, error) {
	annotation, value, check := strings.Cut(line, " = ")
	if !check {
		return guard.Describe(line)
	}

	node, err := parser.Parse(annotation)
	if err != nil {
		return "", err
	}
	if err := s.resolver.ResolveNode(node, ""); err != nil {
		return "", err
	}
	v, err := validate.Compile(node, s.ns)
	if err != nil {
		return "", err
	}
	decoded, err := DecodeArgs([]string{value})
	if err != nil {
		return "", err
	}
	if v.Valid(decoded[0]) {
		return fmt.Sprintf("%s is a valid %s\n", object.Inspect(decoded[0]), v), nil
	}
	return fmt.Sprintf("%s is not a valid %s, it is a %s\n", object.Inspect(decoded[0]), v, s.ns.ClassOf(decoded[0]).Name()), nil
}
