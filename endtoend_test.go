package main

import (
	"embed"
	"github.com/cottand/typeguard/builder"
	"github.com/cottand/typeguard/cmd"
	"github.com/cottand/typeguard/config"
	"github.com/cottand/typeguard/guard"
	"github.com/cottand/typeguard/metrics"
	"github.com/cottand/typeguard/object"
	"github.com/cottand/typeguard/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
)

// embeds the test folder
//
//go:embed testdata
var testSet embed.FS

const testPrefix = "//typeguard:endToEnd "

type endToEndCase struct {
	name     string
	function string
	args     []string
	expected string
	kinds    []metrics.Kind
}

// format is as follows, one line per call at the top of the file:
//
//	//typeguard:endToEnd function | args separated by ; | expected value | violation kinds
func extractTestComments(t *testing.T, content string) []endToEndCase {
	var cases []endToEndCase
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, testPrefix) {
			break
		}
		elems := strings.Split(strings.TrimPrefix(line, testPrefix), "|")
		if len(elems) != 4 {
			t.Fatalf("could not parse comment string: '%v'", line)
		}
		c := endToEndCase{
			name:     strings.TrimSpace(strings.TrimPrefix(line, testPrefix)),
			function: strings.TrimSpace(elems[0]),
			expected: strings.TrimSpace(elems[2]),
		}
		for _, arg := range strings.Split(elems[1], ";") {
			if arg = strings.TrimSpace(arg); arg != "" {
				c.args = append(c.args, arg)
			}
		}
		for _, kind := range strings.Split(elems[3], ",") {
			if kind = strings.TrimSpace(kind); kind != "" {
				c.kinds = append(c.kinds, metrics.Kind(kind))
			}
		}
		cases = append(cases, c)
	}
	if len(cases) == 0 {
		t.Fatalf("no test comments found")
	}
	return cases
}

func TestEndToEnd(t *testing.T) {
	files, err := testSet.ReadDir("testdata")
	require.NoError(t, err)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".go") {
			continue
		}
		t.Run(f.Name(), func(t *testing.T) {
			content, err := testSet.ReadFile(path.Join("testdata", f.Name()))
			require.NoError(t, err)
			target := filepath.Join(t.TempDir(), f.Name())
			require.NoError(t, os.WriteFile(target, content, 0o644))

			for _, c := range extractTestComments(t, string(content)) {
				t.Run(c.name, func(t *testing.T) {
					testCall(t, target, content, c)
				})
			}
		})
	}
}

func testCall(t *testing.T, target string, content []byte, c endToEndCase) {
	ns := object.New()
	_, err := script.Load(ns, target, content)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Enabled = true
	g := guard.New(cfg, ns)
	require.NoError(t, g.Process(&builder.DocBuilder{Targets: []string{target}}))
	assert.Empty(t, g.Registry.Violations(), "every definition resolves and wraps")

	args, err := cmd.DecodeArgs(c.args)
	require.NoError(t, err)
	result, err := ns.Call(c.function, args...)
	require.NoError(t, err)
	assert.Equal(t, c.expected, object.Inspect(result))

	var kinds []metrics.Kind
	for _, v := range g.Registry.Violations() {
		kinds = append(kinds, v.Kind)
	}
	assert.Equal(t, c.kinds, kinds)
}
