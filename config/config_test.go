package config_test

import (
	"github.com/cottand/typeguard/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, config.SourceYard, cfg.Source)
	assert.False(t, cfg.Resolution.RaiseOnNameError)
}

func TestParse(t *testing.T) {
	cfg, err := config.Parse([]byte(`
enabled = true
at_exit_report = true
target = ["./lib", "./app"]
source = "sig"

[resolution]
raise_on_name_error = true

[wrapping]
raise_on_unexpected_arity = true

[validation]
raise_on_unexpected_return = true
`))
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.AtExitReport)
	assert.False(t, cfg.Reparse)
	assert.Equal(t, []string{"./lib", "./app"}, cfg.Target)
	assert.Equal(t, config.SourceRBS, cfg.Source)
	assert.True(t, cfg.Resolution.RaiseOnNameError)
	assert.True(t, cfg.Wrapping.RaiseOnUnexpectedArity)
	assert.False(t, cfg.Wrapping.RaiseOnUnexpectedVisibility)
	assert.False(t, cfg.Validation.RaiseOnUnexpectedArgument)
	assert.True(t, cfg.Validation.RaiseOnUnexpectedReturn)
}

func TestParseErrors(t *testing.T) {
	_, err := config.Parse([]byte(`source = "sorbet"`))
	assert.ErrorContains(t, err, "config source must be one of")

	_, err = config.Parse([]byte(`enabled = "yes"`))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLoadRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Enabled = true
	cfg.Target = []string{"."}
	cfg.Report.Path = "report.txt"
	data, err := cfg.Encode()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
