package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/qobs-build/exgen/internal/builder"
	"github.com/qobs-build/exgen/internal/examples"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumValue(t *testing.T) {
	e := NewEnumValue("ninja", map[string]string{"ninja": "n", "json": "", "cmake": "c"})

	assert.Equal(t, "ninja", e.Value())
	assert.Equal(t, "[cmake, json, ninja]", e.HelpString())

	require.NoError(t, e.Set("json"))
	assert.Equal(t, "json", e.String())

	err := e.Set("make")
	assert.EqualError(t, err, "must be one of: cmake, json, ninja")
	assert.Equal(t, "json", e.Value())

	items, directive := e.CompletionFunc()(nil, nil, "")
	assert.Equal(t, []string{"cmake\tc", "json", "ninja\tn"}, items)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
}

func TestEnumValue_BadDefault(t *testing.T) {
	assert.Panics(t, func() { NewEnumValue("make", map[string]string{"ninja": ""}) })
}

func TestPrintResult(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	res := &examples.Result{
		Targets: []examples.Target{
			{Name: "a", Source: "/pkg/examples/a.c", LinkDeps: []string{"lanefilter"}},
			{Name: "b", Source: "/pkg/examples/b.cpp", LinkDeps: []string{"lanefilter", "m"}},
		},
		Umbrella: examples.UmbrellaTarget{Name: "examples", Deps: []string{"a", "b"}},
	}

	var buf bytes.Buffer
	printResult(&buf, res, "/pkg/examples")
	assert.Equal(t, "1. a <- a.c (links lanefilter)\n2. b <- b.cpp (links lanefilter, m)\nexamples -> [a b]\n", buf.String())
}

func TestConfigTemplate(t *testing.T) {
	env := builder.NewConfigEnv(t.TempDir())

	cfg, err := builder.ParseConfig(strings.NewReader(configTemplate("lanefilter", false)), env)
	require.NoError(t, err)
	assert.Equal(t, "lanefilter", cfg.Library.Name)
	assert.Equal(t, "examples", cfg.Examples.Dir)
	assert.Equal(t, []string{".c"}, cfg.Extensions())

	cfg, err = builder.ParseConfig(strings.NewReader(configTemplate("lanefilter", true)), env)
	require.NoError(t, err)
	assert.Equal(t, []string{".c", ".cc", ".cpp", ".cxx"}, cfg.Extensions())
}

func TestListTargets(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "examples"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "examples", "a.c"), nil, 0o644))

	b, err := builder.NewBuilderInDirectory(dir)
	require.NoError(t, err)
	b.SetLibrary("lanefilter")
	require.NoError(t, b.SetExamplesDir(filepath.Join(dir, "examples")))

	var buf bytes.Buffer
	require.NoError(t, listTargets(&buf, b))
	assert.Equal(t, "1. a <- a.c (links lanefilter)\nexamples -> [a]\n", buf.String())
}

func TestListTargets_UnresolvableSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, builder.ConfigFilename),
		[]byte("[library]\nname = \"lanefilter\"\n\n[examples]\nsource = \"https://example.com/demos.zip\"\n"), 0o644))

	b, err := builder.NewBuilderInDirectory(dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.ErrorContains(t, listTargets(&buf, b), "demos.zip")
	assert.Empty(t, buf.String())
}
