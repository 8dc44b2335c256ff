package builder

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/qobs-build/exgen/internal/builder/gen"
	"github.com/qobs-build/exgen/internal/examples"
	"github.com/qobs-build/exgen/internal/graph"
	"github.com/qobs-build/exgen/internal/msg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files (slash separated paths) under dir
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func quiet(t *testing.T) {
	t.Helper()
	orig := msg.Output
	msg.Output = io.Discard
	t.Cleanup(func() { msg.Output = orig })
}

const demoConfig = `
[library]
name = "lanefilter"

[examples]
dir = "examples"

[target]
links = ["m"]
defines = { DEMO = "1" }
`

func newDemoBuilder(t *testing.T, files map[string]string) *Builder {
	t.Helper()
	quiet(t)
	stubLookPath(t, "gcc", "g++")

	dir := t.TempDir()
	writeTree(t, dir, files)
	b, err := NewBuilderInDirectory(dir)
	require.NoError(t, err)
	return b
}

func TestNewBuilderInDirectory_WithoutConfig(t *testing.T) {
	quiet(t)
	dir := t.TempDir()

	b, err := NewBuilderInDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, "examples", b.Config().Umbrella())

	examplesDir, err := b.ExamplesDir()
	require.NoError(t, err)
	assert.Equal(t, dir, examplesDir)
}

func TestNewBuilderInDirectory_BadConfig(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{ConfigFilename: "[examples\n"})

	_, err := NewBuilderInDirectory(dir)
	assert.ErrorContains(t, err, ConfigFilename)
}

func TestBuilder_GenerateJSON(t *testing.T) {
	b := newDemoBuilder(t, map[string]string{
		ConfigFilename:       demoConfig,
		"examples/b.cpp":     "int main() {}\n",
		"examples/a.c":       "int main(void) { return 0; }\n",
		"examples/README.md": "not a source\n",
	})

	res, g, err := b.Generate(GeneratorJSON)
	require.NoError(t, err)
	assert.Equal(t, "examples.json", g.BuildFile())

	require.Len(t, res.Targets, 2)
	assert.Equal(t, []string{"a", "b"}, res.Umbrella.Deps)

	data, err := os.ReadFile(filepath.Join(b.BuildDir(), "examples.json"))
	require.NoError(t, err)

	var m gen.Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, res.Targets, m.Targets)
	assert.Equal(t, []string{"-DDEMO=1"}, m.Cflags)
	for _, target := range m.Targets {
		assert.Equal(t, []string{"lanefilter", "m"}, target.LinkDeps)
		assert.True(t, target.ExcludeFromAll)
	}

	assert.Equal(t, []string{"a", "b"}, namesOf(b.Graph().Targets()))
	assert.Empty(t, b.Graph().Default())
}

func TestBuilder_GenerateNinjaWithProfile(t *testing.T) {
	b := newDemoBuilder(t, map[string]string{
		ConfigFilename:   demoConfig,
		"examples/a.c":   "int main(void) { return 0; }\n",
		"examples/b.cxx": "int main() {}\n",
	})
	b.SetProfile("release")

	_, _, err := b.Generate(GeneratorNinja)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(b.BuildDir(), "build.ninja"))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "cflags = -O3 -DDEMO=1\n")
	assert.Contains(t, out, "build examples: phony a b\n")
	assert.Contains(t, out, "default all\n")
}

func TestBuilder_GenerateVS2022WritesProjects(t *testing.T) {
	b := newDemoBuilder(t, map[string]string{
		ConfigFilename: demoConfig,
		"examples/a.c": "int main(void) { return 0; }\n",
	})

	_, _, err := b.Generate(GeneratorVS2022)
	require.NoError(t, err)

	for _, name := range []string{"examples.sln", "a/a.vcxproj", "a/a.vcxproj.filters", "examples/examples.vcxproj"} {
		assert.FileExists(t, filepath.Join(b.BuildDir(), filepath.FromSlash(name)))
	}
}

func TestBuilder_Overrides(t *testing.T) {
	b := newDemoBuilder(t, map[string]string{
		"demos/one.c": "int main(void) { return 0; }\n",
	})
	b.SetLibrary("other")
	require.NoError(t, b.SetExamplesDir(filepath.Join(b.basedir, "demos")))

	res, err := b.Pass()
	require.NoError(t, err)
	require.Len(t, res.Targets, 1)
	assert.Equal(t, "one", res.Targets[0].Name)
	assert.Equal(t, []string{"other"}, res.Targets[0].LinkDeps)
	assert.NoDirExists(t, b.BuildDir(), "a pass alone writes nothing")
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("no library", func(t *testing.T) {
		b := newDemoBuilder(t, map[string]string{"examples/a.c": ""})
		_, _, err := b.Generate(GeneratorNinja)
		assert.ErrorIs(t, err, errNoLibrary)
	})

	t.Run("missing directory", func(t *testing.T) {
		b := newDemoBuilder(t, map[string]string{ConfigFilename: demoConfig})
		_, _, err := b.Generate(GeneratorNinja)
		assert.ErrorIs(t, err, examples.ErrDirectoryNotFound)
		assert.NoDirExists(t, b.BuildDir())
	})

	t.Run("duplicate name", func(t *testing.T) {
		b := newDemoBuilder(t, map[string]string{
			ConfigFilename:   demoConfig,
			"examples/x.c":   "",
			"examples/x.cpp": "",
		})
		_, _, err := b.Generate(GeneratorNinja)

		var dup *examples.DuplicateTargetNameError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "x", dup.Name)
		assert.NoDirExists(t, b.BuildDir())
	})

	t.Run("unknown generator", func(t *testing.T) {
		b := newDemoBuilder(t, map[string]string{ConfigFilename: demoConfig})
		_, _, err := b.Generate("make")
		assert.Error(t, err)
	})

	t.Run("unknown profile", func(t *testing.T) {
		b := newDemoBuilder(t, map[string]string{ConfigFilename: demoConfig, "examples/a.c": ""})
		b.SetProfile("turbo")
		_, _, err := b.Generate(GeneratorNinja)
		assert.ErrorContains(t, err, "turbo")
	})

	t.Run("build script", func(t *testing.T) {
		b := newDemoBuilder(t, map[string]string{
			ConfigFilename: demoConfig,
			"examples/a.c": "",
		})
		b.cfg.Examples.Build = `Exists("examples/missing.c")`
		_, err := b.Pass()
		assert.ErrorContains(t, err, "build script returned false")
	})
}

func TestBuilder_BuildEmptyUmbrella(t *testing.T) {
	b := newDemoBuilder(t, map[string]string{
		ConfigFilename:        demoConfig,
		"examples/.keep":      "",
		"examples/notes.txt":  "",
		"examples/sub/deep.c": "",
	})

	// nothing to build, so the engine is never invoked
	require.NoError(t, b.Build(GeneratorNinja))

	u, ok := b.Graph().Umbrella()
	require.True(t, ok)
	assert.Equal(t, "examples", u.Name)
	assert.Empty(t, u.Deps)
	assert.FileExists(t, filepath.Join(b.BuildDir(), "build.ninja"))
}

func TestBuilder_BuildUnresolvedLibrary(t *testing.T) {
	b := newDemoBuilder(t, map[string]string{
		ConfigFilename: demoConfig + "\n[library.'true']\npath = \"lib\"\n",
		"examples/a.c": "",
	})

	err := b.Build(GeneratorNinja)

	var unresolved *graph.UnresolvedLinkDependencyError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "a", unresolved.Target)
	assert.Equal(t, "lanefilter", unresolved.Library)
	assert.ErrorIs(t, err, graph.ErrUnresolvedLinkDependency)
}

func TestBuilder_BuildResolvedLibraryReachesEngine(t *testing.T) {
	b := newDemoBuilder(t, map[string]string{
		ConfigFilename:       demoConfig + "\n[library.'true']\npath = \"lib\"\n",
		"lib/liblanefilter.a": "",
		"examples/a.c":        "",
	})

	// the JSON generator has no engine to hand the plan to
	err := b.Build(GeneratorJSON)
	require.Error(t, err)
	assert.NotErrorIs(t, err, graph.ErrUnresolvedLinkDependency)
}

func TestBuilder_BuildUnknownTarget(t *testing.T) {
	b := newDemoBuilder(t, map[string]string{
		ConfigFilename: demoConfig,
		"examples/a.c": "",
	})

	err := b.Build(GeneratorNinja, "nope")
	assert.ErrorIs(t, err, graph.ErrUnknownTarget)
}

func namesOf(targets []examples.Target) []string {
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, t.Name)
	}
	return names
}

func TestBuilder_RelativeLibraryFileResolvesAgainstPackage(t *testing.T) {
	b := newDemoBuilder(t, map[string]string{
		ConfigFilename:        "[library]\nname = \"lib/liblanefilter.a\"\n\n[target]\nlinks = [\"m\", \"vendor/libextra.a\"]\n",
		"lib/liblanefilter.a": "",
		"vendor/libextra.a":   "",
		"examples/a.c":        "",
	})
	library := filepath.Join(b.basedir, "lib", "liblanefilter.a")
	extra := filepath.Join(b.basedir, "vendor", "libextra.a")

	res, _, err := b.Generate(GeneratorNinja)
	require.NoError(t, err)
	require.Len(t, res.Targets, 1)
	assert.Equal(t, []string{library, "m", extra}, res.Targets[0].LinkDeps)

	data, err := os.ReadFile(filepath.Join(b.BuildDir(), "build.ninja"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "libs = "+library+" -lm "+extra+"\n")

	plan, err := b.Graph().Plan("examples")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, plan)
}

func TestBuilder_MissingLibraryFileIsUnresolved(t *testing.T) {
	b := newDemoBuilder(t, map[string]string{
		ConfigFilename: "[library]\nname = \"lib/liblanefilter.a\"\n",
		"examples/a.c": "",
	})

	_, _, err := b.Generate(GeneratorNinja)
	require.NoError(t, err)

	_, err = b.Graph().Plan("examples")
	assert.ErrorIs(t, err, graph.ErrUnresolvedLinkDependency)
}

func TestBuilder_GenerateCMakeWritesProject(t *testing.T) {
	b := newDemoBuilder(t, map[string]string{
		ConfigFilename: demoConfig,
		"examples/a.c": "",
	})

	_, _, err := b.Generate(GeneratorCMake)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(b.BuildDir(), "examples.cmake"))
	assert.FileExists(t, filepath.Join(b.BuildDir(), "CMakeLists.txt"))
}
