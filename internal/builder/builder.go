package builder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/qobs-build/exgen/internal/builder/gen"
	"github.com/qobs-build/exgen/internal/examples"
	"github.com/qobs-build/exgen/internal/graph"
	"github.com/qobs-build/exgen/internal/msg"
)

var (
	errNoLibrary = errors.New("no shared library set, add `[library] name = \"...\"` to " + ConfigFilename + " or pass --lib")
)

const (
	GeneratorNinja  = "ninja"
	GeneratorCMake  = "cmake"
	GeneratorVS2022 = "vs2022"
	GeneratorJSON   = "json"
)

type Builder struct {
	cfg     *Config
	basedir string
	env     ConfigEnv
	lister  examples.Lister
	profile string

	// flag overrides, relative paths are resolved against the working directory
	examplesDir string
	library     string

	graph *graph.Graph
}

// NewBuilderInDirectory loads Exgen.toml from path, if there is one
func NewBuilderInDirectory(path string) (*Builder, error) {
	var err error
	path, err = filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	env := NewConfigEnv(path)
	cfg := DefaultConfig()

	cfgPath := filepath.Join(path, ConfigFilename)
	if _, err := os.Stat(cfgPath); err == nil {
		if cfg, err = ParseConfigFromFile(cfgPath, env); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	return &Builder{cfg: cfg, basedir: path, env: env, lister: examples.GlobLister{}, profile: "debug"}, nil
}

func (b *Builder) Config() *Config  { return b.cfg }
func (b *Builder) BuildDir() string { return filepath.Join(b.basedir, "build") }

// Graph returns the graph filled by the last Generate, or nil
func (b *Builder) Graph() *graph.Graph { return b.graph }

// SetExamplesDir overrides [examples] dir
func (b *Builder) SetExamplesDir(dir string) error {
	if dir == "" {
		return nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	b.examplesDir = abs
	return nil
}

// SetLibrary overrides [library] name
func (b *Builder) SetLibrary(name string) { b.library = name }

func (b *Builder) SetProfile(profile string) { b.profile = profile }

// SetLister replaces the file lister used for discovery
func (b *Builder) SetLister(l examples.Lister) { b.lister = l }

func (b *Builder) libraryName() (string, error) {
	if b.library != "" {
		return b.resolveLinkDep(b.library), nil
	}
	if b.cfg.Library.Name != "" {
		return b.resolveLinkDep(b.cfg.Library.Name), nil
	}
	return "", errNoLibrary
}

// resolveLinkDep makes a link dependency given as a relative file path absolute
// against the package directory, the build engine runs from elsewhere
func (b *Builder) resolveLinkDep(dep string) string {
	if !strings.ContainsAny(dep, `/\`) || filepath.IsAbs(dep) {
		return dep
	}
	return filepath.Join(b.basedir, dep)
}

// links returns [target] links with file paths resolved
func (b *Builder) links() []string {
	links := make([]string, 0, len(b.cfg.Target.Links))
	for _, l := range b.cfg.Target.Links {
		links = append(links, b.resolveLinkDep(l))
	}
	return links
}

// ExamplesDir resolves the directory to discover sources in. A remote
// [examples] source is fetched into build/_examples first.
func (b *Builder) ExamplesDir() (string, error) {
	if b.examplesDir != "" {
		return b.examplesDir, nil
	}

	root := b.basedir
	if src := b.cfg.Examples.Source; src != "" {
		var err error
		if isRemoteSource(src) {
			if err := os.MkdirAll(b.BuildDir(), 0755); err != nil {
				return "", err
			}
		}
		root, err = fetchSource(src, b.basedir, filepath.Join(b.BuildDir(), "_examples"))
		if err != nil {
			return "", fmt.Errorf("failed to fetch examples source %q: %w", src, err)
		}
	}

	dir := b.cfg.Examples.Dir
	if dir == "" {
		return root, nil
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir), nil
	}
	return filepath.Join(root, dir), nil
}

// Pass runs one generation pass without touching the build directory
func (b *Builder) Pass() (*examples.Result, error) {
	library, err := b.libraryName()
	if err != nil {
		return nil, err
	}

	if err := b.cfg.RunBuildScript(b.env); err != nil {
		return nil, err
	}

	dir, err := b.ExamplesDir()
	if err != nil {
		return nil, err
	}

	g := examples.NewGenerator(examples.Options{
		Library:    library,
		Links:      b.links(),
		Extensions: b.cfg.Extensions(),
		Umbrella:   b.cfg.Umbrella(),
		Lister:     b.lister,
	})
	return g.Run(dir)
}

func createGenerator(generator string) (gen.Generator, error) {
	switch generator {
	case GeneratorNinja:
		return &gen.NinjaGen{}, nil
	case GeneratorCMake:
		return &gen.CMakeGen{}, nil
	case GeneratorVS2022:
		return &gen.VS2022Gen{}, nil
	case GeneratorJSON:
		return &gen.JSONGen{}, nil
	default:
		return nil, fmt.Errorf("unknown generator %q", generator)
	}
}

func (b *Builder) makeCflags() ([]string, error) {
	prof, ok := b.cfg.Profile[b.profile]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q, known profiles: %s", b.profile, strings.Join(b.cfg.Profiles(), ", "))
	}

	cflags := prof.Cflags()
	cflags = append(cflags, b.cfg.Target.Cflags...)

	// sorted so the build file doesn't change between runs
	defines := make([]string, 0, len(b.cfg.Target.Defines))
	for define, v := range b.cfg.Target.Defines {
		if v != "" {
			defines = append(defines, "-D"+define+"="+v)
		} else {
			defines = append(defines, "-D"+define)
		}
	}
	slices.Sort(defines)
	return append(cflags, defines...), nil
}

// libraryPath returns [library] path made absolute against the package directory
func (b *Builder) libraryPath() string {
	p := b.cfg.Library.Path
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(b.basedir, p)
}

var libraryFilePatterns = []string{"lib%s.so", "lib%s.a", "lib%s.dylib", "%s.lib", "%s.dll"}

// resolvableLibraries lists the link dependencies the build engine will be able to find.
// Without a library path the linker's own search is trusted.
func (b *Builder) resolvableLibraries(library string) []string {
	var out []string
	deps := append([]string{library}, b.links()...)
	for _, dep := range deps {
		if strings.ContainsAny(dep, `/\`) {
			if _, err := os.Stat(dep); err == nil {
				out = append(out, dep)
			}
			continue
		}
		if dep != library || b.libraryPath() == "" {
			out = append(out, dep)
			continue
		}
		for _, pattern := range libraryFilePatterns {
			if _, err := os.Stat(filepath.Join(b.libraryPath(), fmt.Sprintf(pattern, dep))); err == nil {
				out = append(out, dep)
				break
			}
		}
	}
	return out
}

// Generate runs a pass, registers the result in a fresh graph and writes the
// generator's build file(s) into the build directory
func (b *Builder) Generate(generator string) (*examples.Result, gen.Generator, error) {
	g, err := createGenerator(generator)
	if err != nil {
		return nil, nil, err
	}
	cflags, err := b.makeCflags()
	if err != nil {
		return nil, nil, err
	}

	res, err := b.Pass()
	if err != nil {
		return nil, nil, err
	}

	library, _ := b.libraryName()
	gr := graph.New(b.resolvableLibraries(library)...)
	if err := gr.Apply(res); err != nil {
		return nil, nil, err
	}
	b.graph = gr

	g.SetCompiler(findCompilers(b.env))
	g.SetFlags(cflags, b.cfg.Target.Ldflags)
	g.SetLibraryPath(b.libraryPath())
	for _, t := range gr.Targets() {
		g.AddTarget(t)
	}
	if u, ok := gr.Umbrella(); ok {
		g.AddUmbrella(u)
	}

	if err := b.writeBuildFiles(g); err != nil {
		return nil, nil, err
	}

	if len(res.Targets) == 0 {
		msg.Warn("no example sources (%s) found, %q has no dependencies", strings.Join(b.cfg.Extensions(), ", "), res.Umbrella.Name)
	}
	msg.Info("generated %d example target(s) under %q in %s", len(res.Targets), res.Umbrella.Name, filepath.Join(b.BuildDir(), g.BuildFile()))
	return res, g, nil
}

func (b *Builder) writeBuildFiles(g gen.Generator) error {
	buildDir := b.BuildDir()
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return err
	}

	files := map[string]string{g.BuildFile(): g.Generate()}
	if aux, ok := g.(gen.AuxGenerator); ok {
		for name, content := range aux.AuxFiles() {
			files[name] = content
		}
	}

	for name, content := range files {
		path := filepath.Join(buildDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

// Build generates and then asks the build engine for targets, the umbrella if none are given.
// Unresolvable link dependencies are reported here.
func (b *Builder) Build(generator string, targets ...string) error {
	res, g, err := b.Generate(generator)
	if err != nil {
		return err
	}

	if len(targets) == 0 {
		targets = []string{res.Umbrella.Name}
	}

	plan, err := b.graph.Plan(targets...)
	if err != nil {
		return err
	}
	if len(plan) == 0 {
		msg.Info("nothing to build")
		return nil
	}

	msg.Info("building %s", strings.Join(plan, ", "))
	return g.Invoke(b.BuildDir(), targets...)
}
