package gen

import "github.com/qobs-build/exgen/internal/examples"

// Generator renders registered targets into a build file for an external build engine
type Generator interface {
	SetCompiler(cc, cxx string)
	SetFlags(cflags, ldflags []string)
	SetLibraryPath(dir string)
	AddTarget(t examples.Target)
	AddUmbrella(u examples.UmbrellaTarget)
	Generate() string
	BuildFile() string
	// Invoke asks the engine to build targets in buildDir. No targets means the
	// engine's default build.
	Invoke(buildDir string, targets ...string) error
}

// AuxGenerator is implemented by generators that emit more files next to BuildFile.
// Keys are paths relative to the build directory.
type AuxGenerator interface {
	AuxFiles() map[string]string
}

// common holds the state every generator collects before Generate
type common struct {
	cc, cxx         string
	cflags, ldflags []string
	libPath         string
	targets         []examples.Target
	umbrella        *examples.UmbrellaTarget
}

func (c *common) SetCompiler(cc, cxx string)            { c.cc, c.cxx = cc, cxx }
func (c *common) SetFlags(cflags, ldflags []string)     { c.cflags, c.ldflags = cflags, ldflags }
func (c *common) SetLibraryPath(dir string)             { c.libPath = dir }
func (c *common) AddTarget(t examples.Target)           { c.targets = append(c.targets, t) }
func (c *common) AddUmbrella(u examples.UmbrellaTarget) { c.umbrella = &u }

// defaultTargets returns targets that are part of the default build
func (c *common) defaultTargets() []string {
	var out []string
	for _, t := range c.targets {
		if !t.ExcludeFromAll {
			out = append(out, t.Name)
		}
	}
	return out
}
