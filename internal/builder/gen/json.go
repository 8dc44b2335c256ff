package gen

import (
	"encoding/json"
	"errors"

	"github.com/qobs-build/exgen/internal/examples"
)

var errNoEngine = errors.New("the json generator only writes a manifest, it can't build targets")

// Manifest is the document written by the json generator
type Manifest struct {
	Compiler    map[string]string        `json:"compiler,omitempty"`
	Cflags      []string                 `json:"cflags,omitempty"`
	Ldflags     []string                 `json:"ldflags,omitempty"`
	LibraryPath string                   `json:"library_path,omitempty"`
	Targets     []examples.Target        `json:"targets"`
	Umbrella    *examples.UmbrellaTarget `json:"umbrella,omitempty"`
}

// JSONGen writes the registrations as a JSON manifest for tools that drive their own build
type JSONGen struct {
	common
}

func (g *JSONGen) BuildFile() string { return "examples.json" }

func (g *JSONGen) manifest() Manifest {
	m := Manifest{
		Cflags:      g.cflags,
		Ldflags:     g.ldflags,
		LibraryPath: g.libPath,
		Targets:     g.targets,
		Umbrella:    g.umbrella,
	}
	if m.Targets == nil {
		m.Targets = []examples.Target{}
	}
	if g.cc != "" || g.cxx != "" {
		m.Compiler = map[string]string{"cc": g.cc, "cxx": g.cxx}
	}
	return m
}

func (g *JSONGen) Generate() string {
	data, err := json.MarshalIndent(g.manifest(), "", "  ")
	if err != nil {
		panic(err) // only plain strings and slices in here
	}
	return string(data) + "\n"
}

func (g *JSONGen) Invoke(string, ...string) error { return errNoEngine }
