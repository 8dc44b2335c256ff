// Package graph models the build engine's target graph that generated examples are registered into
package graph

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/qobs-build/exgen/internal/examples"
)

var (
	ErrUnknownTarget             = errors.New("unknown target")
	ErrUnresolvedLinkDependency  = errors.New("unresolved link dependency")
	errUmbrellaReferencesUnknown = errors.New("umbrella target references an unknown target")
)

// UnresolvedLinkDependencyError is reported when a target links against a
// library the graph doesn't know about
type UnresolvedLinkDependencyError struct {
	Target  string
	Library string
}

func (e *UnresolvedLinkDependencyError) Error() string {
	return fmt.Sprintf("%v: target %q links against %q", ErrUnresolvedLinkDependency, e.Target, e.Library)
}

func (e *UnresolvedLinkDependencyError) Is(target error) bool {
	return target == ErrUnresolvedLinkDependency
}

// Graph holds the generated nodes. Each Apply replaces the previous set.
type Graph struct {
	mu        sync.Mutex
	libraries map[string]struct{}
	targets   map[string]examples.Target
	order     []string
	umbrella  *examples.UmbrellaTarget
}

// New creates an empty graph that resolves the given (externally built) libraries
func New(libraries ...string) *Graph {
	g := &Graph{
		libraries: make(map[string]struct{}),
		targets:   make(map[string]examples.Target),
	}
	for _, lib := range libraries {
		g.libraries[lib] = struct{}{}
	}
	return g
}

// DeclareLibrary makes lib resolvable as a link dependency
func (g *Graph) DeclareLibrary(lib string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.libraries[lib] = struct{}{}
}

// Apply replaces every generated node with the contents of res. The graph is
// left untouched if res is inconsistent.
func (g *Graph) Apply(res *examples.Result) error {
	targets := make(map[string]examples.Target, len(res.Targets))
	order := make([]string, 0, len(res.Targets))
	for _, t := range res.Targets {
		if _, ok := targets[t.Name]; ok {
			return &examples.DuplicateTargetNameError{Name: t.Name, First: targets[t.Name].Source, Second: t.Source}
		}
		targets[t.Name] = t
		order = append(order, t.Name)
	}
	for _, dep := range res.Umbrella.Deps {
		if _, ok := targets[dep]; !ok {
			return fmt.Errorf("%w: %q", errUmbrellaReferencesUnknown, dep)
		}
	}

	umbrella := examples.UmbrellaTarget{Name: res.Umbrella.Name, Deps: slices.Clone(res.Umbrella.Deps)}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.targets, g.order, g.umbrella = targets, order, &umbrella
	return nil
}

// Targets returns the registered targets in registration order
func (g *Graph) Targets() []examples.Target {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]examples.Target, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.targets[name])
	}
	return out
}

// Umbrella returns the registered umbrella target, if any
func (g *Graph) Umbrella() (examples.UmbrellaTarget, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.umbrella == nil {
		return examples.UmbrellaTarget{}, false
	}
	return *g.umbrella, true
}

// Default returns the targets a plain "build everything" would build
func (g *Graph) Default() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, name := range g.order {
		if !g.targets[name].ExcludeFromAll {
			out = append(out, name)
		}
	}
	return out
}

// Plan expands a build request into the sorted set of targets that would be
// built. With no names, the default set is planned. Link dependencies are
// resolved here, not at registration time.
func (g *Graph) Plan(names ...string) ([]string, error) {
	if len(names) == 0 {
		names = g.Default()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	set := make(map[string]struct{})
	for _, name := range names {
		if g.umbrella != nil && name == g.umbrella.Name {
			for _, dep := range g.umbrella.Deps {
				set[dep] = struct{}{}
			}
			continue
		}
		if _, ok := g.targets[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
		}
		set[name] = struct{}{}
	}

	plan := make([]string, 0, len(set))
	for name := range set {
		plan = append(plan, name)
	}
	slices.Sort(plan)

	for _, name := range plan {
		for _, lib := range g.targets[name].LinkDeps {
			if _, ok := g.libraries[lib]; !ok {
				return nil, &UnresolvedLinkDependencyError{Target: name, Library: lib}
			}
		}
	}
	return plan, nil
}
