package examples

import (
	"slices"
)

// DefaultUmbrella is the name of the aggregation target
const DefaultUmbrella = "examples"

// Target is a buildable unit compiled from exactly one source file
type Target struct {
	Name           string   `json:"name"`
	Source         string   `json:"source"`
	LinkDeps       []string `json:"link_deps"`
	ExcludeFromAll bool     `json:"exclude_from_all"`
}

// UmbrellaTarget has no source or artifact, building it builds Deps
type UmbrellaTarget struct {
	Name string   `json:"name"`
	Deps []string `json:"deps"`
}

// Synthesize derives one target per source. Every target links against library
// (followed by extraLinks) and is excluded from the default build. A name that
// is derived twice, or that equals the umbrella name, fails the whole call.
func Synthesize(sources Sources, library string, extraLinks []string, umbrella string) ([]Target, error) {
	linkDeps := make([]string, 0, 1+len(extraLinks))
	linkDeps = append(linkDeps, library)
	for _, l := range extraLinks {
		if !slices.Contains(linkDeps, l) {
			linkDeps = append(linkDeps, l)
		}
	}

	seen := make(map[string]string, sources.Len()) // name -> source path
	targets := make([]Target, 0, sources.Len())
	for src := range sources.All() {
		if src.Name == umbrella {
			return nil, &DuplicateTargetNameError{Name: src.Name, First: "<umbrella target>", Second: src.Path}
		}
		if first, ok := seen[src.Name]; ok {
			return nil, &DuplicateTargetNameError{Name: src.Name, First: first, Second: src.Path}
		}
		seen[src.Name] = src.Path

		targets = append(targets, Target{
			Name:           src.Name,
			Source:         src.Path,
			LinkDeps:       slices.Clone(linkDeps),
			ExcludeFromAll: true,
		})
	}
	return targets, nil
}

// Aggregate creates the umbrella target over targets, keeping their order
func Aggregate(name string, targets []Target) UmbrellaTarget {
	deps := make([]string, 0, len(targets))
	for _, t := range targets {
		deps = append(deps, t.Name)
	}
	return UmbrellaTarget{Name: name, Deps: deps}
}
