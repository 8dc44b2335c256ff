package examples

import "errors"

// Phase is the state of a generation pass
type Phase int

const (
	Uninitialized Phase = iota
	Discovering
	Synthesizing
	Aggregating
	Ready
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Discovering:
		return "discovering"
	case Synthesizing:
		return "synthesizing"
	case Aggregating:
		return "aggregating"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

var errNoLibrary = errors.New("no shared library configured")

// Options configures a generation pass
type Options struct {
	Library    string   // shared library every example links against
	Links      []string // extra link dependencies
	Extensions []string // defaults to DefaultExtensions
	Umbrella   string   // defaults to DefaultUmbrella
	Lister     Lister   // defaults to GlobLister
}

// Result is everything one pass produced
type Result struct {
	Targets  []Target
	Umbrella UmbrellaTarget
}

// Generator runs generation passes: discovery, then synthesis, then aggregation.
// It is not safe for concurrent use.
type Generator struct {
	opts   Options
	phase  Phase
	result *Result
}

func NewGenerator(opts Options) *Generator {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Umbrella == "" {
		opts.Umbrella = DefaultUmbrella
	}
	if opts.Lister == nil {
		opts.Lister = GlobLister{}
	}
	return &Generator{opts: opts}
}

func (g *Generator) Phase() Phase { return g.phase }

// Result returns the output of the last successful pass, or nil
func (g *Generator) Result() *Result { return g.result }

// Run performs a full pass over dir. Every call starts from scratch; on failure
// no result is kept.
func (g *Generator) Run(dir string) (*Result, error) {
	g.phase, g.result = Uninitialized, nil

	res, err := g.run(dir)
	if err != nil {
		g.phase = Uninitialized
		return nil, err
	}

	g.phase, g.result = Ready, res
	return res, nil
}

func (g *Generator) run(dir string) (*Result, error) {
	if g.opts.Library == "" {
		return nil, errNoLibrary
	}

	g.phase = Discovering
	sources, err := Discover(g.opts.Lister, dir, g.opts.Extensions)
	if err != nil {
		return nil, err
	}

	g.phase = Synthesizing
	targets, err := Synthesize(sources, g.opts.Library, g.opts.Links, g.opts.Umbrella)
	if err != nil {
		return nil, err
	}

	g.phase = Aggregating
	return &Result{Targets: targets, Umbrella: Aggregate(g.opts.Umbrella, targets)}, nil
}
