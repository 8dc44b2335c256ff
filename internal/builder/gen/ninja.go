package gen

import (
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/qobs-build/exgen/internal/examples"
)

type NinjaGen struct {
	common
}

func (g *NinjaGen) BuildFile() string { return "build.ninja" }

var ninjaPathEscaper = strings.NewReplacer("$", "$$", ":", "$:", " ", "$ ")

func quote(s string) string { return ninjaPathEscaper.Replace(s) }

func quoteAll(s []string) string {
	quoted := make([]string, len(s))
	for i, str := range s {
		quoted[i] = quote(str)
	}
	return strings.Join(quoted, " ")
}

// objectFile is where the single object of an example target goes, relative to the build dir
func objectFile(t examples.Target) string {
	return filepath.ToSlash(filepath.Join("ExgenFiles", t.Name+".dir", filepath.Base(t.Source))) + ".o"
}

// defaultPhony picks a name for the empty default target that no real target uses
func (g *NinjaGen) defaultPhony() string {
	taken := func(name string) bool {
		if g.umbrella != nil && g.umbrella.Name == name {
			return true
		}
		return slices.ContainsFunc(g.targets, func(t examples.Target) bool { return t.Name == name })
	}
	name := "all"
	for taken(name) {
		name = "exgen-" + name
	}
	return name
}

func (g *NinjaGen) Generate() string {
	var sb strings.Builder

	ldflags := slices.Clone(g.ldflags)
	if g.libPath != "" {
		ldflags = append([]string{"-L" + g.libPath}, ldflags...)
	}

	writeln(&sb, "ninja_required_version = 1.1")
	writeln(&sb, "cc = ", g.cc)
	writeln(&sb, "cxx = ", g.cxx)
	writeln(&sb, "cflags = ", strings.Join(g.cflags, " "))
	writeln(&sb, "ldflags = ", strings.Join(ldflags, " "))
	writeln(&sb)

	// gen rules
	write(&sb,
		`rule cc
  command = $cc $cflags -c $in -o $out
  description = CC $out
`)
	write(&sb,
		`rule cxx
  command = $cxx $cflags -c $in -o $out
  description = CXX $out
`)
	write(&sb,
		`rule link
  command = $ld $ldflags -o $out $in $libs
  description = LINK $out
`)
	writeln(&sb)

	// build object files
	for _, target := range g.targets {
		rule := "cc"
		if isCxx(target.Source) {
			rule = "cxx"
		}
		writeln(&sb, "build ", quote(objectFile(target)), ": ", rule, " ", quote(target.Source))
	}
	writeln(&sb)

	// link every example against its libraries
	for _, target := range g.targets {
		var libs, implicit []string
		for _, dep := range target.LinkDeps {
			if isLibraryFile(dep) {
				libs = append(libs, dep)
				implicit = append(implicit, dep)
			} else {
				libs = append(libs, "-l"+dep)
			}
		}

		write(&sb, "build ", quote(target.Name), ": link ", quote(objectFile(target)))
		if len(implicit) > 0 {
			write(&sb, " | ", quoteAll(implicit))
		}
		writeln(&sb)

		ld := "$cc"
		if isCxx(target.Source) {
			ld = "$cxx"
		}
		writeln(&sb, "  ld = ", ld)
		writeln(&sb, "  libs = ", strings.Join(libs, " "))
	}
	writeln(&sb)

	if g.umbrella != nil {
		write(&sb, "build ", quote(g.umbrella.Name), ": phony")
		if len(g.umbrella.Deps) > 0 {
			write(&sb, " ", quoteAll(g.umbrella.Deps))
		}
		writeln(&sb)
	}

	// without a default statement ninja builds every output
	if defaults := g.defaultTargets(); len(defaults) > 0 {
		writeln(&sb, "default ", quoteAll(defaults))
	} else {
		phony := g.defaultPhony()
		writeln(&sb, "build ", phony, ": phony")
		writeln(&sb, "default ", phony)
	}

	return sb.String()
}

func (g *NinjaGen) Invoke(buildDir string, targets ...string) error {
	args := append([]string{"-C", buildDir}, targets...)
	cmd := exec.Command("ninja", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
