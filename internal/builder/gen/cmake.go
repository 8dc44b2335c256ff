package gen

import (
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/qobs-build/exgen/internal/examples"
)

// CMakeGen writes a fragment to be include()d from an existing CMakeLists.txt,
// plus a CMakeLists.txt wrapping it so the build dir can be configured on its own
type CMakeGen struct {
	common
}

func (g *CMakeGen) BuildFile() string { return "examples.cmake" }

// cmakeBinaryDir is where Invoke configures the generated project, relative to the build dir
const cmakeBinaryDir = "cmake"

// names CMake reserves for its own targets (CMP0037)
var cmakeReservedTargets = []string{
	"all", "clean", "depend", "edit_cache", "help", "install", "list_install_components",
	"package", "package_source", "preinstall", "rebuild_cache", "test",
	"ALL_BUILD", "INSTALL", "PACKAGE", "RUN_TESTS", "ZERO_CHECK",
}

// cmakeTarget maps a target name onto one CMake accepts. The executable keeps
// its name through OUTPUT_NAME.
func cmakeTarget(name string) string {
	if slices.Contains(cmakeReservedTargets, name) {
		return "exgen-" + name
	}
	return name
}

func cmakeTargets(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = cmakeTarget(name)
	}
	return out
}

// AuxFiles returns a CMakeLists.txt that makes the build dir a standalone project
// around the fragment
func (g *CMakeGen) AuxFiles() map[string]string {
	languages := "C"
	if slices.ContainsFunc(g.targets, func(t examples.Target) bool { return isCxx(t.Source) }) {
		languages = "C CXX"
	}

	var sb strings.Builder
	writeln(&sb, "# Generated by exgen. Do not edit.")
	writeln(&sb, "cmake_minimum_required(VERSION 3.13)")
	writeln(&sb, "project(exgen_examples LANGUAGES ", languages, ")")
	writeln(&sb, "include(\"${CMAKE_CURRENT_LIST_DIR}/", g.BuildFile(), "\")")
	return map[string]string{"CMakeLists.txt": sb.String()}
}

var cmakeEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`)

func cmakeQuote(s string) string { return `"` + cmakeEscaper.Replace(filepath.ToSlash(s)) + `"` }

func cmakeQuoteAll(s []string) string {
	quoted := make([]string, len(s))
	for i, str := range s {
		quoted[i] = cmakeQuote(str)
	}
	return strings.Join(quoted, " ")
}

func (g *CMakeGen) Generate() string {
	var sb strings.Builder

	writeln(&sb, "# Generated by exgen. Do not edit.")
	writeln(&sb, "cmake_minimum_required(VERSION 3.13)")
	writeln(&sb)

	if g.umbrella != nil {
		// no ALL: the umbrella is only built when requested
		writeln(&sb, "add_custom_target(", cmakeTarget(g.umbrella.Name), ")")
		writeln(&sb)
	}

	for _, target := range g.targets {
		name := cmakeTarget(target.Name)
		write(&sb, "add_executable(", name)
		if target.ExcludeFromAll {
			write(&sb, " EXCLUDE_FROM_ALL")
		}
		writeln(&sb, " ", cmakeQuote(target.Source), ")")
		if name != target.Name {
			writeln(&sb, "set_target_properties(", name, " PROPERTIES OUTPUT_NAME ", cmakeQuote(target.Name), ")")
		}

		if len(g.cflags) > 0 {
			writeln(&sb, "target_compile_options(", name, " PRIVATE ", cmakeQuoteAll(g.cflags), ")")
		}
		if g.libPath != "" {
			writeln(&sb, "target_link_directories(", name, " PRIVATE ", cmakeQuote(g.libPath), ")")
		}
		if len(g.ldflags) > 0 {
			writeln(&sb, "target_link_options(", name, " PRIVATE ", cmakeQuoteAll(g.ldflags), ")")
		}
		writeln(&sb, "target_link_libraries(", name, " PRIVATE ", cmakeQuoteAll(target.LinkDeps), ")")
		writeln(&sb)
	}

	if g.umbrella != nil && len(g.umbrella.Deps) > 0 {
		writeln(&sb, "add_dependencies(", cmakeTarget(g.umbrella.Name), " ", strings.Join(cmakeTargets(g.umbrella.Deps), " "), ")")
	}

	return sb.String()
}

// configureArgs configures the project written next to the fragment
func (g *CMakeGen) configureArgs(buildDir string) []string {
	args := []string{"-S", buildDir, "-B", filepath.Join(buildDir, cmakeBinaryDir)}
	if g.cc != "" {
		args = append(args, "-DCMAKE_C_COMPILER="+g.cc)
	}
	if g.cxx != "" {
		args = append(args, "-DCMAKE_CXX_COMPILER="+g.cxx)
	}
	return args
}

func (g *CMakeGen) buildArgs(buildDir string, targets []string) []string {
	args := []string{"--build", filepath.Join(buildDir, cmakeBinaryDir)}
	if len(targets) > 0 {
		args = append(args, "--target")
		args = append(args, cmakeTargets(targets)...)
	}
	return args
}

func runCMake(args []string) error {
	cmd := exec.Command("cmake", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (g *CMakeGen) Invoke(buildDir string, targets ...string) error {
	if err := runCMake(g.configureArgs(buildDir)); err != nil {
		return err
	}
	return runCMake(g.buildArgs(buildDir, targets))
}
