package gen

import (
	"path/filepath"
	"slices"
	"strings"
)

func write(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
}
func writeln(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
	sb.WriteByte('\n')
}

var cxxExtensions = []string{".cc", ".cpp", ".cxx", ".c++"}

func isCxx(path string) bool {
	return slices.Contains(cxxExtensions, strings.ToLower(filepath.Ext(path)))
}

var libraryExtensions = []string{".a", ".so", ".lib", ".dylib", ".dll"}

// isLibraryFile reports whether a link dependency names a file rather than a
// library to be found by the linker (`-lname`)
func isLibraryFile(dep string) bool {
	return strings.ContainsAny(dep, `/\`) || slices.Contains(libraryExtensions, filepath.Ext(dep))
}
