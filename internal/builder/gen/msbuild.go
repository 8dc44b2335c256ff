package gen

import "os/exec"

// swapped out in tests
var (
	lookPath         = exec.LookPath
	installedMsbuild = vsInstalledMsbuild
)

// findMsbuild prefers msbuild from PATH (a Developer Command Prompt), then asks
// the Visual Studio setup configuration for an installed one
func findMsbuild() (string, error) {
	if path, err := lookPath("msbuild"); err == nil {
		return path, nil
	}
	if path, ok := installedMsbuild(); ok {
		return path, nil
	}
	return "", errNoMsbuild
}
