//go:build !windows

package gen

// the setup configuration API is COM, only available on Windows
func vsInstalledMsbuild() (string, bool) { return "", false }
