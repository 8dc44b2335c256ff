//go:build windows

package gen

import (
	"os"
	"path/filepath"

	"github.com/heaths/go-vssetup"
)

// vsInstalledMsbuild returns MSBuild.exe of the first Visual Studio instance that has one
func vsInstalledMsbuild() (string, bool) {
	instances, err := vssetup.Instances(false)
	if err != nil {
		return "", false
	}
	for i := range instances {
		root, err := instances[i].InstallationPath()
		if err != nil {
			continue
		}
		path := filepath.Join(root, "MSBuild", "Current", "Bin", "MSBuild.exe")
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}
