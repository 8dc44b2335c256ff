package gen

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolutionTargets(t *testing.T) {
	assert.Equal(t, "/t:examples", solutionTargets([]string{"examples"}))
	assert.Equal(t, "/t:hello_world;a_b_;x_y_z", solutionTargets([]string{"hello.world", "a(b)", "x$y@z"}))
}

func stubMsbuild(t *testing.T, onPath bool, installed string) {
	t.Helper()
	origLookPath, origInstalled := lookPath, installedMsbuild
	t.Cleanup(func() { lookPath, installedMsbuild = origLookPath, origInstalled })

	lookPath = func(file string) (string, error) {
		if onPath {
			return `C:\BuildTools\` + file + ".exe", nil
		}
		return "", exec.ErrNotFound
	}
	installedMsbuild = func() (string, bool) { return installed, installed != "" }
}

func TestFindMsbuild(t *testing.T) {
	t.Run("path first", func(t *testing.T) {
		stubMsbuild(t, true, `C:\VS\MSBuild\Current\Bin\MSBuild.exe`)
		path, err := findMsbuild()
		require.NoError(t, err)
		assert.Equal(t, `C:\BuildTools\msbuild.exe`, path)
	})

	t.Run("visual studio instance", func(t *testing.T) {
		stubMsbuild(t, false, `C:\VS\MSBuild\Current\Bin\MSBuild.exe`)
		path, err := findMsbuild()
		require.NoError(t, err)
		assert.Equal(t, `C:\VS\MSBuild\Current\Bin\MSBuild.exe`, path)
	})

	t.Run("none", func(t *testing.T) {
		stubMsbuild(t, false, "")
		_, err := findMsbuild()
		assert.ErrorIs(t, err, errNoMsbuild)
	})
}
