package builder

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGitURL(t *testing.T) {
	tests := []struct {
		in   string
		want gitURL
	}{
		{"https://github.com/someone/demos", gitURL{cleanURL: "https://github.com/someone/demos.git"}},
		{"https://github.com/someone/demos.git@main", gitURL{cleanURL: "https://github.com/someone/demos.git", branch: "main"}},
		{"https://github.com/someone/demos@dev#v1.0.0", gitURL{cleanURL: "https://github.com/someone/demos.git", branch: "dev", commitOrTag: "v1.0.0"}},
		{"https://github.com/someone/demos#12345abc", gitURL{cleanURL: "https://github.com/someone/demos.git", commitOrTag: "12345abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseGitURL(tt.in))
		})
	}
}

func TestIsRemoteSource(t *testing.T) {
	assert.True(t, isRemoteSource("gh:someone/demos"))
	assert.True(t, isRemoteSource("git:https://example.com/demos.git"))
	assert.True(t, isRemoteSource("https://example.com/demos.tar.gz"))
	assert.False(t, isRemoteSource("demos"))
	assert.False(t, isRemoteSource("/abs/demos"))
}

func TestFetchSource_Local(t *testing.T) {
	base := t.TempDir()

	dir, err := fetchSource("demos", base, filepath.Join(base, "build", "_examples"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "demos"), dir)

	abs := filepath.Join(t.TempDir(), "elsewhere")
	dir, err = fetchSource(abs, base, filepath.Join(base, "build", "_examples"))
	require.NoError(t, err)
	assert.Equal(t, abs, dir)
}

func TestFetchSource_Errors(t *testing.T) {
	base := t.TempDir()

	_, err := fetchSource("", base, base)
	assert.ErrorIs(t, err, errIllegalSource)

	_, err = fetchSource("https://example.com/demos.zip", base, base)
	assert.ErrorIs(t, err, errArchiveNotSupported)
}

func TestCloneGitRepo_SkipsExistingClone(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{".git/HEAD": "ref: refs/heads/main\n"})

	got, err := cloneGitRepo("https://invalid.invalid/nobody/nothing", dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}
