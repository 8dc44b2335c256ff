package examples

import (
	"errors"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExtensions is the compiled-source filter used when none is configured
var DefaultExtensions = []string{".c", ".cc", ".cpp", ".cxx"}

var errNotADirectory = errors.New("not a directory")

// SourceFile is one discovered example source
type SourceFile struct {
	Path string // dir joined with the file name
	Name string // base name without extension
	Ext  string
}

func newSourceFile(path string) SourceFile {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return SourceFile{Path: path, Name: strings.TrimSuffix(base, ext), Ext: ext}
}

// Lister lists the files directly inside dir that match one of exts.
// Returned paths are relative to dir.
type Lister interface {
	List(dir string, exts []string) ([]string, error)
}

// GlobLister lists files with a non-recursive doublestar glob
type GlobLister struct{}

func (GlobLister) List(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		return nil, nil
	}
	return doublestar.Glob(os.DirFS(dir), globPattern(exts), doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
}

// globPattern builds `*.c` or `*{.c,.cpp}`
func globPattern(exts []string) string {
	if len(exts) == 1 {
		return "*" + exts[0]
	}
	return "*{" + strings.Join(exts, ",") + "}"
}

// Sources is the ordered result of a discovery
type Sources struct {
	Dir   string
	files []SourceFile
}

// All yields the discovered files in deterministic order. It can be ranged over
// any number of times.
func (s Sources) All() iter.Seq[SourceFile] {
	return func(yield func(SourceFile) bool) {
		for _, f := range s.files {
			if !yield(f) {
				return
			}
		}
	}
}

func (s Sources) Len() int { return len(s.files) }

// Discover enumerates the example sources in dir (non-recursive) whose extension is in exts
func Discover(lister Lister, dir string, exts []string) (Sources, error) {
	stat, err := os.Stat(dir)
	if err != nil {
		return Sources{}, &DirectoryNotFoundError{Path: dir, Err: err}
	}
	if !stat.IsDir() {
		return Sources{}, &DirectoryNotFoundError{Path: dir, Err: errNotADirectory}
	}

	names, err := lister.List(dir, exts)
	if err != nil {
		return Sources{}, &DirectoryNotFoundError{Path: dir, Err: err}
	}

	files := make([]SourceFile, 0, len(names))
	for _, name := range names {
		// listers return names relative to dir, anything nested is skipped
		if strings.ContainsAny(name, `/\`) {
			continue
		}
		if !slices.Contains(exts, filepath.Ext(name)) {
			continue
		}
		f := newSourceFile(filepath.Join(dir, name))
		if f.Name == "" {
			continue // ".c" has no stem to name a target after
		}
		files = append(files, f)
	}

	// the filesystem gives no ordering guarantee
	slices.SortFunc(files, func(a, b SourceFile) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})

	return Sources{Dir: dir, files: files}, nil
}
