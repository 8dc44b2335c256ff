package builder

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/qobs-build/exgen/internal/msg"
)

var sourceShortcuts = map[string]string{
	"gh:": "https://github.com/",
	"gl:": "https://gitlab.com/",
	"bb:": "https://bitbucket.org/",
	"sr:": "https://sr.ht/",
	"cb:": "https://codeberg.org/",
}

const gitPrefix = "git:"

var (
	errIllegalSource       = errors.New("empty or illegal examples source")
	errArchiveNotSupported = errors.New("archive sources are not supported, use a git repository")
)

// isRemoteSource reports whether src has to be fetched before discovery
func isRemoteSource(src string) bool {
	if strings.HasPrefix(src, gitPrefix) || isURL(src) {
		return true
	}
	for shortcut := range sourceShortcuts {
		if strings.HasPrefix(src, shortcut) {
			return true
		}
	}
	return false
}

// fetchSource makes the examples source available locally and returns its directory.
// Local paths are returned as they are (relative ones joined onto basedir).
func fetchSource(src, basedir, toWhere string) (string, error) {
	if src == "" {
		return "", errIllegalSource
	}

	// git:https://github.com/someone/examples.git
	if after, ok := strings.CutPrefix(src, gitPrefix); ok {
		return cloneGitRepo(after, toWhere)
	}

	// gh:someone/examples
	for shortcut, url := range sourceShortcuts {
		if after, ok := strings.CutPrefix(src, shortcut); ok {
			return cloneGitRepo(url+after, toWhere)
		}
	}

	if isURL(src) {
		return "", fmt.Errorf("%w: %s", errArchiveNotSupported, src)
	}

	// otherwise it's a path
	if !filepath.IsAbs(src) {
		src = filepath.Join(basedir, src)
	}
	return src, nil
}

func isURL(maybeURL string) bool {
	u, err := url.Parse(maybeURL)
	return err == nil && u.Scheme != "" && u.Host != ""
}

type gitURL struct {
	cleanURL    string
	branch      string
	commitOrTag string
}

// someone/something@master#0.1.0
// someone/something@feature-branch#12345abc
// someone/something#12345abc
func parseGitURL(rawURL string) (res gitURL) {
	parts := strings.SplitN(rawURL, "#", 2)
	baseURL := parts[0]
	if len(parts) == 2 {
		res.commitOrTag = parts[1]
	}

	parts = strings.SplitN(baseURL, "@", 2)
	res.cleanURL = parts[0]
	if len(parts) == 2 {
		res.branch = parts[1]
	}

	if !strings.HasSuffix(res.cleanURL, ".git") {
		res.cleanURL += ".git"
	}

	return
}

// cloneGitRepo clones a Git remote into the specified directory, unless it was cloned before
func cloneGitRepo(url, toWhere string) (string, error) {
	if _, err := os.Stat(filepath.Join(toWhere, ".git")); err == nil {
		return toWhere, nil
	}

	parsedURL := parseGitURL(url)
	msg.Info("fetching examples from %s", parsedURL.cleanURL)

	cloneOptions := &git.CloneOptions{
		URL:               parsedURL.cleanURL,
		Progress:          &msg.IndentWriter{Indent: "    ", W: msg.Output},
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	}

	if parsedURL.commitOrTag == "" {
		cloneOptions.Depth = 1 // we can do a shallow clone of the latest commit
	}

	if parsedURL.branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(parsedURL.branch)
		cloneOptions.SingleBranch = true
	}

	repo, err := git.PlainClone(toWhere, cloneOptions)
	if err != nil {
		return toWhere, err
	}

	if parsedURL.commitOrTag != "" {
		w, err := repo.Worktree()
		if err != nil {
			return toWhere, fmt.Errorf("could not get worktree: %w", err)
		}

		revision := parsedURL.commitOrTag
		hash, err := repo.ResolveRevision(plumbing.Revision(revision))
		if err != nil {
			return toWhere, fmt.Errorf("could not resolve revision `%s`: %w", revision, err)
		}

		err = w.Checkout(&git.CheckoutOptions{
			Hash:  *hash,
			Force: true,
		})
		if err != nil {
			return toWhere, fmt.Errorf("failed to checkout `%s`: %w", revision, err)
		}
	}

	return toWhere, nil
}
