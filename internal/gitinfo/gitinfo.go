// Package gitinfo derives page modification times from git history, the way
// published sites usually prefer commit dates over filesystem mtimes.
package gitinfo

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Resolver answers last-modified queries against one git work tree.
type Resolver struct {
	repo *git.Repository
	root string
}

// Open locates the repository containing dir. A nil Resolver with nil error
// is returned when dir is not inside a work tree; callers treat that as
// "git info unavailable".
func Open(dir string) (*Resolver, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return nil, nil
		}
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}

	return &Resolver{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Lastmod returns the author time of the most recent commit touching the
// file. Zero when the file has no history (untracked or uncommitted).
func (r *Resolver) Lastmod(absPath string) time.Time {
	if r == nil {
		return time.Time{}
	}

	rel, err := filepath.Rel(r.root, absPath)
	if err != nil {
		return time.Time{}
	}
	rel = filepath.ToSlash(rel)

	iter, err := r.repo.Log(&git.LogOptions{
		FileName: &rel,
		Order:    git.LogOrderCommitterTime,
	})
	if err != nil {
		slog.Debug("Failed to read git log", logfields.Path(rel), logfields.Error(err))
		return time.Time{}
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil {
		return time.Time{}
	}
	return commitTime(commit)
}

func commitTime(c *object.Commit) time.Time {
	return c.Author.When.UTC()
}
