// Package gitinfo publishes the commit the site is built from as site.git.
package gitinfo

import (
	"context"
	stderrors "errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/hook"
	"git.home.luguber.info/inful/growl/internal/logfields"
	"git.home.luguber.info/inful/growl/internal/site"
)

const (
	Name = "gitinfo"
	Key  = "git"
)

// Info describes HEAD of the repository containing the base directory.
type Info struct {
	Commit  string
	Short   string
	Branch  string
	Author  string
	Message string
}

func init() {
	site.RegisterHook(Name, Install)
}

func Install(s *site.Site, _ hook.Manifest) error {
	s.WrapPrepare(func(next site.StageFunc) site.StageFunc {
		return func(ctx context.Context) error {
			info, err := Read(s.Config().BaseDir)
			switch {
			case stderrors.Is(err, git.ErrRepositoryNotExists):
				s.Logger().Debug("Base directory is not in a git repository", logfields.Hook(Name))
			case err != nil:
				return err
			default:
				ns := s.Namespace().Namespace(Key)
				ns.Set("commit", info.Commit)
				ns.Set("short", info.Short)
				ns.Set("branch", info.Branch)
				ns.Set("author", info.Author)
				ns.Set("message", info.Message)
			}
			return next(ctx)
		}
	})
	return nil
}

// Read inspects the repository at or above dir.
func Read(dir string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Info{}, err
	}
	head, err := repo.Head()
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		// No commits yet.
		return Info{}, nil
	}
	if err != nil {
		return Info{}, errors.WrapError(err, errors.CategoryHook, "cannot resolve git HEAD").
			Fatal().WithContext("dir", dir).Build()
	}

	info := Info{Commit: head.Hash().String()}
	info.Short = info.Commit[:7]
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	if commit, err := repo.CommitObject(head.Hash()); err == nil {
		info.Author = commit.Author.Name
		info.Message = commit.Message
	}
	return info, nil
}
