// Package postindex writes a SQLite index of the published posts into the
// deploy directory after every run, for search pages and external tooling.
package postindex

import (
	"context"
	"path/filepath"

	"git.home.luguber.info/inful/growl/internal/content"
	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/hook"
	"git.home.luguber.info/inful/growl/internal/logfields"
	"git.home.luguber.info/inful/growl/internal/site"
)

const (
	Name        = "postindex"
	DefaultFile = "posts.db"
)

func init() {
	site.RegisterHook(Name, Install)
}

func Install(s *site.Site, m hook.Manifest) error {
	file := m.String("file", DefaultFile)
	s.WrapRun(func(next site.StageFunc) site.StageFunc {
		return func(ctx context.Context) error {
			if err := next(ctx); err != nil {
				return err
			}
			path := filepath.Join(s.Config().DeployDir, filepath.FromSlash(file))
			if err := Write(ctx, path, s.Info().Posts); err != nil {
				return errors.WrapError(err, errors.CategoryHook, "cannot write post index").
					Fatal().WithContext("file", path).Build()
			}
			s.Logger().Debug("Post index written", logfields.Hook(Name), logfields.Path(path),
				logfields.Count(len(s.Info().Posts)))
			return nil
		}
	})
	return nil
}

// Write replaces the index at path with one row per post.
func Write(ctx context.Context, path string, posts []*content.Entity) error {
	rows := make([]Row, 0, len(posts))
	for _, p := range posts {
		fp, err := p.Fingerprint()
		if err != nil {
			return err
		}
		rows = append(rows, Row{
			URL:         p.URL(),
			Title:       p.Title(),
			Date:        p.Date().Format("2006-01-02"),
			Categories:  p.Categories(),
			Fingerprint: fp,
		})
	}
	store, err := Create(path)
	if err != nil {
		return err
	}
	if err := store.Insert(ctx, rows); err != nil {
		_ = store.Close()
		return err
	}
	return store.Close()
}
