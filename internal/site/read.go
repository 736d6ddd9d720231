package site

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/growl/internal/content"
	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/logfields"
)

// IgnorePrefixes mark files and directories that are never walked or copied.
var IgnorePrefixes = []string{"_", "."}

// Ignored reports whether name starts with an ignore prefix.
func Ignored(name string) bool {
	for _, p := range IgnorePrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func (s *Site) defaultPrepare(ctx context.Context) error {
	if err := s.readLayouts(); err != nil {
		return err
	}
	if err := content.ValidateChains(s.Layouts); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.readPosts(); err != nil {
		return err
	}
	s.calcCategories()
	s.publish()
	return nil
}

// listFiles returns the sorted regular files of dir that are not ignored.
// A missing directory is empty.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "cannot read directory").
			Fatal().WithContext("dir", dir).Build()
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || Ignored(entry.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	return out, nil
}

func (s *Site) readLayouts() error {
	files, err := listFiles(s.cfg.LayoutDir)
	if err != nil {
		return err
	}
	for _, path := range files {
		l, err := content.NewLayout(path, s.root, s.env)
		if err != nil {
			return err
		}
		if prev, dup := s.Layouts[l.Name()]; dup {
			s.logger.Warn("Duplicate layout name, later file wins",
				logfields.Layout(l.Name()), logfields.File(prev.Rel()), logfields.Path(l.Rel()))
		}
		s.Layouts[l.Name()] = l
	}
	s.logger.Debug("Layouts read", logfields.Count(len(s.Layouts)))
	return nil
}

func (s *Site) readPosts() error {
	files, err := listFiles(s.cfg.PostDir)
	if err != nil {
		return err
	}
	posts := make([]*content.Entity, 0, len(files))
	for _, path := range files {
		p, err := content.NewPost(path, s.root, s.env)
		if err != nil {
			if errors.HasCategory(err, errors.CategoryPostNaming) && !s.cfg.Posts.Strict {
				s.recorder.IncPostsSkipped()
				s.logger.Warn("Skipping post with invalid file name",
					logfields.File(s.cfg.Rel(path)), logfields.Error(err))
				continue
			}
			return err
		}
		posts = append(posts, p)
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].Before(posts[j]) })

	s.allPosts = posts
	s.Posts = s.Posts[:0]
	s.UnpublishedPosts = s.UnpublishedPosts[:0]
	for _, p := range posts {
		if p.Publish() {
			s.Posts = append(s.Posts, p)
		} else {
			s.UnpublishedPosts = append(s.UnpublishedPosts, p)
		}
	}
	s.info.Posts = s.Posts
	s.info.UnpublishedPosts = s.UnpublishedPosts
	s.logger.Debug("Posts read", logfields.Count(len(s.Posts)), slog.Int("unpublished", len(s.UnpublishedPosts)))
	return nil
}

// calcCategories files every published post under each of its categories,
// or under content.Uncategorized.
func (s *Site) calcCategories() {
	for k := range s.Categories {
		delete(s.Categories, k)
	}
	for _, p := range s.Posts {
		cats := p.Categories()
		if len(cats) == 0 {
			cats = []string{content.Uncategorized}
		}
		for _, c := range cats {
			s.Categories[c] = append(s.Categories[c], p)
		}
	}
	s.info.Categories = s.Categories
}
