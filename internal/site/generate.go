package site

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/growl/internal/config"
	"git.home.luguber.info/inful/growl/internal/content"
	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/logfields"
)

func (s *Site) defaultRun(ctx context.Context) error {
	if err := s.writePosts(ctx); err != nil {
		return err
	}
	return s.writeSiteContent(ctx)
}

// writePosts writes every post, published or not.
func (s *Site) writePosts(ctx context.Context) error {
	for _, p := range s.allPosts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.WritePost(p); err != nil {
			return err
		}
	}
	return nil
}

// writeSiteContent mirrors the base directory into the deploy directory.
// Ignored names are skipped; transformable files become pages and all other
// files are copied verbatim.
func (s *Site) writeSiteContent(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.DeployDir, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot create deploy directory").
			Fatal().WithContext("dir", s.cfg.DeployDir).Build()
	}
	return s.walk(ctx, s.cfg.BaseDir, "")
}

func (s *Site) walk(ctx context.Context, dir, rel string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot read directory").
			Fatal().WithContext("dir", dir).Build()
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := entry.Name()
		if Ignored(name) {
			continue
		}
		src := filepath.Join(dir, name)
		if config.Within(s.cfg.DeployDir, src) {
			continue
		}
		info, err := os.Stat(src)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "cannot stat source").
				Fatal().WithContext("file", src).Build()
		}
		relPath := filepath.Join(rel, name)

		// Symlinked files are followed; symlinked directories are not walked.
		if entry.Type()&os.ModeSymlink != 0 && info.IsDir() {
			s.logger.Warn("Skipping symlinked directory", logfields.File(s.cfg.Rel(src)))
			continue
		}
		if info.IsDir() {
			if err := os.MkdirAll(s.deployPath(relPath), 0o755); err != nil {
				return errors.WrapError(err, errors.CategoryFileSystem, "cannot create directory").
					Fatal().WithContext("dir", s.deployPath(relPath)).Build()
			}
			if err := s.walk(ctx, src, relPath); err != nil {
				return err
			}
			continue
		}

		if content.IsTransformable(name, s.transforms) {
			page, err := content.NewPage(src, s.root, s.env)
			if err != nil {
				return err
			}
			if err := s.WritePage(page); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(src, s.deployPath(relPath), info.Mode().Perm()); err != nil {
			return err
		}
		s.recorder.IncFilesCopied()
	}
	return nil
}

// writeEntity is the built-in write for pages and posts: full layout chain,
// then write to the derived path.
func (s *Site) writeEntity(e *content.Entity) error {
	out, err := e.Layout()
	if err != nil {
		return err
	}
	dst := s.deployPath(e.Path())
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot create directory").
			Fatal().WithContext("dir", filepath.Dir(dst)).Build()
	}
	if err := os.WriteFile(dst, []byte(out), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot write output").
			Fatal().WithContext("file", dst).Build()
	}
	s.recorder.IncEntitiesWritten(e.Kind().String())
	s.logger.Debug("Wrote entity", logfields.Kind(e.Kind().String()), logfields.Path(e.URL()))
	return nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	fail := func(err error) error {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot copy file").
			Fatal().WithContext("file", src).WithContext("dest", dst).Build()
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fail(err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fail(err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fail(err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fail(err)
	}
	if err := out.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(dst, perm); err != nil {
		return fail(err)
	}
	return nil
}
