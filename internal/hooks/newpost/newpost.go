// Package newpost adds --new-post: instead of generating the site, growl
// opens an editor on a post skeleton and saves the result to the post
// directory under a dated, URL-safe file name.
package newpost

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/frontmatter"
	"git.home.luguber.info/inful/growl/internal/hook"
	"git.home.luguber.info/inful/growl/internal/logfields"
	"git.home.luguber.info/inful/growl/internal/site"
)

const (
	Name        = "newpost"
	Placeholder = "???"
)

// Flags is embedded into the command line.
type Flags struct {
	NewPost bool `name:"new-post" help:"Write a new post in $GROWL_EDITOR instead of generating the site."`
}

func init() {
	site.RegisterHook(Name, Install)
}

func Install(s *site.Site, m hook.Manifest) error {
	w := &writer{
		site:      s,
		layout:    m.String("layout", "post"),
		extension: strings.TrimPrefix(m.String("extension", "md"), "."),
	}
	s.WrapSetupOptions(func(next site.SetupOptionsFunc) site.SetupOptionsFunc {
		return func(opts *site.Options) error {
			if err := next(opts); err != nil {
				return err
			}
			w.flags = site.FlagGroup(opts, Name, Flags{})
			return nil
		}
	})
	s.WrapRun(func(next site.StageFunc) site.StageFunc {
		return func(ctx context.Context) error {
			if w.flags == nil || !w.flags.NewPost {
				return next(ctx)
			}
			return w.create(ctx)
		}
	})
	return nil
}

// Editor returns the editor command line: $GROWL_EDITOR, then $EDITOR, then vi.
func Editor() []string {
	for _, env := range []string{"GROWL_EDITOR", "EDITOR"} {
		if fields := strings.Fields(os.Getenv(env)); len(fields) > 0 {
			return fields
		}
	}
	return []string{"vi"}
}

const unsafeChars = "`~!@#$%^*()+={}[]|\\;:'\",<>/?"

// MangleURL turns a title into a file name fragment: lower case, punctuation
// dropped, & and . spelled out, blanks as underscores.
func MangleURL(title string) string {
	s := strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafeChars, r) {
			return -1
		}
		return r
	}, strings.ToLower(title))
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, ".", " dot ")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
	return url.PathEscape(s)
}

type writer struct {
	site      *site.Site
	flags     *Flags
	layout    string
	extension string
}

func (w *writer) skeleton() ([]byte, error) {
	style := frontmatter.Style{Newline: "\n"}
	header, err := frontmatter.SerializeYAML(map[string]any{
		"layout":     w.layout,
		"title":      Placeholder,
		"categories": Placeholder,
	}, style)
	if err != nil {
		return nil, err
	}
	return frontmatter.Join(header, nil, true, style), nil
}

func (w *writer) create(ctx context.Context) error {
	logger := w.site.Logger()
	skeleton, err := w.skeleton()
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "cannot build post skeleton").Fatal().Build()
	}
	text, err := w.edit(ctx, skeleton)
	if err != nil {
		return err
	}
	if bytes.Equal(text, skeleton) {
		logger.Warn("New post aborted, nothing was written", logfields.Hook(Name))
		return nil
	}

	header, _, had, _ := frontmatter.Split(text)
	fields := map[string]any{}
	if had {
		if fields, err = frontmatter.ParseYAML(header); err != nil {
			return errors.WrapError(err, errors.CategoryHeader, "malformed header in new post").Fatal().Build()
		}
	}
	title, _ := fields["title"].(string)
	if title == "" || title == Placeholder {
		logger.Warn("New post aborted, no title", logfields.Hook(Name))
		return nil
	}

	name := fmt.Sprintf("%s-%s.%s", w.site.Info().Now.Format("2006-01-02"), MangleURL(title), w.extension)
	dir := w.site.Config().PostDir
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.FileSystemError("cannot create post directory").WithCause(err).WithContext("dir", dir).Build()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.WrapError(err, errors.CategoryHook, "cannot create post").
			Fatal().WithContext("file", path).Build()
	}
	if _, err := f.Write(text); err != nil {
		_ = f.Close()
		return errors.FileSystemError("cannot write post").WithCause(err).WithContext("file", path).Build()
	}
	if err := f.Close(); err != nil {
		return errors.FileSystemError("cannot write post").WithCause(err).WithContext("file", path).Build()
	}
	logger.Info("Created post", logfields.File(w.site.Config().Rel(path)))
	return nil
}

// edit runs the editor on a temporary copy of initial and returns the result.
func (w *writer) edit(ctx context.Context, initial []byte) ([]byte, error) {
	tmp, err := os.CreateTemp("", "growl_*.post")
	if err != nil {
		return nil, errors.FileSystemError("cannot create temporary post").WithCause(err).Build()
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(initial); err != nil {
		_ = tmp.Close()
		return nil, errors.FileSystemError("cannot write temporary post").WithCause(err).Build()
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.FileSystemError("cannot write temporary post").WithCause(err).Build()
	}

	editor := Editor()
	bin, err := w.site.LookPath(editor[0])
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHook, "editor not found").
			Fatal().WithContext("editor", editor[0]).Build()
	}
	cmd := exec.CommandContext(ctx, bin, append(editor[1:], tmp.Name())...)
	cmd.Env = w.site.CommandEnv()
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryHook, "editor failed").
			Fatal().WithContext("editor", editor[0]).Build()
	}
	text, err := os.ReadFile(tmp.Name())
	if err != nil {
		return nil, errors.FileSystemError("cannot read edited post").WithCause(err).Build()
	}
	return text, nil
}
