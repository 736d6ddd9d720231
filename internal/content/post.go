package content

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/inful/mdfp"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/frontmatter"
	"git.home.luguber.info/inful/growl/internal/tplctx"
)

// Uncategorized is the category key of posts without any category.
const Uncategorized = "uncategorized"

type postInfo struct {
	year, month, day string
	slug             string
	date             time.Time
	categories       []string
}

func (p *postInfo) path(ext string) string {
	return filepath.Join(p.year, p.month, p.day, p.slug, "index."+ext)
}

// NewPost loads a post named YYYY-MM-DD-slug.ext. Category fields are folded
// into a single de-duplicated `categories` list.
func NewPost(path string, ctx *tplctx.Context, env *Env) (*Entity, error) {
	info, err := parsePostName(filepath.Base(path))
	if err != nil {
		return nil, err
	}
	e, err := load(KindPost, path, ctx, env)
	if err != nil {
		return nil, err
	}
	e.post = info

	if v, ok := e.ctx.Get("publish"); ok {
		if _, err := parsePublish(v); err != nil {
			return nil, errors.WrapError(err, errors.CategoryHeader, "invalid publish flag").
				Fatal().WithContext("file", e.rel).Build()
		}
	}

	category, _ := e.ctx.Get("category")
	categories, _ := e.ctx.Get("categories")
	info.categories = parseCategories(category, categories)
	e.ctx.Delete("category")
	e.ctx.Delete("categories")
	e.ctx.Set("categories", info.Categories())

	view := e.View()
	e.ctx.Set("post", view)
	e.ctx.Set("page", view)
	return e, nil
}

// parsePostName splits a post file name into date and slug.
func parsePostName(name string) (*postInfo, error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.SplitN(stem, "-", 4)
	if len(parts) != 4 || parts[3] == "" {
		return nil, errors.PostNamingError("post file name must be YYYY-MM-DD-slug.ext").
			WithContext("file", name).Build()
	}

	nums := make([]int, 3)
	for i, p := range parts[:3] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.PostNamingError("post date segment is not numeric").
				WithCause(err).WithContext("file", name).Build()
		}
		nums[i] = n
	}
	date := time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, time.UTC)
	if date.Year() != nums[0] || int(date.Month()) != nums[1] || date.Day() != nums[2] {
		return nil, errors.PostNamingError("post date is not a calendar date").
			WithContext("file", name).Build()
	}

	return &postInfo{
		year:  parts[0],
		month: parts[1],
		day:   parts[2],
		slug:  parts[3],
		date:  date,
	}, nil
}

// parseCategories joins both fields with commas, splits, trims and
// de-duplicates in first-seen order.
func parseCategories(values ...any) []string {
	var joined []string
	for _, v := range values {
		switch vv := v.(type) {
		case nil:
		case string:
			joined = append(joined, vv)
		case []string:
			joined = append(joined, vv...)
		case []any:
			for _, item := range vv {
				if item != nil {
					joined = append(joined, fmt.Sprint(item))
				}
			}
		default:
			joined = append(joined, fmt.Sprint(vv))
		}
	}

	seen := map[string]bool{}
	out := []string{}
	for _, c := range strings.Split(strings.Join(joined, ","), ",") {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func (p *postInfo) Categories() []string {
	out := make([]string, len(p.categories))
	copy(out, p.categories)
	return out
}

// Date is the post date at UTC midnight. Zero for non-posts.
func (e *Entity) Date() time.Time {
	if e.post == nil {
		return time.Time{}
	}
	return e.post.date
}

// Slug is the part of a post file name after the date.
func (e *Entity) Slug() string {
	if e.post == nil {
		return ""
	}
	return e.post.slug
}

// Categories returns the post's categories, or nil for non-posts.
func (e *Entity) Categories() []string {
	if e.post == nil {
		return nil
	}
	return e.post.Categories()
}

// Publish reports the `publish` header flag, defaulting to true. Values
// NewPost would reject read as unpublished.
func (e *Entity) Publish() bool {
	v, _ := e.ctx.Get("publish")
	b, err := parsePublish(v)
	return err == nil && b
}

// parsePublish accepts YAML booleans plus the YAML 1.1 words
// yes/no/on/off/y/n, case-insensitively. A missing value means true.
func parsePublish(v any) (bool, error) {
	switch vv := v.(type) {
	case nil:
		return true, nil
	case bool:
		return vv, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(vv)) {
		case "yes", "y", "on":
			return true, nil
		case "no", "n", "off":
			return false, nil
		}
		if b, err := strconv.ParseBool(strings.TrimSpace(vv)); err == nil {
			return b, nil
		}
	}
	return false, fmt.Errorf("publish must be a boolean, got %v", v)
}

// Title is the `title` header, or the slug in title case.
func (e *Entity) Title() string {
	if t := e.ctx.GetString("title"); t != "" {
		return t
	}
	if e.post != nil {
		return cases.Title(language.English).String(strings.ReplaceAll(e.post.slug, "-", " "))
	}
	return e.Name()
}

// Permalink is the `permalink` header, or "".
func (e *Entity) Permalink() string {
	return e.ctx.GetString("permalink")
}

// Fingerprint hashes the canonical header and body, ignoring any stored fingerprint.
func (e *Entity) Fingerprint() (string, error) {
	fields := make(map[string]any, len(e.header))
	for k, v := range e.header {
		if k == mdfp.FingerprintField {
			continue
		}
		fields[k] = v
	}
	header := ""
	if len(fields) > 0 {
		out, err := frontmatter.SerializeYAML(fields, frontmatter.Style{Newline: "\n"})
		if err != nil {
			return "", err
		}
		header = strings.TrimSuffix(string(out), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(header, e.body), nil
}

// Before orders posts by date.
func (e *Entity) Before(other *Entity) bool {
	return e.Date().Before(other.Date())
}
