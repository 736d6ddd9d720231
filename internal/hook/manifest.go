package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/growl/internal/errors"
)

// Manifest enables one hook for a site. It is read from <hookdir>/<file>.yaml:
//
//	hook: deploy_rsync      # optional, defaults to the file name
//	enabled: true           # optional
//	options:
//	  remote: host:/srv/www
type Manifest struct {
	File    string         `yaml:"-"`
	Name    string         `yaml:"hook"`
	Enabled *bool          `yaml:"enabled"`
	Options map[string]any `yaml:"options"`
}

// IsEnabled reports whether the manifest should be installed.
func (m Manifest) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// Discover reads every *.yaml / *.yml manifest in dir, sorted by file name.
// A missing directory yields no manifests.
func Discover(dir string) ([]Manifest, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHook, "cannot read hook directory").
			Fatal().WithContext("dir", dir).Build()
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	manifests := make([]Manifest, 0, len(names))
	for _, name := range names {
		m, err := readManifest(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

func readManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, errors.WrapError(err, errors.CategoryHook, "cannot read hook manifest").
			Fatal().WithContext("file", path).Build()
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &m); err != nil {
		return m, errors.WrapError(err, errors.CategoryHook, "invalid hook manifest").
			Fatal().WithContext("file", path).Build()
	}
	m.File = path
	if m.Name == "" {
		m.Name = nameFromFile(filepath.Base(path))
	}
	if m.Options == nil {
		m.Options = map[string]any{}
	}
	return m, nil
}

// nameFromFile strips the extension and a numeric ordering prefix such as "10-".
func nameFromFile(base string) string {
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	i := 0
	for i < len(stem) && stem[i] >= '0' && stem[i] <= '9' {
		i++
	}
	if i > 0 && i < len(stem)-1 && (stem[i] == '-' || stem[i] == '_') {
		return stem[i+1:]
	}
	return stem
}

// String returns the string option key, or def.
func (m Manifest) String(key, def string) string {
	v, ok := m.Options[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns the boolean option key, or def.
func (m Manifest) Bool(key string, def bool) bool {
	if v, ok := m.Options[key].(bool); ok {
		return v
	}
	return def
}

// Strings returns a list option; a single string is treated as a one-item list.
func (m Manifest) Strings(key string, def []string) []string {
	switch v := m.Options[key].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return def
	}
}

// Duration parses a duration option such as "5s", or returns def.
func (m Manifest) Duration(key string, def time.Duration) (time.Duration, error) {
	s := m.String(key, "")
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryHook, "invalid duration option").
			Fatal().WithContext("hook", m.Name).WithContext("option", key).Build()
	}
	return d, nil
}
