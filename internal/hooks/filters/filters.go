// Package filters registers growl's date and markup template filters:
//
//	{{ post.date|dateformat:"%d %B %Y" }}
//	{{ post.date|xmldatetime }}
//	{{ post.content|xtruncate:200 }}
package filters

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"git.home.luguber.info/inful/growl/internal/hook"
	"git.home.luguber.info/inful/growl/internal/render"
	"git.home.luguber.info/inful/growl/internal/site"
)

const Name = "filters"

const (
	DefaultDateFormat    = "%Y-%m-%d"
	DefaultTruncate      = 255
	DefaultTruncateTrail = "..."
)

func init() {
	site.RegisterHook(Name, Install)
}

func Install(s *site.Site, m hook.Manifest) error {
	trail := m.String("truncate_trail", DefaultTruncateTrail)
	filters := map[string]render.Filter{
		"dateformat":  DateFormat,
		"xmldatetime": XMLDateTime,
		"xtruncate": func(in, param any) (any, error) {
			return XTruncate(in, param, trail)
		},
	}
	filters["dateFormat"] = DateFormat
	for _, name := range []string{"dateformat", "dateFormat", "xmldatetime", "xtruncate"} {
		if err := s.Engine().RegisterFilter(name, filters[name]); err != nil {
			return err
		}
	}
	return nil
}

// DateFormat formats a time with a strftime pattern, or a Go layout when the
// pattern has no % directives.
func DateFormat(in, param any) (any, error) {
	t, err := asTime(in)
	if err != nil {
		return nil, err
	}
	format := DefaultDateFormat
	if param != nil {
		format = fmt.Sprint(param)
	}
	if strings.Contains(format, "%") {
		return strftime.Format(format, t), nil
	}
	return t.Format(format), nil
}

// XMLDateTime formats a time as an xs:dateTime, with Z for UTC.
func XMLDateTime(in, _ any) (any, error) {
	t, err := asTime(in)
	if err != nil {
		return nil, err
	}
	return t.Format("2006-01-02T15:04:05Z07:00"), nil
}

func asTime(in any) (time.Time, error) {
	switch v := in.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("expected a date, got %T", in)
}

func asInt(param any, def int) (int, error) {
	switch v := param.(type) {
	case nil:
		return def, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid length %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("invalid length %v", param)
	}
}
