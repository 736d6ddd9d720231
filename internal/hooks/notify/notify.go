// Package notify publishes a build event to NATS after every successful run.
//
// Manifest options:
//
//	url: nats://localhost:4222
//	subject: growl.build
//	required: false   # fail the build when the event cannot be delivered
package notify

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/hook"
	"git.home.luguber.info/inful/growl/internal/logfields"
	"git.home.luguber.info/inful/growl/internal/site"
)

const (
	Name           = "notify"
	DefaultSubject = "growl.build"
	connectTimeout = 2 * time.Second
)

// Event is the JSON payload published after a build.
type Event struct {
	BuildID          string    `json:"build_id"`
	Time             time.Time `json:"time"`
	BaseDir          string    `json:"base_dir"`
	DeployDir        string    `json:"deploy_dir"`
	Posts            []string  `json:"posts"`
	UnpublishedPosts int       `json:"unpublished_posts"`
	Categories       []string  `json:"categories"`
	Hooks            []string  `json:"hooks"`
}

// Publisher is the part of a NATS connection notify needs.
type Publisher interface {
	Publish(subject string, data []byte) error
	Flush() error
	Close()
}

// Dial connects to a NATS server. Tests replace it.
var Dial = func(url string) (Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("growl"), nats.Timeout(connectTimeout))
	if err != nil {
		return nil, err
	}
	return nc, nil
}

func init() {
	site.RegisterHook(Name, Install)
}

func Install(s *site.Site, m hook.Manifest) error {
	url := m.String("url", nats.DefaultURL)
	subject := m.String("subject", DefaultSubject)
	required := m.Bool("required", false)

	s.WrapRun(func(next site.StageFunc) site.StageFunc {
		return func(ctx context.Context) error {
			if err := next(ctx); err != nil {
				return err
			}
			err := publish(url, subject, NewEvent(s))
			if err == nil {
				s.Logger().Debug("Build event published", logfields.Hook(Name), logfields.URL(url))
				return nil
			}
			if required {
				return err
			}
			s.Logger().Warn("Build event not delivered", logfields.Hook(Name), logfields.URL(url), logfields.Error(err))
			return nil
		}
	})
	return nil
}

// NewEvent summarizes the current build of s.
func NewEvent(s *site.Site) Event {
	info := s.Info()
	ev := Event{
		BuildID:          info.BuildID,
		Time:             info.Now,
		BaseDir:          s.Config().BaseDir,
		DeployDir:        s.Config().DeployDir,
		Posts:            make([]string, 0, len(info.Posts)),
		UnpublishedPosts: len(info.UnpublishedPosts),
		Categories:       make([]string, 0, len(info.Categories)),
		Hooks:            info.Hooks,
	}
	for _, p := range info.Posts {
		ev.Posts = append(ev.Posts, p.URL())
	}
	for name := range info.Categories {
		ev.Categories = append(ev.Categories, name)
	}
	sort.Strings(ev.Categories)
	return ev
}

func publish(url, subject string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "cannot encode build event").Fatal().Build()
	}
	conn, err := Dial(url)
	if err != nil {
		return errors.WrapError(err, errors.CategoryHook, "cannot connect to NATS").
			Fatal().WithContext("url", url).Build()
	}
	defer conn.Close()
	if err := conn.Publish(subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryHook, "cannot publish build event").
			Fatal().WithContext("subject", subject).Build()
	}
	if err := conn.Flush(); err != nil {
		return errors.WrapError(err, errors.CategoryHook, "cannot flush build event").
			Fatal().WithContext("subject", subject).Build()
	}
	return nil
}
