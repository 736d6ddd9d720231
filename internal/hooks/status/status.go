// Package status logs every post and page as it is written.
package status

import (
	"log/slog"

	"git.home.luguber.info/inful/growl/internal/content"
	"git.home.luguber.info/inful/growl/internal/hook"
	"git.home.luguber.info/inful/growl/internal/logfields"
	"git.home.luguber.info/inful/growl/internal/site"
)

const Name = "status"

func init() {
	site.RegisterHook(Name, Install)
}

func Install(s *site.Site, _ hook.Manifest) error {
	logger := s.Logger()
	s.WrapWritePost(func(next site.WriteFunc) site.WriteFunc {
		return func(e *content.Entity) error {
			logger.Info("post", slog.String("date", e.Date().Format("2006-01-02")), slog.String("title", e.Title()))
			return next(e)
		}
	})
	s.WrapWritePage(func(next site.WriteFunc) site.WriteFunc {
		return func(e *content.Entity) error {
			logger.Info("page", logfields.Path(e.URL()))
			return next(e)
		}
	})
	return nil
}
