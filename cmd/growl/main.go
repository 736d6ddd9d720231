package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/growl/cmd/growl/commands"
	"git.home.luguber.info/inful/growl/internal/errors"

	_ "git.home.luguber.info/inful/growl/internal/hooks/deployrsync"
	_ "git.home.luguber.info/inful/growl/internal/hooks/filters"
	_ "git.home.luguber.info/inful/growl/internal/hooks/gitinfo"
	_ "git.home.luguber.info/inful/growl/internal/hooks/markdown"
	_ "git.home.luguber.info/inful/growl/internal/hooks/newpost"
	_ "git.home.luguber.info/inful/growl/internal/hooks/notify"
	_ "git.home.luguber.info/inful/growl/internal/hooks/postindex"
	_ "git.home.luguber.info/inful/growl/internal/hooks/status"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	args := os.Args[1:]
	err := commands.Execute(ctx, args)
	cancel()
	errors.NewCLIErrorAdapter(commands.Peek(args).Verbose, slog.Default()).HandleError(err)
}
