package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/users/cmd/app/commands"
	"github.com/allisson/users/internal/app"
	"github.com/allisson/users/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	serve := func(run func(context.Context, string) error) cli.ActionFunc {
		return func(ctx context.Context, _ *cli.Command) error {
			return run(ctx, version)
		}
	}

	return []*cli.Command{
		{
			Name:   "server",
			Usage:  "Serve the users HTTP API",
			Action: serve(commands.RunServer),
		},
		{
			Name:   "worker",
			Usage:  "Relay pending user events from the outbox",
			Action: serve(commands.RunWorker),
		},
		{
			Name:  "migrate",
			Usage: "Apply pending database migrations",
			Action: func(ctx context.Context, _ *cli.Command) error {
				return commands.WithContainer(func(cfg *config.Config, container *app.Container) error {
					return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
				})
			},
		},
	}
}
