package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/users/cmd/app/commands"
	"github.com/allisson/users/internal/app"
	"github.com/allisson/users/internal/config"
	"github.com/allisson/users/internal/user/usecase"
)

func getUserCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-user",
			Usage: "Register a new user",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Full name",
				},
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Email address",
				},
				&cli.StringFlag{
					Name:     "cpf",
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "CPF, punctuation allowed (123.456.789-01)",
				},
				&cli.StringFlag{
					Name:     "profession",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Profession",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   commands.FormatText,
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.WithContainer(func(_ *config.Config, container *app.Container) error {
					userUseCase, err := container.UserUseCase()
					if err != nil {
						return err
					}

					input := usecase.CreateUserInput{
						Name:       cmd.String("name"),
						Email:      cmd.String("email"),
						CPF:        cmd.String("cpf"),
						Profession: cmd.String("profession"),
					}
					return commands.RunCreateUser(ctx, userUseCase, container.Logger(), input,
						cmd.String("format"), commands.DefaultIO())
				})
			},
		},
	}
}
