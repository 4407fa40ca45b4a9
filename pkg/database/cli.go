package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "database",
		Usage: "Manage the counting database",
		Subcommands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "create the counting tables and indexes",
				Action: func(c *cli.Context) error {
					if err := Migrate(context.Background()); err != nil {
						return err
					}

					log.Info().Msg("Database schema up to date")

					return nil
				},
			},
		},
	}
}
