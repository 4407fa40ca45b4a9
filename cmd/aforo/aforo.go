package main

import (
	"os"
	"time"

	"github.com/aforo/aforo/pkg/api"
	"github.com/aforo/aforo/pkg/database"
	"github.com/aforo/aforo/pkg/ingest"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("AFORO_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("AFORO_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "aforo",
		Description: "Single binary of truth for Aforo - runs all the services",

		Commands: []*cli.Command{
			api.RegisterCLI(),
			ingest.RegisterCLI(),
			databaseCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}

func databaseCommand() *cli.Command {
	command := database.RegisterCLI()

	// Migrations need a connection before the subcommand action runs.
	command.Before = func(c *cli.Context) error {
		return database.Connect()
	}

	return command
}
