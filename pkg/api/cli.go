package api

import (
	"github.com/aforo/aforo/pkg/config"
	"github.com/aforo/aforo/pkg/database"
	"github.com/aforo/aforo/pkg/ledger"
	"github.com/aforo/aforo/pkg/processor"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the passenger counting web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}

					if err := database.Connect(); err != nil {
						return err
					}

					sync := processor.New(cfg, ledger.NewPostgresLedger(database.Pool))
					async := processor.NewAsync(sync, cfg.AsyncWorkers, cfg.AsyncQueueSize)
					defer async.Stop()

					return SetupServer(c.String("listen"), sync, async)
				},
			},
		},
	}
}
