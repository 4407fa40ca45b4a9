package ingest

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aforo/aforo/pkg/config"
	"github.com/aforo/aforo/pkg/counting"
	"github.com/aforo/aforo/pkg/database"
	"github.com/aforo/aforo/pkg/ledger"
	"github.com/aforo/aforo/pkg/processor"
	"github.com/aforo/aforo/pkg/redis_client"
	"github.com/aforo/aforo/pkg/util"
	"github.com/kr/pretty"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Consumes passenger events from the queue",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run an instance of the queue consumer",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}

					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					proc := processor.New(cfg, ledger.NewPostgresLedger(database.Pool))

					ackAlways := util.Env("AFORO_QUEUE_ACK_ALWAYS", "NO") == "YES"

					StartConsumers(proc, ackAlways)

					go StartStatsServer()

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					return nil
				},
			},
			{
				Name:  "cleaner",
				Usage: "run the queue cleaner for the passenger events queue",
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}

					StartCleaner()

					return nil
				},
			},
			{
				Name:  "test-publish",
				Usage: "publish a sample passenger event onto the queue",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "vehicle",
						Value: "BUS-001",
						Usage: "vehicle identifier for the sample event",
					},
				},
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}

					queue, err := redis_client.QueueConnection.OpenQueue(QueueName)
					if err != nil {
						return err
					}

					event := counting.PassengerEvent{
						VehicleID:   c.String("vehicle"),
						Door1In:     4,
						Door1Out:    2,
						Door2In:     1,
						CheckinTime: time.Now().UTC().Truncate(time.Second),
						Latitude:    4.60971,
						Longitude:   -74.08175,
					}

					eventJson, _ := json.Marshal(event)

					if err := queue.PublishBytes(eventJson); err != nil {
						return err
					}

					pretty.Println(event)

					return nil
				},
			},
		},
	}
}
