package ingest

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/adjust/rmq/v5"
	"github.com/aforo/aforo/pkg/database"
	"github.com/aforo/aforo/pkg/redis_client"
	"github.com/rs/zerolog/log"
)

type StatsServerHandler struct {
	redisConnection rmq.Connection
}

func NewStatsHandler(connection rmq.Connection) *StatsServerHandler {
	return &StatsServerHandler{redisConnection: connection}
}

func (handler *StatsServerHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	layout := request.FormValue("layout")
	refresh := request.FormValue("refresh")

	queues, err := handler.redisConnection.GetOpenQueues()
	if err != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(writer, err)

		return
	}

	stats, err := handler.redisConnection.CollectStats(queues)
	if err != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(writer, err)

		return
	}

	fmt.Fprint(writer, stats.GetHtml(layout, refresh))
}

type HealthHandler struct {
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (handler *HealthHandler) ServeHTTP(writer http.ResponseWriter, _ *http.Request) {
	testRedis := redis_client.Client.ClientID(context.TODO())
	if testRedis.Err() != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(writer, testRedis.Err())

		return
	}

	if err := database.Pool.Ping(context.TODO()); err != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(writer, err)

		return
	}

	writer.WriteHeader(http.StatusOK)
	fmt.Fprint(writer, "OK")
}

func StartStatsServer() {
	endpoint := fmt.Sprintf("/%s/stats", QueueName)
	http.Handle(endpoint, NewStatsHandler(redis_client.QueueConnection))
	http.Handle("/health", NewHealthHandler())

	log.Info().Msgf("Stats server listening on http://localhost:3333%s", endpoint)
	if err := http.ListenAndServe(":3333", nil); err != nil {
		panic(err)
	}
}
