package api

import (
	"github.com/aforo/aforo/pkg/api/routes"
	"github.com/aforo/aforo/pkg/processor"
	"github.com/gofiber/fiber/v2"
)

func SetupServer(listen string, sync *processor.Processor, async *processor.AsyncProcessor) error {
	webApp := fiber.New()
	webApp.Use(NewLogger())

	group := webApp.Group("/counting")

	group.Get("version", routes.APIVersion)

	routes.PassengerEventsRouter(group, sync, async)

	return webApp.Listen(listen)
}
