package routes

import (
	"github.com/aforo/aforo/pkg/counting"
	"github.com/aforo/aforo/pkg/processor"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// The domain status taxonomy is transport-agnostic; this table is the HTTP
// adapter's own mapping.
var httpStatusCodes = map[counting.Status]int{
	counting.StatusOK:        fiber.StatusOK,
	counting.StatusDiscarded: fiber.StatusOK,
	counting.StatusReceived:  fiber.StatusAccepted,
	counting.StatusNotFound:  fiber.StatusNotFound,
	counting.StatusInvalid:   fiber.StatusUnprocessableEntity,
	counting.StatusError:     fiber.StatusInternalServerError,
}

func PassengerEventsRouter(router fiber.Router, sync *processor.Processor, async *processor.AsyncProcessor) {
	router.Post("/sync/process-event", func(c *fiber.Ctx) error {
		event, err := counting.DecodeInbound(c.Body())
		if err != nil {
			return sendOutcome(c, counting.Outcome{
				Status:  counting.StatusInvalid,
				Message: err.Error(),
			})
		}

		return sendOutcome(c, sync.Process(c.UserContext(), event))
	})

	router.Post("/async/process-event", func(c *fiber.Ctx) error {
		event, err := counting.DecodeInbound(c.Body())
		if err != nil {
			return sendOutcome(c, counting.Outcome{
				Status:  counting.StatusInvalid,
				Message: err.Error(),
			})
		}

		result, err := async.Submit(event)
		if err != nil {
			return sendOutcome(c, counting.Outcome{
				Status:  counting.StatusError,
				Message: err.Error(),
				Event:   event,
			})
		}

		// The caller only gets the acceptance; the final outcome lands in the
		// logs once a worker picks the event up.
		go func() {
			outcome := <-result
			log.Debug().
				Str("vehicle", event.VehicleID).
				Str("status", string(outcome.Status)).
				Msg("Async event resolved")
		}()

		return sendOutcome(c, counting.Outcome{
			Status:  counting.StatusReceived,
			Message: "event is being processed asynchronously",
			Event:   event,
		})
	})
}

func sendOutcome(c *fiber.Ctx, outcome counting.Outcome) error {
	code, known := httpStatusCodes[outcome.Status]
	if !known {
		code = fiber.StatusInternalServerError
	}

	c.Status(code)
	return c.JSON(outcome)
}
