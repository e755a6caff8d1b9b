package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-etl/internal/pipeline"
	"github.com/i474232898/weather-etl/internal/store"
)

const defaultListLimit = 20

var validate = validator.New()

// RegisterRoutes wires the run status handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, runner *pipeline.Runner) {
	v1 := app.Group("/api/v1")

	v1.Get("/runs", func(c *fiber.Ctx) error {
		q, err := parseListQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		runs, err := runner.List(q.Limit)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.JSON(fiber.Map{"runs": []pipeline.RunRecord{}})
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list runs")
		}

		return c.JSON(fiber.Map{"runs": runs})
	})

	v1.Get("/runs/latest", func(c *fiber.Ctx) error {
		run, err := runner.Latest()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no runs recorded yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest run")
		}
		return c.JSON(run)
	})

	v1.Get("/runs/:id", func(c *fiber.Ctx) error {
		run, err := runner.Get(c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "run not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch run")
		}
		return c.JSON(run)
	})

	// Manual trigger. The run executes in the background; poll /runs/:id.
	v1.Post("/runs", func(c *fiber.Ctx) error {
		run := runner.Trigger(pipeline.TriggerManual)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"id":     run.ID,
			"status": run.Status,
		})
	})
}

// listQuery holds query parameters for the run listing endpoint.
type listQuery struct {
	Limit int `validate:"min=1,max=500"`
}

func parseListQuery(c *fiber.Ctx) (listQuery, error) {
	q := listQuery{Limit: defaultListLimit}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.New("limit must be an integer")
		}
		q.Limit = n
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}
