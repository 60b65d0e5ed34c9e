package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"weather-forecast-service/internal/forecast"
)

var validate = validator.New()

// RegisterRoutes wires the read-only forecast endpoints into the Fiber app.
func RegisterRoutes(app *fiber.App, service *forecast.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/forecast/latest", func(c *fiber.Ctx) error {
		forecasts, err := service.LatestPerDay(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest forecasts")
		}
		if forecasts == nil {
			forecasts = []forecast.DailyForecast{}
		}
		return c.JSON(forecasts)
	})

	v1.Get("/forecast/average-temperature", func(c *fiber.Ctx) error {
		averages, err := service.AverageTemperature(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch average temperatures")
		}
		if averages == nil {
			averages = []forecast.DailyAverage{}
		}
		return c.JSON(averages)
	})

	v1.Get("/forecast/top-locations", func(c *fiber.Ctx) error {
		req, err := parseTopQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rankings, err := service.TopLocations(c.UserContext(), req.N)
		if err != nil {
			if errors.Is(err, forecast.ErrInvalidTopN) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch top locations")
		}
		if rankings == nil {
			rankings = []forecast.MetricRanking{}
		}
		return c.JSON(rankings)
	})
}

// topQuery holds query parameters for the top-locations endpoint.
type topQuery struct {
	N int `validate:"required,gt=0"`
}

func parseTopQuery(c *fiber.Ctx) (topQuery, error) {
	var q topQuery

	nStr := c.Query("n")
	if nStr == "" {
		return q, errors.New("n query parameter is required")
	}

	n, err := strconv.Atoi(nStr)
	if err != nil {
		return q, errors.New("n must be an integer")
	}
	q.N = n

	if err := validate.Struct(q); err != nil {
		return q, forecast.ErrInvalidTopN
	}

	return q, nil
}
