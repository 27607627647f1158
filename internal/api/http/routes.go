package httpapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/castellimtb/castelli-weather/internal/alerts"
	"github.com/castellimtb/castelli-weather/internal/reports"
	"github.com/castellimtb/castelli-weather/internal/strava"
	"github.com/castellimtb/castelli-weather/internal/visits"
	"github.com/castellimtb/castelli-weather/internal/weather"
)

var validate = validator.New()

// Deps bundles the services the HTTP handlers need.
type Deps struct {
	Weather   *weather.Client
	Locations []weather.Location
	Alerts    *alerts.Service
	Reports   *reports.Store
	Visits    *visits.Counter
	Strava    *strava.Client
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	index := weather.Index(deps.Locations)

	v1 := app.Group("/api/v1")

	v1.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(deps.Locations)
	})

	v1.Get("/weather/:location", func(c *fiber.Ctx) error {
		loc, ok := index[c.Params("location")]
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "location not found")
		}

		forecast, err := deps.Weather.Fetch(c.UserContext(), loc)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch forecast")
		}
		return c.JSON(forecast)
	})

	v1.Get("/alerts", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"alerts": deps.Alerts.All(),
		})
	})

	v1.Get("/reports", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"reports": deps.Reports.Active(),
		})
	})

	v1.Post("/reports", func(c *fiber.Ctx) error {
		var req reportRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid report payload")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report := deps.Reports.Save(req.Lat, req.Lon, req.Kind, req.Description)
		return c.Status(fiber.StatusCreated).JSON(report)
	})

	v1.Get("/visits", func(c *fiber.Ctx) error {
		return c.JSON(deps.Visits.Increment())
	})

	v1.Get("/strava/club", func(c *fiber.Ctx) error {
		info, err := deps.Strava.ClubInfo(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch club info")
		}
		return c.JSON(info)
	})

	v1.Get("/strava/stats", func(c *fiber.Ctx) error {
		stats, err := deps.Strava.ClubStats(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch club stats")
		}
		return c.JSON(stats)
	})
}

// reportRequest is the payload for submitting a trail report.
type reportRequest struct {
	Lat         float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon         float64 `json:"lon" validate:"required,gte=-180,lte=180"`
	Kind        string  `json:"kind" validate:"required,max=50"`
	Description string  `json:"description" validate:"max=200"`
}
