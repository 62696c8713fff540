package httpapi

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-dashboard-api/internal/weather"
)

var validate = validator.New()

// WeatherService is the slice of weather.Service the handlers depend on.
type WeatherService interface {
	GetCurrentByCity(ctx context.Context, city string) (*weather.CurrentWeather, error)
	GetCurrentByCoordinates(ctx context.Context, lat, lon float64) (*weather.CurrentWeather, error)
	GetForecast(ctx context.Context, city string) (*weather.Forecast, error)
	Stats() weather.Stats
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service WeatherService, log logrus.FieldLogger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard-api",
			"cache":   service.Stats(),
		})
	})

	v1 := app.Group("/api/v1/weather")

	v1.Get("/current/:city", func(c *fiber.Ctx) error {
		q, err := parseCityParam(c)
		if err != nil {
			return err
		}

		w, err := service.GetCurrentByCity(c.UserContext(), q.City)
		if err != nil {
			return serviceError(c, log.WithField("city", q.City), err)
		}
		if w == nil {
			log.WithField("city", q.City).Warn("weather data not found")
			return fiber.NewError(fiber.StatusNotFound, "Weather data not found for city: "+q.City)
		}
		return c.JSON(w)
	})

	v1.Get("/current", func(c *fiber.Ctx) error {
		q, err := parseCoordinatesQuery(c)
		if err != nil {
			return err
		}

		w, err := service.GetCurrentByCoordinates(c.UserContext(), q.Lat, q.Lon)
		if err != nil {
			return serviceError(c, log.WithFields(logrus.Fields{"lat": q.Lat, "lon": q.Lon}), err)
		}
		if w == nil {
			return fiber.NewError(fiber.StatusNotFound, "Weather data not found for these coordinates")
		}
		return c.JSON(w)
	})

	v1.Get("/forecast/:city", func(c *fiber.Ctx) error {
		q, err := parseCityParam(c)
		if err != nil {
			return err
		}

		f, err := service.GetForecast(c.UserContext(), q.City)
		if err != nil {
			return serviceError(c, log.WithField("city", q.City), err)
		}
		if f == nil {
			log.WithField("city", q.City).Warn("forecast data not found")
			return fiber.NewError(fiber.StatusNotFound, "Forecast data not found for city: "+q.City)
		}
		return c.JSON(f)
	})
}

// ErrorHandler renders every handler error as the service's JSON error body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// serviceError maps a Service failure to an HTTP error.
func serviceError(c *fiber.Ctx, log logrus.FieldLogger, err error) error {
	if errors.Is(err, weather.ErrUpstreamUnavailable) {
		log.WithError(err).Error("weather upstream unavailable")
		return fiber.NewError(fiber.StatusServiceUnavailable, "Weather service temporarily unavailable")
	}
	log.WithError(err).Errorf("unexpected error serving %s", c.Path())
	return fiber.NewError(fiber.StatusInternalServerError, "An unexpected error occurred")
}

// cityParam holds the :city path parameter.
type cityParam struct {
	City string `validate:"required"`
}

func parseCityParam(c *fiber.Ctx) (cityParam, error) {
	// Params are raw path segments; "New%20York" must become "New York".
	city, err := url.PathUnescape(c.Params("city"))
	if err != nil {
		return cityParam{}, fiber.NewError(fiber.StatusBadRequest, "Invalid city name")
	}

	// Params alias the request buffer; the city may outlive this handler.
	q := cityParam{City: strings.Clone(strings.TrimSpace(city))}
	if err := validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "City name is required")
	}
	return q, nil
}

// coordinatesQuery holds the lat/lon query parameters.
type coordinatesQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

func parseCoordinatesQuery(c *fiber.Ctx) (coordinatesQuery, error) {
	var q coordinatesQuery

	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "lat and lon query parameters must be numbers")
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "lat and lon query parameters must be numbers")
	}
	q.Lat, q.Lon = lat, lon

	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Lon" {
			return q, fiber.NewError(fiber.StatusBadRequest, "Longitude must be between -180 and 180")
		}
		return q, fiber.NewError(fiber.StatusBadRequest, "Latitude must be between -90 and 90")
	}
	return q, nil
}
