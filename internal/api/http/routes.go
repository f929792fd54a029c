package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
	"github.com/i474232898/air-quality-aggregation/internal/assistant"
	"github.com/i474232898/air-quality-aggregation/internal/store"
	"github.com/i474232898/air-quality-aggregation/internal/verification"
)

var validate = validator.New()

// Deps are the services the HTTP handlers call into.
type Deps struct {
	Service  *airquality.Service
	Verifier *verification.Service

	// RequestTimeout bounds every upstream-facing handler.
	RequestTimeout time.Duration
	// ExposeCodes returns verification codes in the response (dev only).
	ExposeCodes bool

	Logger *slog.Logger
	Now    func() time.Time
}

func (d *Deps) defaults() {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 20 * time.Second
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	deps.defaults()
	svc := deps.Service
	log := deps.Logger

	withTimeout := func(c *fiber.Ctx) (context.Context, context.CancelFunc) {
		return context.WithTimeout(c.UserContext(), deps.RequestTimeout)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  app.Config().AppName,
			"provider": svc.Aggregator().Source(),
		})
	})

	app.Get("/aqi", func(c *fiber.Ctx) error {
		ctx, cancel := withTimeout(c)
		defer cancel()

		res, err := svc.Aggregate(ctx, c.Query("type"))
		if err != nil {
			log.Error("aqi: aggregation failed", "scope", c.Query("type"), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "failed to fetch air quality data: " + err.Error(),
				"data":    []airquality.CityMeasurement{},
			})
		}
		return c.JSON(res)
	})

	aqi := app.Group("/aqi")

	aqi.Get("/scopes", func(c *fiber.Ctx) error {
		catalog := svc.Aggregator().Catalog()
		scopes := make([]fiber.Map, 0)
		for _, name := range catalog.Names() {
			scopes = append(scopes, fiber.Map{"name": name, "cities": catalog.Size(name)})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"default": catalog.Default(),
			"scopes":  scopes,
		})
	})

	aqi.Get("/classify", func(c *fiber.Ctx) error {
		var q classifyQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		cat := airquality.Classify(q.AQI)
		return c.JSON(fiber.Map{
			"success": true,
			"aqi":     q.AQI,
			"status":  cat,
			"color":   cat.Color(),
			"advice":  cat.Advice(q.Sensitive),
		})
	})

	aqi.Get("/cities/:city", func(c *fiber.Ctx) error {
		ctx, cancel := withTimeout(c)
		defer cancel()

		m, err := svc.City(ctx, c.Params("city"))
		if err != nil {
			return cityError(err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data":    m,
			"advice": fiber.Map{
				"general":   m.Category.Advice(false),
				"sensitive": m.Category.Advice(true),
			},
			"source": svc.Aggregator().Source(),
		})
	})

	aqi.Get("/cities/:city/forecast", func(c *fiber.Ctx) error {
		var q forecastQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := withTimeout(c)
		defer cancel()

		m, err := svc.City(ctx, c.Params("city"))
		if err != nil {
			return cityError(err)
		}

		now := deps.Now()
		f := airquality.NewForecaster(airquality.SeedFor(m.City.Key(), now))
		return c.JSON(fiber.Map{
			"success":      true,
			"city":         m.City.Name,
			"current":      m,
			"forecast":     f.Hourly(m.AQI, now.Truncate(time.Hour), q.Hours),
			"illustrative": true,
		})
	})

	aqi.Get("/cities/:city/history", func(c *fiber.Ctx) error {
		var q historyQuery
		if err := q.bind(c, deps.Now()); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		spec, snapshots, err := svc.History(c.Params("city"), q.From, q.To)
		if err != nil {
			switch {
			case errors.Is(err, airquality.ErrUnknownCity):
				return fiber.NewError(fiber.StatusNotFound, "unknown city")
			case errors.Is(err, store.ErrNotFound):
				return fiber.NewError(fiber.StatusNotFound, "no air quality history for requested range")
			case errors.Is(err, airquality.ErrHistoryDisabled):
				return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch air quality history")
		}

		return c.JSON(fiber.Map{
			"success":   true,
			"city":      spec,
			"from":      q.From,
			"to":        q.To,
			"snapshots": snapshots,
		})
	})

	app.Post("/chat", func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		req.Message = strings.TrimSpace(req.Message)
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "message is required")
		}

		var live *airquality.CityMeasurement
		if req.City != "" {
			ctx, cancel := withTimeout(c)
			defer cancel()
			if m, err := svc.City(ctx, req.City); err == nil {
				live = &m
			} else if snap, lerr := svc.Latest(req.City); lerr == nil {
				log.Debug("chat: using last recorded reading", "city", req.City, "recordedAt", snap.RecordedAt, "error", err)
				live = &snap.Measurement
			} else {
				log.Debug("chat: live reading unavailable", "city", req.City, "error", err)
			}
		}

		return c.JSON(chatResponse{
			Success: true,
			Reply:   assistant.Answer(req.Message, live),
		})
	})

	app.Post("/verify", func(c *fiber.Ctx) error {
		if deps.Verifier == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "verification is not configured")
		}

		var req verifyRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		key, channel, err := verification.Identifier(req.Email, req.Phone)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		switch req.Action {
		case "send":
			code, err := deps.Verifier.Send(key, channel)
			if err != nil {
				log.Error("verify: failed to issue code", "channel", channel, "error", err)
				return fiber.NewError(fiber.StatusInternalServerError, "failed to issue verification code")
			}
			resp := fiber.Map{
				"success":   true,
				"message":   "Verification code sent to your " + channel,
				"channel":   channel,
				"expiresIn": int(deps.Verifier.TTL().Seconds()),
			}
			if deps.ExposeCodes {
				resp["demoCode"] = code
			}
			return c.JSON(resp)

		default:
			if req.Code == "" {
				return fiber.NewError(fiber.StatusBadRequest, "code is required")
			}
			if err := deps.Verifier.Verify(key, req.Code); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return c.JSON(fiber.Map{
				"success": true,
				"message": "Verification successful",
			})
		}
	})
}

func cityError(err error) error {
	if errors.Is(err, airquality.ErrUnknownCity) {
		return fiber.NewError(fiber.StatusNotFound, "unknown city")
	}
	return fiber.NewError(fiber.StatusBadGateway, "no usable air quality reading for city")
}

// classifyQuery holds query parameters for the classify endpoint.
type classifyQuery struct {
	AQI       int
	Sensitive bool
}

func (q *classifyQuery) bind(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Query("aqi"))
	if raw == "" {
		return errors.New("aqi query parameter is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return errors.New("aqi must be a number")
	}
	aqi, ok := airquality.RoundAQI(v)
	if !ok {
		return errors.New("aqi must be a finite number within range")
	}
	q.AQI = aqi
	q.Sensitive = c.QueryBool("sensitive", false)
	return nil
}

// forecastQuery holds query parameters for the forecast endpoint.
type forecastQuery struct {
	Hours int `validate:"gte=1,lte=24"`
}

func (q *forecastQuery) bind(c *fiber.Ctx) error {
	q.Hours = 12
	if raw := c.Query("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New("hours must be an integer between 1 and 24")
		}
		q.Hours = n
	}
	if err := validate.Struct(q); err != nil {
		return errors.New("hours must be an integer between 1 and 24")
	}
	return nil
}

// historyQuery holds query parameters for the history endpoint.
// A missing range defaults to the 24 hours before now.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx, now time.Time) error {
	h.To = now
	if s := c.Query("to"); s != "" {
		to, err := parseTime(s)
		if err != nil {
			return err
		}
		h.To = to
	}

	h.From = h.To.Add(-24 * time.Hour)
	if s := c.Query("from"); s != "" {
		from, err := parseTime(s)
		if err != nil {
			return err
		}
		h.From = from
	}
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

type chatRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
	City    string `json:"city"`
}

type chatResponse struct {
	Success bool `json:"success"`
	assistant.Reply
}

type verifyRequest struct {
	Action string `json:"action" validate:"required,oneof=send verify"`
	Email  string `json:"email" validate:"omitempty,email"`
	Phone  string `json:"phone" validate:"omitempty,min=7,max=20"`
	Code   string `json:"code" validate:"omitempty,len=6,numeric"`
}
