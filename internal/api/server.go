package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/alexanderramin/dealboard/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// Services are the use cases the API exposes.
type Services struct {
	Pipelines service.PipelineService
	Deals     service.DealService
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer returns an echo instance with every route registered. Routes
// under /api require a bearer token accepted by auth.
func NewServer(svc Services, auth Authenticator, logger logrus.FieldLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(requestLogger(logger))

	Register(e, svc, auth)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, svc Services, auth Authenticator) {
	e.GET("/healthz", healthz)

	g := e.Group("/api", RequireAuth(auth))
	g.GET("/pipelines", listPipelines(svc.Pipelines))
	g.POST("/pipelines", createPipeline(svc.Pipelines))
	g.GET("/pipelines/:id", getPipeline(svc.Pipelines))
	g.GET("/deals", listDeals(svc.Deals))
	g.POST("/deals", createDeal(svc.Deals))
	g.GET("/deals/:id", getDeal(svc.Deals))
	g.PUT("/deals/:id", putDeal(svc.Deals))
	g.PATCH("/deals/:id", patchDeal(svc.Deals))
}

// errorHandler renders every error as {"error": msg}. Domain errors map to
// 404 and 400; anything else is a 500 and gets logged.
func errorHandler(logger logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := err.Error()

		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		case errors.Is(err, domain.ErrNotFound):
			code = http.StatusNotFound
		case domain.IsValidation(err):
			code = http.StatusBadRequest
		default:
			logger.WithError(err).WithField("path", c.Path()).Error("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, ErrorResponse{Error: msg})
		}
		if err != nil {
			logger.WithError(err).Warn("writing error response")
		}
	}
}

func requestLogger(logger logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			logger.WithFields(logrus.Fields{
				"method":      c.Request().Method,
				"path":        c.Path(),
				"status":      c.Response().Status,
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
				"user_id":     UserID(c),
			}).Debug("request")
			return nil
		}
	}
}
