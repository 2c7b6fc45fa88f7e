package http

import (
	nethttp "net/http"
	"time"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/restartfu/truefan/internal/observability"
)

const accessLogFormat = `{"time":"${time_rfc3339}","request_id":"${header:X-Request-ID}","remote_ip":"${remote_ip}","host":"${host}","method":"${method}","uri":"${uri}","status":${status},"latency":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out},"user_agent":"${user_agent}","error":"${error}"}` + "\n"

// NewEcho returns an echo instance with the middleware chain shared by the
// agent and the dashboard: request ids, sentry, JSON access log, recovery and
// error capture tagged with component.
func NewEcho(component string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator:    uuid.NewString,
		TargetHeader: echo.HeaderXRequestID,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Request().Header.Set(echo.HeaderXRequestID, id)
		},
	}))
	if observability.Enabled() {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: accessLogFormat,
	}))
	e.Use(middleware.Recover())
	e.Use(captureErrors(component))
	return e
}

func captureErrors(component string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil {
				observability.CaptureError(err, map[string]string{
					"component": component,
					"route":     c.Path(),
				}, map[string]interface{}{
					"method": c.Request().Method,
					"uri":    c.Request().RequestURI,
				})
			}
			return err
		}
	}
}

// writeLimiter caps mutating requests per client IP.
func writeLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(nethttp.StatusTooManyRequests, errorBody("Too many requests"))
		},
	})
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorBody(message string) errorResponse {
	return errorResponse{Status: "error", Message: message}
}
