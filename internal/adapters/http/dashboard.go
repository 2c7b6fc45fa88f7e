package http

import (
	"context"
	"errors"
	"log/slog"
	nethttp "net/http"

	"github.com/labstack/echo/v4"

	"github.com/restartfu/truefan/internal/adapters/agentclient"
	"github.com/restartfu/truefan/internal/domain"
)

// DashboardBackend is the caller-side service behind the JSON API.
type DashboardBackend interface {
	Health() domain.Health
	Status(ctx context.Context) (domain.Status, error)
	SetPWM(ctx context.Context, value int) (domain.SetPWMResult, error)
	Profile() domain.Profile
	SetProfile(name domain.Profile) error
}

type setProfileRequest struct {
	Profile string `json:"profile"`
}

type profileResponse struct {
	Status  string         `json:"status,omitempty"`
	Profile domain.Profile `json:"profile"`
}

// DashboardServer serves the unprivileged JSON API consumed by the dashboard.
type DashboardServer struct {
	backend DashboardBackend
	logger  *slog.Logger
}

func NewDashboardServer(backend DashboardBackend, logger *slog.Logger) *DashboardServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardServer{
		backend: backend,
		logger:  logger,
	}
}

func (s *DashboardServer) Register(e *echo.Echo) {
	e.GET("/health", s.GetHealth)

	api := e.Group("/api")
	api.GET("/status", s.GetStatus)
	api.GET("/profile", s.GetProfile)

	limit := writeLimiter(2, 5)
	api.POST("/pwm", s.PostPWM, limit)
	api.POST("/profile", s.PostProfile, limit)
}

func (s *DashboardServer) GetHealth(ctx echo.Context) error {
	return ctx.JSON(nethttp.StatusOK, s.backend.Health())
}

func (s *DashboardServer) GetStatus(ctx echo.Context) error {
	status, err := s.backend.Status(ctx.Request().Context())
	if err != nil {
		s.logger.Warn("serving default status", "error", err)
		return ctx.JSON(nethttp.StatusOK, domain.DefaultStatus())
	}
	return ctx.JSON(nethttp.StatusOK, status)
}

func (s *DashboardServer) PostPWM(ctx echo.Context) error {
	var req setPWMRequest
	if err := ctx.Bind(&req); err != nil || req.PWM == nil {
		return ctx.JSON(nethttp.StatusBadRequest, errorBody("pwm is required"))
	}
	result, err := s.backend.SetPWM(ctx.Request().Context(), *req.PWM)
	if err != nil {
		return s.writeError(ctx, err)
	}
	return ctx.JSON(nethttp.StatusOK, result)
}

func (s *DashboardServer) GetProfile(ctx echo.Context) error {
	return ctx.JSON(nethttp.StatusOK, profileResponse{Profile: s.backend.Profile()})
}

func (s *DashboardServer) PostProfile(ctx echo.Context) error {
	var req setProfileRequest
	if err := ctx.Bind(&req); err != nil || req.Profile == "" {
		return ctx.JSON(nethttp.StatusBadRequest, errorBody("profile is required"))
	}
	name := domain.Profile(req.Profile)
	if err := s.backend.SetProfile(name); err != nil {
		return s.writeError(ctx, err)
	}
	return ctx.JSON(nethttp.StatusOK, profileResponse{Status: "ok", Profile: name})
}

func (s *DashboardServer) writeError(ctx echo.Context, err error) error {
	var reqErr *agentclient.RequestError
	switch {
	case errors.Is(err, domain.ErrReadOnly):
		return ctx.JSON(nethttp.StatusForbidden, errorBody(err.Error()))
	case errors.Is(err, domain.ErrInvalidDuty), errors.Is(err, domain.ErrUnknownProfile):
		return ctx.JSON(nethttp.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, domain.ErrAgentOffline):
		return ctx.JSON(nethttp.StatusServiceUnavailable, errorBody(domain.ErrAgentOffline.Error()))
	case errors.As(err, &reqErr):
		message := reqErr.Result.Message()
		if message == "" {
			message = reqErr.Result.Error
		}
		return ctx.JSON(nethttp.StatusBadGateway, errorBody(message))
	default:
		s.logger.Error("dashboard request failed", "path", ctx.Path(), "error", err)
		return ctx.JSON(nethttp.StatusInternalServerError, errorBody("internal error"))
	}
}
