package http

import (
	"errors"
	"log/slog"
	nethttp "net/http"

	"github.com/labstack/echo/v4"

	"github.com/restartfu/truefan/internal/domain"
)

// PWMBackend is what the agent routes need from the privileged service.
type PWMBackend interface {
	Status() domain.AgentStatus
	SetPWM(value int) (domain.SetPWMResult, error)
}

const (
	msgNoPWM     = "No writable PWM files detected"
	msgSetFailed = "Failed to set PWM"
)

type setPWMRequest struct {
	PWM *int `json:"pwm"`
}

// AgentServer serves the privileged control boundary.
type AgentServer struct {
	backend PWMBackend
	secret  string
	logger  *slog.Logger
}

func NewAgentServer(backend PWMBackend, secret string, logger *slog.Logger) *AgentServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AgentServer{
		backend: backend,
		secret:  secret,
		logger:  logger,
	}
}

func (s *AgentServer) Register(e *echo.Echo) {
	auth := BearerAuth(s.secret)
	e.GET("/status", s.GetStatus, auth)
	e.POST("/set_pwm", s.PostSetPWM, auth, writeLimiter(5, 10))
}

func (s *AgentServer) GetStatus(ctx echo.Context) error {
	return ctx.JSON(nethttp.StatusOK, s.backend.Status())
}

func (s *AgentServer) PostSetPWM(ctx echo.Context) error {
	var req setPWMRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(nethttp.StatusUnprocessableEntity, errorBody("invalid request body"))
	}
	if req.PWM == nil {
		return ctx.JSON(nethttp.StatusUnprocessableEntity, errorBody("pwm is required"))
	}
	if *req.PWM < 0 || *req.PWM > 255 {
		return ctx.JSON(nethttp.StatusUnprocessableEntity, errorBody(domain.ErrInvalidDuty.Error()))
	}

	result, err := s.backend.SetPWM(*req.PWM)
	switch {
	case err == nil:
		return ctx.JSON(nethttp.StatusOK, result)
	case errors.Is(err, domain.ErrNoPWM):
		return ctx.JSON(nethttp.StatusNotFound, failedResult(result, *req.PWM, msgNoPWM))
	case errors.Is(err, domain.ErrInvalidDuty):
		return ctx.JSON(nethttp.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		s.logger.Error("set_pwm failed", "pwm", *req.PWM, "error", err)
		return ctx.JSON(nethttp.StatusInternalServerError, failedResult(result, *req.PWM, msgSetFailed))
	}
}

// failedResult fills the error shape shared by every set_pwm failure.
func failedResult(result domain.SetPWMResult, pwm int, message string) domain.SetPWMResult {
	result.Status = "error"
	result.PWM = pwm
	result.Target = ""
	if result.Message == "" {
		result.Message = message
	}
	if result.AvailablePWMs == nil {
		result.AvailablePWMs = []string{}
	}
	return result
}
