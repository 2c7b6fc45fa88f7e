package app

import (
	"errors"
	"log/slog"

	"github.com/restartfu/truefan/internal/domain"
	"github.com/restartfu/truefan/internal/observability"
	"github.com/restartfu/truefan/internal/ports"
)

const (
	msgNoPWM     = "No writable PWM files detected"
	msgSetFailed = "Failed to set PWM"
)

// AgentService is the privileged side behind the bearer-authenticated
// boundary. It is the only code that writes PWM files.
type AgentService struct {
	pwm    ports.PWMController
	logger *slog.Logger
}

func NewAgentService(pwm ports.PWMController, logger *slog.Logger) *AgentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AgentService{pwm: pwm, logger: logger}
}

// Status always returns a complete body; unreadable parts stay empty.
func (a *AgentService) Status() domain.AgentStatus {
	status := domain.AgentStatus{
		AvailablePWMs: a.pwm.Discover(),
		HwmonMap:      map[string]string{},
	}
	if status.AvailablePWMs == nil {
		status.AvailablePWMs = []string{}
	}
	status.CurrentPWM = a.pwm.Current(status.AvailablePWMs)

	hwmonMap, err := a.pwm.HwmonMap()
	if err != nil {
		a.logger.Warn("failed to map hwmon devices", "error", err)
	} else if hwmonMap != nil {
		status.HwmonMap = hwmonMap
	}
	return status
}

// SetPWM writes value and describes the outcome in the agent's response
// shape. The error is ErrNoPWM, ErrInvalidDuty or ErrWriteFailed.
func (a *AgentService) SetPWM(value int) (domain.SetPWMResult, error) {
	available := a.pwm.Discover()
	if available == nil {
		available = []string{}
	}

	target, err := a.pwm.Write(value, available)
	switch {
	case err == nil:
		return domain.SetPWMResult{
			Status:        "ok",
			PWM:           value,
			Target:        target,
			AvailablePWMs: available,
		}, nil
	case errors.Is(err, domain.ErrNoPWM):
		a.logger.Warn("no writable PWM files", "pwm", value)
		return domain.SetPWMResult{
			Status:        "error",
			PWM:           value,
			Message:       msgNoPWM,
			AvailablePWMs: available,
		}, err
	case errors.Is(err, domain.ErrInvalidDuty):
		return domain.SetPWMResult{
			Status:        "error",
			PWM:           value,
			Message:       err.Error(),
			AvailablePWMs: available,
		}, err
	default:
		a.logger.Error("failed to set PWM", "pwm", value, "error", err)
		observability.CaptureError(err, map[string]string{
			"component": "agent",
			"operation": "set_pwm",
		}, map[string]interface{}{
			"pwm": value,
		})
		return domain.SetPWMResult{
			Status:        "error",
			PWM:           value,
			Message:       msgSetFailed,
			AvailablePWMs: available,
		}, err
	}
}
