package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/restartfu/truefan/internal/domain"
	"github.com/restartfu/truefan/internal/observability"
	"github.com/restartfu/truefan/internal/profile"
)

const DefaultInterval = 5 * time.Second

// ControlOnce reads the CPU temperature, resolves the active profile's duty
// and applies it. Without a CPU reading nothing is written and ErrNoSensor is
// returned.
func (s *Service) ControlOnce(ctx context.Context) (domain.ControlDecision, error) {
	decision := domain.ControlDecision{
		Profile: s.profiles.Load(),
		Time:    s.now().UTC(),
	}

	temp, ok := cpuTemperature(s.sensors.Get(ctx, false))
	if !ok {
		return decision, fmt.Errorf("cpu: %w", domain.ErrNoSensor)
	}
	decision.CPUTemp = temp
	decision.PWM = profile.Duty(temp, decision.Profile)

	if _, err := s.SetPWM(ctx, decision.PWM); err != nil {
		return decision, err
	}
	decision.Applied = true
	return decision, nil
}

// Run repeats ControlOnce every interval until ctx is done. Failed ticks are
// logged and the loop carries on.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s.logger.Info("control loop started", "interval", interval)
	for {
		decision, err := s.ControlOnce(ctx)
		switch {
		case err == nil:
			s.logger.Info("control tick", "profile", decision.Profile, "cpu_temp", decision.CPUTemp, "pwm", decision.PWM)
		case errors.Is(err, domain.ErrNoSensor):
			s.logger.Warn("control tick skipped, no cpu reading")
		case errors.Is(err, domain.ErrReadOnly), errors.Is(err, domain.ErrAgentOffline):
			s.logger.Warn("control tick not applied", "pwm", decision.PWM, "error", err)
		default:
			s.logger.Error("control tick failed", "pwm", decision.PWM, "error", err)
			observability.CaptureError(err, map[string]string{
				"component": "control",
				"operation": "control_once",
			}, map[string]interface{}{
				"profile":  string(decision.Profile),
				"cpu_temp": decision.CPUTemp,
				"pwm":      decision.PWM,
			})
		}

		if !sleepWithContext(ctx, interval) {
			s.logger.Info("control loop stopped")
			return
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
