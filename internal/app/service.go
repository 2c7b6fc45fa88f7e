package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/restartfu/truefan/internal/domain"
	"github.com/restartfu/truefan/internal/ports"
	"github.com/restartfu/truefan/internal/profile"
)

// Options carries the caller-side switches from config.
type Options struct {
	ReadOnly   bool
	IncludeHDD bool
	Logger     *slog.Logger
}

// Service is the unprivileged side: it reads sensors locally and asks the
// control agent for every PWM change.
type Service struct {
	sensors  ports.TemperatureReader
	fans     ports.FanReader
	system   ports.SystemReader
	profiles ports.ProfileStore
	agent    ports.ControlAgent
	health   ports.AgentHealth

	readOnly   bool
	includeHDD bool
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(
	sensors ports.TemperatureReader,
	fans ports.FanReader,
	system ports.SystemReader,
	profiles ports.ProfileStore,
	agent ports.ControlAgent,
	health ports.AgentHealth,
	opts Options,
) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sensors:    sensors,
		fans:       fans,
		system:     system,
		profiles:   profiles,
		agent:      agent,
		health:     health,
		readOnly:   opts.ReadOnly,
		includeHDD: opts.IncludeHDD,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) Health() domain.Health {
	return domain.Health{
		Status: "ok",
		Time:   s.now().UTC(),
	}
}

// Status builds the dashboard read model. Parts that cannot be read keep
// their defaults; only a cancelled context is reported as an error.
func (s *Service) Status(ctx context.Context) (domain.Status, error) {
	status := domain.DefaultStatus()
	if err := ctx.Err(); err != nil {
		return status, err
	}

	health := s.health.Get(ctx, false)
	status.Agent = health
	status.AgentAvailable = health.Online
	status.ReadOnly = s.readOnly
	status.PWMControlEnabled = health.Online && !s.readOnly
	if status.PWMControlEnabled {
		status.Mode = domain.ModeFullControl
	}

	status.Sensors = s.sensors.Get(ctx, s.includeHDD)
	status.Capabilities.SmartAvailable = s.sensors.SmartAvailable()

	status.Profile = s.profiles.Load()
	if temp, ok := cpuTemperature(status.Sensors); ok {
		duty := profile.Duty(temp, status.Profile)
		status.TargetPWM = &duty
	}

	if s.fans != nil {
		if rpms := s.fans.FanRPMs(); rpms != nil {
			status.Fan.RPMs = rpms
		}
	}

	if health.Online {
		fan, err := s.agent.Status(ctx)
		if err != nil {
			s.logger.Warn("failed to read agent status", "error", err)
		} else {
			status.Fan.CurrentPWM = fan.CurrentPWM
			if fan.AvailablePWMs != nil {
				status.Fan.AvailablePWMs = fan.AvailablePWMs
			}
		}
	}

	if s.system != nil {
		info, err := s.system.ReadSystem(ctx)
		if err != nil {
			s.logger.Debug("system facts incomplete", "error", err)
		}
		status.System = info
	}

	return status, ctx.Err()
}

// SetPWM forwards value to the agent. Read-only mode and an offline agent
// both refuse before any request is sent.
func (s *Service) SetPWM(ctx context.Context, value int) (domain.SetPWMResult, error) {
	if s.readOnly {
		return domain.SetPWMResult{}, domain.ErrReadOnly
	}
	if value < 0 || value > 255 {
		return domain.SetPWMResult{}, fmt.Errorf("%d: %w", value, domain.ErrInvalidDuty)
	}
	if health := s.health.Get(ctx, false); !health.Online {
		return domain.SetPWMResult{}, domain.ErrAgentOffline
	}

	result, err := s.agent.SetPWM(ctx, value)
	if err != nil {
		return result, fmt.Errorf("set pwm %d: %w", value, err)
	}
	return result, nil
}

func (s *Service) Profile() domain.Profile {
	return s.profiles.Load()
}

func (s *Service) SetProfile(name domain.Profile) error {
	if s.readOnly {
		return domain.ErrReadOnly
	}
	if !name.Known() {
		return fmt.Errorf("%q: %w", name, domain.ErrUnknownProfile)
	}
	return s.profiles.Save(name)
}

func cpuTemperature(readings []domain.SensorReading) (float64, bool) {
	for _, reading := range readings {
		if reading.Name == domain.SensorCPU && !reading.Default {
			return reading.Value, true
		}
	}
	return 0, false
}
