package ports

import (
	"context"

	"github.com/restartfu/truefan/internal/domain"
)

// ControlAgent is the caller's view of the privileged agent.
type ControlAgent interface {
	Status(ctx context.Context) (domain.AgentStatus, error)
	SetPWM(ctx context.Context, pwm int) (domain.SetPWMResult, error)
}

// AgentHealth reports the cached reachability of the agent.
type AgentHealth interface {
	Get(ctx context.Context, force bool) domain.AgentHealth
}

// PWMController is the privileged side: discovery and writes on this host.
type PWMController interface {
	Discover() []string
	Write(value int, paths []string) (string, error)
	Current(paths []string) int
	HwmonMap() (map[string]string, error)
}
