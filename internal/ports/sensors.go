package ports

import (
	"context"

	"github.com/restartfu/truefan/internal/domain"
)

type TemperatureReader interface {
	Get(ctx context.Context, includeHDD bool) []domain.SensorReading
	SmartAvailable() bool
}

// FanReader returns fan speeds keyed by label.
type FanReader interface {
	FanRPMs() map[string]int
}

type SystemReader interface {
	ReadSystem(ctx context.Context) (domain.SystemInfo, error)
}

type ProfileStore interface {
	Load() domain.Profile
	Save(name domain.Profile) error
}
