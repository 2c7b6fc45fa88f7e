// Package temperature combines hwmon and SMART sources into named readings.
package temperature

import (
	"context"
	"log/slog"

	"github.com/restartfu/truefan/internal/domain"
)

type HwmonSource interface {
	Temperature(keywords []string, label string) (float64, error)
}

type SmartSource interface {
	ReadTemperature(ctx context.Context, device string) (float64, error)
	Available() bool
}

// Sensor describes the fallback chain for one logical sensor. Empty Label or
// Device skips that step.
type Sensor struct {
	Name     string
	Keywords []string
	Label    string
	Device   string
}

type Devices struct {
	NVMe string
	HDD  string
}

// DefaultSensors returns the cpu, nvme and hdd chains in reporting order.
func DefaultSensors(devices Devices) []Sensor {
	if devices.NVMe == "" {
		devices.NVMe = "/dev/nvme0"
	}
	if devices.HDD == "" {
		devices.HDD = "/dev/sda"
	}
	return []Sensor{
		{Name: domain.SensorCPU, Keywords: []string{"coretemp", "k10temp", "cpu"}, Label: "package"},
		{Name: domain.SensorNVMe, Keywords: []string{"nvme"}, Label: "composite", Device: devices.NVMe},
		{Name: domain.SensorHDD, Keywords: []string{"drivetemp", "hdd", "ata"}, Device: devices.HDD},
	}
}

type Aggregator struct {
	hwmon   HwmonSource
	smart   SmartSource
	sensors []Sensor
	logger  *slog.Logger
}

func NewAggregator(hwmon HwmonSource, smart SmartSource, sensors []Sensor, logger *slog.Logger) *Aggregator {
	if sensors == nil {
		sensors = DefaultSensors(Devices{})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		hwmon:   hwmon,
		smart:   smart,
		sensors: sensors,
		logger:  logger,
	}
}

// Get returns one reading per sensor that produced a value. The hdd sensor is
// only queried when includeHDD is set.
func (a *Aggregator) Get(ctx context.Context, includeHDD bool) []domain.SensorReading {
	readings := make([]domain.SensorReading, 0, len(a.sensors))
	for _, sensor := range a.sensors {
		if sensor.Name == domain.SensorHDD && !includeHDD {
			continue
		}
		value, ok := a.read(ctx, sensor)
		if !ok {
			a.logger.Warn("skipping sensor: no valid temperature", "sensor", sensor.Name)
			continue
		}
		readings = append(readings, domain.SensorReading{Name: sensor.Name, Value: value})
	}
	return readings
}

// SmartAvailable reports whether SMART access has not been denied.
func (a *Aggregator) SmartAvailable() bool {
	if a.smart == nil {
		return false
	}
	return a.smart.Available()
}

func (a *Aggregator) read(ctx context.Context, sensor Sensor) (float64, bool) {
	if a.hwmon != nil {
		if sensor.Label != "" {
			value, err := a.hwmon.Temperature(sensor.Keywords, sensor.Label)
			if err == nil {
				return value, true
			}
			a.logger.Debug("labeled hwmon read failed", "sensor", sensor.Name, "label", sensor.Label, "error", err)
		}
		value, err := a.hwmon.Temperature(sensor.Keywords, "")
		if err == nil {
			return value, true
		}
		a.logger.Debug("hwmon read failed", "sensor", sensor.Name, "error", err)
	}

	if sensor.Device == "" || a.smart == nil {
		return 0, false
	}
	value, err := a.smart.ReadTemperature(ctx, sensor.Device)
	if err != nil {
		a.logger.Debug("smartctl read failed", "sensor", sensor.Name, "device", sensor.Device, "error", err)
		return 0, false
	}
	return value, true
}
