package pwm

import (
	"log/slog"

	"github.com/restartfu/truefan/internal/hwmon"
)

// Controller bundles discovery, writes and reads for the privileged agent.
type Controller struct {
	hwmonRoot string
	locator   *Locator
	writer    *Writer
	logger    *slog.Logger
}

func NewController(hwmonRoot string, deviceRoots []string, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	locator := NewLocator(hwmonRoot, deviceRoots, logger)
	return &Controller{
		hwmonRoot: hwmonRoot,
		locator:   locator,
		writer:    NewWriter(locator, logger),
		logger:    logger,
	}
}

func (c *Controller) Discover() []string {
	return c.locator.Discover()
}

func (c *Controller) Write(value int, paths []string) (string, error) {
	return c.writer.Write(value, paths)
}

func (c *Controller) Current(paths []string) int {
	return ReadCurrent(paths, c.logger)
}

// HwmonMap returns the name -> directory map of the hwmon root.
func (c *Controller) HwmonMap() (map[string]string, error) {
	devices, err := hwmon.Discover(c.hwmonRoot, c.logger)
	if err != nil {
		return nil, err
	}
	return devices.Map(), nil
}
