package pwm

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/samber/lo"

	"github.com/restartfu/truefan/internal/domain"
)

const manualMode = "1"

// Writer applies duty values to PWM files chosen from a fresh discovery.
type Writer struct {
	locator *Locator
	logger  *slog.Logger
	// write replaces the content of an existing file.
	write func(path, value string) error
}

func NewWriter(locator *Locator, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		locator: locator,
		logger:  logger,
		write:   writeExisting,
	}
}

// Write sets value on the first of paths that is also in the current
// discovery, falling back to the first discovered file. It returns the file
// written, or ErrNoPWM without touching the filesystem when nothing is
// discovered.
func (w *Writer) Write(value int, paths []string) (string, error) {
	if value < 0 || value > 255 {
		return "", fmt.Errorf("%d: %w", value, domain.ErrInvalidDuty)
	}

	discovered := w.locator.Discover()
	if len(discovered) == 0 {
		return "", domain.ErrNoPWM
	}

	requested := lo.FilterMap(paths, func(path string, _ int) (string, bool) {
		return w.locator.Canonical(path)
	})
	target, ok := lo.Find(requested, func(path string) bool {
		return lo.Contains(discovered, path)
	})
	if !ok {
		target = discovered[0]
	}

	enable := target + "_enable"
	if info, err := os.Stat(enable); err == nil && info.Mode().IsRegular() {
		if err := w.write(enable, manualMode); err != nil {
			w.logger.Debug("failed to set manual PWM mode", "path", enable, "error", err)
		}
	}

	if err := w.write(target, strconv.Itoa(value)); err != nil {
		return "", fmt.Errorf("write %s: %w: %v", target, domain.ErrWriteFailed, err)
	}
	w.logger.Info("PWM applied", "path", target, "pwm", value)
	return target, nil
}

// writeExisting never creates files; sysfs attributes must already exist.
func writeExisting(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(value); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
