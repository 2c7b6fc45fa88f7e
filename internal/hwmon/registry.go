// Package hwmon reads temperature channels exposed under /sys/class/hwmon.
package hwmon

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/restartfu/truefan/internal/domain"
)

const DefaultRoot = "/sys/class/hwmon"

// Devices is the discovery result in directory order.
type Devices []domain.HwmonDevice

// Map returns the name -> path mapping.
func (d Devices) Map() map[string]string {
	return lo.SliceToMap(d, func(dev domain.HwmonDevice) (string, string) {
		return dev.Name, dev.Path
	})
}

// Discover lists the immediate subdirectories of root and keys each one by the
// lowercased content of its name file. Entries without a usable name are
// skipped. On a duplicate name the first directory in sorted order is kept.
func Discover(root string, logger *slog.Logger) (Devices, error) {
	if logger == nil {
		logger = slog.Default()
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("hwmon root %s: %w", root, domain.ErrNotFound)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read hwmon root %s: %w", root, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	devices := make(Devices, 0, len(entries))
	seen := make(map[string]string, len(entries))
	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		// hwmon entries are usually symlinks into /sys/devices.
		if stat, err := os.Stat(dir); err != nil || !stat.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, "name"))
		if err != nil {
			logger.Warn("skipping hwmon entry", "path", dir, "error", err)
			continue
		}
		name := strings.ToLower(strings.TrimSpace(string(data)))
		if name == "" {
			logger.Warn("skipping hwmon entry with empty name", "path", dir)
			continue
		}
		if kept, ok := seen[name]; ok {
			logger.Warn("duplicate hwmon name", "name", name, "kept", kept, "ignored", dir)
			continue
		}

		seen[name] = dir
		devices = append(devices, domain.HwmonDevice{Name: name, Path: dir})
		logger.Debug("discovered hwmon device", "name", name, "path", dir)
	}

	logger.Debug("hwmon discovery complete", "root", root, "devices", len(devices))
	return devices, nil
}
