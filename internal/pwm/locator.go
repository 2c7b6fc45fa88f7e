// Package pwm discovers and writes hwmon PWM control files.
package pwm

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	basenamePattern = regexp.MustCompile(`^pwm[0-9]+$`)
	hwmonDirPattern = regexp.MustCompile(`^hwmon[0-9]+$`)
)

// Locator finds PWM files under Root. A candidate is accepted only when its
// canonical path is a regular file named pwmN inside the canonical Root, or
// inside one of DeviceRoots with a parent directory named hwmonN.
// DeviceRoots exists because /sys/class/hwmon entries are symlinks into
// /sys/devices on stock kernels.
type Locator struct {
	Root        string
	DeviceRoots []string
	logger      *slog.Logger
}

func NewLocator(root string, deviceRoots []string, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{Root: root, DeviceRoots: deviceRoots, logger: logger}
}

// Discover returns the canonical paths of every valid PWM file in sorted
// order. It never fails; invalid candidates are dropped.
func (l *Locator) Discover() []string {
	matches, err := filepath.Glob(filepath.Join(l.Root, "hwmon*", "pwm[0-9]*"))
	if err != nil {
		l.logger.Error("failed to discover PWM files", "root", l.Root, "error", err)
		return []string{}
	}
	sort.Strings(matches)

	root, devices := l.canonicalRoots()
	found := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, match := range matches {
		if strings.Contains(match, "_enable") {
			continue
		}
		canonical, ok := validate(match, root, devices)
		if !ok {
			l.logger.Debug("rejected PWM candidate", "path", match)
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		found = append(found, canonical)
	}
	return found
}

// Canonical resolves path the same way Discover does and reports whether it
// would be accepted.
func (l *Locator) Canonical(path string) (string, bool) {
	root, devices := l.canonicalRoots()
	return validate(path, root, devices)
}

// canonicalRoots resolves Root and DeviceRoots. Unresolvable entries come
// back empty or are dropped.
func (l *Locator) canonicalRoots() (string, []string) {
	var root string
	if l.Root != "" {
		if canonical, err := canonicalize(l.Root); err == nil {
			root = canonical
		}
	}
	devices := make([]string, 0, len(l.DeviceRoots))
	for _, dir := range l.DeviceRoots {
		if dir == "" {
			continue
		}
		if canonical, err := canonicalize(dir); err == nil {
			devices = append(devices, canonical)
		}
	}
	return root, devices
}

func validate(path, root string, devices []string) (string, bool) {
	canonical, err := canonicalize(path)
	if err != nil {
		return "", false
	}
	if !basenamePattern.MatchString(filepath.Base(canonical)) {
		return "", false
	}
	if !within(canonical, root) && !withinDevice(canonical, devices) {
		return "", false
	}
	info, err := os.Stat(canonical)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return canonical, true
}

func within(path, root string) bool {
	return root != "" && strings.HasPrefix(path, root+string(filepath.Separator))
}

// withinDevice only trusts files that sit directly in a hwmonN directory.
func withinDevice(path string, devices []string) bool {
	if !hwmonDirPattern.MatchString(filepath.Base(filepath.Dir(path))) {
		return false
	}
	for _, dir := range devices {
		if within(path, dir) {
			return true
		}
	}
	return false
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// ReadCurrent returns the first readable value among paths, or 0.
func ReadCurrent(paths []string, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("failed reading PWM value", "path", path, "error", err)
			continue
		}
		value, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			logger.Warn("invalid PWM value", "path", path, "error", err)
			continue
		}
		return value
	}
	return 0
}
