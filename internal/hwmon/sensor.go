package hwmon

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/restartfu/truefan/internal/domain"
)

// Reader resolves logical sensors to hwmon devices under Root.
type Reader struct {
	Root   string
	logger *slog.Logger
}

func NewReader(root string, logger *slog.Logger) *Reader {
	if root == "" {
		root = DefaultRoot
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{Root: root, logger: logger}
}

// FindBestSensor returns the path of the first device whose name contains a
// keyword. Keywords are tried in the order given.
func (r *Reader) FindBestSensor(keywords []string) (string, error) {
	wanted := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if keyword = strings.ToLower(strings.TrimSpace(keyword)); keyword != "" {
			wanted = append(wanted, keyword)
		}
	}
	if len(wanted) == 0 {
		return "", errors.New("at least one sensor keyword is required")
	}

	devices, err := Discover(r.Root, r.logger)
	if err != nil {
		return "", err
	}
	for _, keyword := range wanted {
		for _, device := range devices {
			if strings.Contains(device.Name, keyword) {
				r.logger.Debug("matched hwmon keyword", "keyword", keyword, "path", device.Path)
				return device.Path, nil
			}
		}
	}
	return "", fmt.Errorf("keywords %v: %w", wanted, domain.ErrNoSensor)
}

// ReadTemperature reads a temperature in Celsius from hwmonPath. With a label
// keyword the matching tempN_label channel is required; without one temp1_input
// is preferred, then the first input in lexical order.
func (r *Reader) ReadTemperature(hwmonPath, label string) (float64, error) {
	if info, err := os.Stat(hwmonPath); err != nil || !info.IsDir() {
		return 0, fmt.Errorf("hwmon path %s: %w", hwmonPath, domain.ErrNotFound)
	}
	inputs, _ := filepath.Glob(filepath.Join(hwmonPath, "temp*_input"))
	if len(inputs) == 0 {
		return 0, fmt.Errorf("no temp inputs in %s: %w", hwmonPath, domain.ErrNotFound)
	}
	sort.Strings(inputs)

	var target string
	keyword := strings.ToLower(strings.TrimSpace(label))
	if keyword != "" {
		for _, input := range inputs {
			labelPath := strings.TrimSuffix(input, "_input") + "_label"
			data, err := os.ReadFile(labelPath)
			if err != nil {
				continue
			}
			if strings.Contains(strings.ToLower(strings.TrimSpace(string(data))), keyword) {
				target = input
				break
			}
		}
		if target == "" {
			return 0, fmt.Errorf("label %q in %s: %w", label, hwmonPath, domain.ErrNoSensor)
		}
	} else {
		target = inputs[0]
		preferred := filepath.Join(hwmonPath, "temp1_input")
		for _, input := range inputs {
			if input == preferred {
				target = preferred
				break
			}
		}
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", target, err)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", target, err)
	}
	celsius := normalizeTemp(value)
	r.logger.Debug("read hwmon temperature", "path", target, "celsius", celsius)
	return celsius, nil
}

// Temperature combines FindBestSensor and ReadTemperature.
func (r *Reader) Temperature(keywords []string, label string) (float64, error) {
	path, err := r.FindBestSensor(keywords)
	if err != nil {
		return 0, err
	}
	return r.ReadTemperature(path, label)
}

// normalizeTemp treats values above 500 as millidegrees.
func normalizeTemp(value float64) float64 {
	if value > 500 {
		return value / 1000
	}
	return value
}
