package hwmon

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FanRPMs reads every fan*_input under Root, keyed by its fanN_label or by
// "fanN". A key already taken by an earlier device is prefixed with the
// device name. Unreadable, non-numeric and negative inputs are skipped.
func (r *Reader) FanRPMs() map[string]int {
	rpms := make(map[string]int)
	devices, err := Discover(r.Root, r.logger)
	if err != nil {
		r.logger.Debug("fan discovery failed", "root", r.Root, "error", err)
		return rpms
	}

	for _, dev := range devices {
		inputs, err := filepath.Glob(filepath.Join(dev.Path, "fan*_input"))
		if err != nil {
			continue
		}
		sort.Strings(inputs)
		for _, input := range inputs {
			rpm, ok := readRPM(input)
			if !ok {
				r.logger.Debug("skipping fan input", "path", input)
				continue
			}
			key := fanLabel(input)
			if _, taken := rpms[key]; taken {
				key = dev.Name + " " + key
			}
			rpms[key] = rpm
		}
	}
	return rpms
}

func readRPM(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	rpm, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || rpm < 0 {
		return 0, false
	}
	return rpm, true
}

func fanLabel(input string) string {
	name := strings.TrimSuffix(filepath.Base(input), "_input")
	data, err := os.ReadFile(strings.TrimSuffix(input, "_input") + "_label")
	if err == nil {
		if label := strings.TrimSpace(string(data)); label != "" {
			return label
		}
	}
	return name
}
