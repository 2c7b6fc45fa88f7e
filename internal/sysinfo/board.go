package sysinfo

import (
	"os"
	"path/filepath"
	"strings"
)

// board returns "<vendor> <name>" from the DMI board attributes, or "" when
// firmware left them as placeholders.
func (r *Reader) board() string {
	vendor := readDMIFile(filepath.Join(r.DMIRoot, "board_vendor"))
	name := readDMIFile(filepath.Join(r.DMIRoot, "board_name"))
	if !isUsefulDMIValue(vendor) && !isUsefulDMIValue(name) {
		return ""
	}
	return strings.Join(strings.Fields(vendor+" "+name), " ")
}

func readDMIFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func isUsefulDMIValue(value string) bool {
	if value == "" {
		return false
	}
	lower := strings.ToLower(value)
	return lower != "unknown" && lower != "default string" && !strings.Contains(lower, "to be filled")
}
