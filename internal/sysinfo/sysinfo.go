// Package sysinfo reads host facts shown next to sensor readings.
package sysinfo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

type Info struct {
	Hostname string
	CPUModel string
	Board    string
	Cores    int
	Threads  int
	Uptime   time.Duration
	Load1    float64
	Load5    float64
	Load15   float64
}

// Reader reads from a procfs mount and the DMI id directory.
type Reader struct {
	ProcRoot string
	DMIRoot  string
}

func NewReader() *Reader {
	return &Reader{
		ProcRoot: "/proc",
		DMIRoot:  "/sys/devices/virtual/dmi/id",
	}
}

// Read collects what is available. Missing pieces are left zero; the error
// reports the first piece that could not be read.
func (r *Reader) Read() (Info, error) {
	info := Info{Threads: runtime.NumCPU()}
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if host, err := os.Hostname(); err == nil {
		info.Hostname = host
	}
	info.Board = r.board()

	if model, cores, err := r.cpuInfo(); err != nil {
		keep(err)
	} else {
		info.CPUModel = model
		info.Cores = cores
	}

	if uptime, err := r.uptime(); err != nil {
		keep(err)
	} else {
		info.Uptime = uptime
	}

	if load, err := r.loadAvg(); err != nil {
		keep(err)
	} else {
		info.Load1, info.Load5, info.Load15 = load[0], load[1], load[2]
	}

	return info, firstErr
}

func (r *Reader) cpuInfo() (string, int, error) {
	file, err := os.Open(filepath.Join(r.ProcRoot, "cpuinfo"))
	if err != nil {
		return "", 0, fmt.Errorf("failed to open cpuinfo: %w", err)
	}
	defer file.Close()

	info, err := readFirstCPUInfoBlock(file)
	if err != nil {
		return "", 0, err
	}
	model := info["model name"]
	if model == "" {
		// ARM kernels have no model name line.
		model = info["Hardware"]
	}
	return model, parseInt(info["cpu cores"]), nil
}

func readFirstCPUInfoBlock(r io.Reader) (map[string]string, error) {
	info := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if key = strings.TrimSpace(key); key != "" {
			info[key] = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading cpuinfo: %w", err)
	}
	return info, nil
}

func (r *Reader) uptime() (time.Duration, error) {
	fields, err := r.fields("uptime", 1)
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("parse uptime: %w", err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func (r *Reader) loadAvg() ([3]float64, error) {
	var load [3]float64
	fields, err := r.fields("loadavg", 3)
	if err != nil {
		return load, err
	}
	for i := range load {
		value, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return load, fmt.Errorf("parse loadavg: %w", err)
		}
		load[i] = value
	}
	return load, nil
}

func (r *Reader) fields(name string, want int) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(r.ProcRoot, name))
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(string(data))
	if len(fields) < want {
		return nil, fmt.Errorf("%s: expected %d fields, got %d", name, want, len(fields))
	}
	return fields, nil
}

func parseInt(value string) int {
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(strings.Fields(value)[0])
	if err != nil {
		return 0
	}
	return parsed
}

// FormatUptime renders d as "<h>h <m>m".
func FormatUptime(d time.Duration) string {
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
