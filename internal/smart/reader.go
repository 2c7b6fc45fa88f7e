// Package smart reads drive temperatures from smartctl's JSON output.
package smart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/restartfu/truefan/internal/domain"
)

const (
	DefaultBinary  = "smartctl"
	DefaultTimeout = 3 * time.Second
)

var temperatureAttributes = map[string]struct{}{
	"temperature_celsius":     {},
	"temperature_case":        {},
	"temperature_internal":    {},
	"airflow_temperature_cel": {},
}

// Runner executes a command and returns its stdout and stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

type Config struct {
	Binary  string
	Timeout time.Duration
	Runner  Runner
}

// Reader invokes smartctl per device. Once a device reports permission denied
// it is not invoked again for the lifetime of the Reader.
type Reader struct {
	binary  string
	timeout time.Duration
	runner  Runner
	logger  *slog.Logger

	mu     sync.Mutex
	denied map[string]bool
	warned bool
}

func NewReader(cfg Config, logger *slog.Logger) *Reader {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Runner == nil {
		cfg.Runner = execRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		binary:  cfg.Binary,
		timeout: cfg.Timeout,
		runner:  cfg.Runner,
		logger:  logger,
		denied:  make(map[string]bool),
	}
}

// Available reports false once any device has been denied.
func (r *Reader) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.denied) == 0
}

// ReadTemperature returns the device temperature in Celsius. Failures are
// reported as ErrPermissionDenied or ErrNoData.
func (r *Reader) ReadTemperature(ctx context.Context, device string) (float64, error) {
	if r.isDenied(device) {
		return 0, fmt.Errorf("smartctl %s: %w", device, domain.ErrPermissionDenied)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	stdout, stderr, err := r.runner.Run(ctx, r.binary, "--json", "-A", device)
	if errors.Is(err, exec.ErrNotFound) {
		r.logger.Warn("smartctl binary not found", "device", device)
		return 0, fmt.Errorf("smartctl %s: %w", device, domain.ErrNoData)
	}
	if ctx.Err() != nil {
		r.logger.Warn("smartctl timed out", "device", device, "timeout", r.timeout)
		return 0, fmt.Errorf("smartctl %s: %w", device, domain.ErrNoData)
	}

	if isPermissionDenied(stdout, stderr) {
		r.markDenied(device, strings.TrimSpace(string(stderr)))
		return 0, fmt.Errorf("smartctl %s: %w", device, domain.ErrPermissionDenied)
	}

	// smartctl encodes drive health in its exit status bits, so a non-zero
	// exit can still carry a usable report.
	if len(stdout) == 0 {
		r.logger.Warn("smartctl produced no output", "device", device, "error", err)
		return 0, fmt.Errorf("smartctl %s: %w", device, domain.ErrNoData)
	}

	report, ok := parseReport(stdout)
	if !ok {
		r.logger.Warn("invalid smartctl JSON", "device", device)
		return 0, fmt.Errorf("smartctl %s: %w", device, domain.ErrNoData)
	}
	temp, ok := report.temperature()
	if !ok {
		r.logger.Info("temperature unavailable", "device", device, "shape", report.shape)
		return 0, fmt.Errorf("smartctl %s: %w", device, domain.ErrNoData)
	}
	return temp, nil
}

func (r *Reader) isDenied(device string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.denied[device]
}

func (r *Reader) markDenied(device, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.denied[device] = true
	if r.warned {
		return
	}
	r.warned = true
	if detail == "" {
		detail = "permission denied"
	}
	r.logger.Warn("SMART permission denied", "device", device, "detail", detail)
}

func isPermissionDenied(stdout, stderr []byte) bool {
	if strings.Contains(strings.ToLower(string(stderr)), "permission denied") {
		return true
	}
	if !gjson.ValidBytes(stdout) {
		return false
	}
	for _, msg := range gjson.GetBytes(stdout, "smartctl.messages").Array() {
		if strings.Contains(strings.ToLower(msg.Get("string").String()), "permission denied") {
			return true
		}
	}
	return false
}

type shape int

const (
	shapeUnrecognized shape = iota
	// shapeCurrent carries a top-level temperature.current field (NVMe logs,
	// and most ATA drives on recent smartctl).
	shapeCurrent
	// shapeAttributeTable only carries ata_smart_attributes.table.
	shapeAttributeTable
)

func (s shape) String() string {
	switch s {
	case shapeCurrent:
		return "temperature.current"
	case shapeAttributeTable:
		return "ata_smart_attributes"
	default:
		return "unrecognized"
	}
}

type report struct {
	shape   shape
	current gjson.Result
	table   []gjson.Result
}

func parseReport(data []byte) (report, bool) {
	if !gjson.ValidBytes(data) {
		return report{}, false
	}
	res := gjson.ParseBytes(data)
	rep := report{
		current: res.Get("temperature.current"),
		table:   res.Get("ata_smart_attributes.table").Array(),
	}
	switch {
	case rep.current.Exists():
		rep.shape = shapeCurrent
	case len(rep.table) > 0:
		rep.shape = shapeAttributeTable
	}
	return rep, true
}

func (r report) temperature() (float64, bool) {
	switch r.shape {
	case shapeCurrent:
		if v, ok := number(r.current); ok {
			return v, true
		}
		return attributeTemperature(r.table)
	case shapeAttributeTable:
		return attributeTemperature(r.table)
	default:
		return 0, false
	}
}

func attributeTemperature(table []gjson.Result) (float64, bool) {
	for _, attr := range table {
		if !attr.IsObject() {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(attr.Get("name").String()))
		if _, ok := temperatureAttributes[name]; !ok && !strings.Contains(name, "temp") {
			continue
		}
		if raw := attr.Get("raw"); raw.IsObject() {
			if v, ok := number(raw.Get("value")); ok {
				return v, true
			}
		}
		if v, ok := number(attr.Get("value")); ok {
			return v, true
		}
	}
	return 0, false
}

func number(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Float(), true
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
