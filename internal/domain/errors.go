package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNoSensor         = errors.New("no matching sensor")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNoData           = errors.New("no data")
	ErrNoPWM            = errors.New("no writable PWM files detected")
	ErrWriteFailed      = errors.New("write failed")
	ErrInvalidDuty      = errors.New("pwm must be between 0 and 255")
	ErrUnknownProfile   = errors.New("unknown profile")
	ErrReadOnly         = errors.New("read-only mode; writes are disabled")
	ErrAgentOffline     = errors.New("control agent unavailable; monitoring-only mode")
	ErrAgentRejected    = errors.New("control agent rejected request")
)
