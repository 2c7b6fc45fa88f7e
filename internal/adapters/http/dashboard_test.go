package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restartfu/truefan/internal/adapters/agentclient"
	"github.com/restartfu/truefan/internal/domain"
)

type fakeDashboard struct {
	status    domain.Status
	statusErr error
	setErr    error
	profile   domain.Profile
	pwmCalls  []int
}

func (f *fakeDashboard) Health() domain.Health {
	return domain.Health{Status: "ok", Time: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (f *fakeDashboard) Status(context.Context) (domain.Status, error) {
	return f.status, f.statusErr
}

func (f *fakeDashboard) SetPWM(_ context.Context, value int) (domain.SetPWMResult, error) {
	f.pwmCalls = append(f.pwmCalls, value)
	if f.setErr != nil {
		return domain.SetPWMResult{}, f.setErr
	}
	return domain.SetPWMResult{Status: "ok", PWM: value, Target: "/x/pwm1", AvailablePWMs: []string{"/x/pwm1"}}, nil
}

func (f *fakeDashboard) Profile() domain.Profile { return f.profile }

func (f *fakeDashboard) SetProfile(name domain.Profile) error {
	if f.setErr != nil {
		return f.setErr
	}
	if !name.Known() {
		return fmt.Errorf("%q: %w", name, domain.ErrUnknownProfile)
	}
	f.profile = name
	return nil
}

func newDashboardEcho(backend DashboardBackend) *echo.Echo {
	e := NewEcho("dashboard")
	NewDashboardServer(backend, nil).Register(e)
	return e
}

func TestDashboardServer_GetHealth(t *testing.T) {
	rec := serve(newDashboardEcho(&fakeDashboard{}), nethttp.MethodGet, "/health", "", "")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","time":"2026-01-02T03:04:05Z"}`, rec.Body.String())
}

func TestDashboardServer_GetStatus(t *testing.T) {
	status := domain.DefaultStatus()
	status.Mode = domain.ModeFullControl
	status.AgentAvailable = true
	status.Sensors = []domain.SensorReading{{Name: domain.SensorCPU, Value: 47.5}}

	rec := serve(newDashboardEcho(&fakeDashboard{status: status}), nethttp.MethodGet, "/api/status", "", "")
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var got domain.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.ModeFullControl, got.Mode)
	assert.Equal(t, []domain.SensorReading{{Name: domain.SensorCPU, Value: 47.5}}, got.Sensors)
}

func TestDashboardServer_GetStatus_FallsBackToDefaults(t *testing.T) {
	backend := &fakeDashboard{statusErr: context.Canceled}

	rec := serve(newDashboardEcho(backend), nethttp.MethodGet, "/api/status", "", "")
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.ModeMonitoringOnly, got["mode"])
	assert.Equal(t, false, got["agent_available"])
	sensors := got["sensors"].([]any)
	require.Len(t, sensors, 3)
	for _, sensor := range sensors {
		assert.Equal(t, true, sensor.(map[string]any)["default"])
	}
}

func TestDashboardServer_PostPWM(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{name: "applied", body: `{"pwm":180}`, wantCode: nethttp.StatusOK},
		{name: "missing pwm", body: `{}`, wantCode: nethttp.StatusBadRequest},
		{name: "read-only", body: `{"pwm":180}`, err: domain.ErrReadOnly, wantCode: nethttp.StatusForbidden},
		{name: "agent offline", body: `{"pwm":180}`, err: domain.ErrAgentOffline, wantCode: nethttp.StatusServiceUnavailable},
		{name: "invalid duty", body: `{"pwm":999}`, err: fmt.Errorf("999: %w", domain.ErrInvalidDuty), wantCode: nethttp.StatusBadRequest},
		{
			name: "agent rejected",
			body: `{"pwm":180}`,
			err: fmt.Errorf("set pwm 180: %w", &agentclient.RequestError{Result: agentclient.Result{
				StatusCode: 404,
				Error:      "HTTP 404",
				Data:       json.RawMessage(`{"status":"error","message":"No writable PWM files detected"}`),
			}}),
			wantCode: nethttp.StatusBadGateway,
		},
		{name: "unexpected", body: `{"pwm":180}`, err: errors.New("boom"), wantCode: nethttp.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeDashboard{setErr: tt.err}
			rec := serve(newDashboardEcho(backend), nethttp.MethodPost, "/api/pwm", "", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestDashboardServer_PostPWM_AgentRejectedMessage(t *testing.T) {
	backend := &fakeDashboard{setErr: &agentclient.RequestError{Result: agentclient.Result{
		StatusCode: 404,
		Error:      "HTTP 404",
		Data:       json.RawMessage(`{"status":"error","message":"No writable PWM files detected"}`),
	}}}

	rec := serve(newDashboardEcho(backend), nethttp.MethodPost, "/api/pwm", "", `{"pwm":10}`)
	assert.Equal(t, nethttp.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"No writable PWM files detected"}`, rec.Body.String())
}

func TestDashboardServer_Profile(t *testing.T) {
	backend := &fakeDashboard{profile: domain.ProfileCool}
	e := newDashboardEcho(backend)

	rec := serve(e, nethttp.MethodGet, "/api/profile", "", "")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"profile":"cool"}`, rec.Body.String())

	rec = serve(e, nethttp.MethodPost, "/api/profile", "", `{"profile":"quiet"}`)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","profile":"quiet"}`, rec.Body.String())
	assert.Equal(t, domain.ProfileQuiet, backend.profile)

	rec = serve(e, nethttp.MethodPost, "/api/profile", "", `{"profile":"turbo"}`)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	rec = serve(e, nethttp.MethodPost, "/api/profile", "", `{}`)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ProfileQuiet, backend.profile)
}

func TestDashboardServer_Profile_ReadOnly(t *testing.T) {
	backend := &fakeDashboard{profile: domain.ProfileCool, setErr: domain.ErrReadOnly}

	rec := serve(newDashboardEcho(backend), nethttp.MethodPost, "/api/profile", "", `{"profile":"aggressive"}`)
	assert.Equal(t, nethttp.StatusForbidden, rec.Code)
	assert.Equal(t, domain.ProfileCool, backend.profile)
}
