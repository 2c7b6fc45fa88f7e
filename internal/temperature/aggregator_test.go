package temperature

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restartfu/truefan/internal/domain"
	"github.com/restartfu/truefan/internal/hwmon"
)

type hwmonCall struct {
	keyword string
	label   string
}

// fakeHwmon answers by first keyword and label.
type fakeHwmon struct {
	values map[hwmonCall]float64
	calls  []hwmonCall
}

func (f *fakeHwmon) Temperature(keywords []string, label string) (float64, error) {
	call := hwmonCall{keyword: keywords[0], label: label}
	f.calls = append(f.calls, call)
	if v, ok := f.values[call]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%s: %w", call.keyword, domain.ErrNoSensor)
}

type fakeSmart struct {
	values  map[string]float64
	denied  map[string]bool
	devices []string
}

func (f *fakeSmart) ReadTemperature(_ context.Context, device string) (float64, error) {
	f.devices = append(f.devices, device)
	if f.denied[device] {
		return 0, domain.ErrPermissionDenied
	}
	if v, ok := f.values[device]; ok {
		return v, nil
	}
	return 0, domain.ErrNoData
}

func (f *fakeSmart) Available() bool { return len(f.denied) == 0 }

func TestAggregator_Get(t *testing.T) {
	tests := map[string]struct {
		hwmon      map[hwmonCall]float64
		smart      map[string]float64
		denied     map[string]bool
		includeHDD bool
		want       []domain.SensorReading
	}{
		"labeled hwmon wins": {
			hwmon: map[hwmonCall]float64{
				{"coretemp", "package"}: 55,
				{"coretemp", ""}:        40,
				{"nvme", "composite"}:   38,
			},
			want: []domain.SensorReading{{Name: "cpu", Value: 55}, {Name: "nvme", Value: 38}},
		},
		"unlabeled hwmon fallback": {
			hwmon: map[hwmonCall]float64{
				{"coretemp", ""}: 47,
				{"nvme", ""}:     36,
			},
			want: []domain.SensorReading{{Name: "cpu", Value: 47}, {Name: "nvme", Value: 36}},
		},
		"smartctl fallback": {
			smart:      map[string]float64{"/dev/nvme0": 44, "/dev/sda": 31},
			includeHDD: true,
			want:       []domain.SensorReading{{Name: "nvme", Value: 44}, {Name: "hdd", Value: 31}},
		},
		"hdd excluded by default": {
			hwmon: map[hwmonCall]float64{{"drivetemp", ""}: 30},
			smart: map[string]float64{"/dev/sda": 31},
			want:  []domain.SensorReading{},
		},
		"hdd omitted when every source fails": {
			hwmon:      map[hwmonCall]float64{{"coretemp", "package"}: 60},
			includeHDD: true,
			want:       []domain.SensorReading{{Name: "cpu", Value: 60}},
		},
		"denied smartctl is no reading": {
			denied:     map[string]bool{"/dev/nvme0": true, "/dev/sda": true},
			includeHDD: true,
			want:       []domain.SensorReading{},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			agg := NewAggregator(
				&fakeHwmon{values: test.hwmon},
				&fakeSmart{values: test.smart, denied: test.denied},
				nil,
				nil,
			)
			assert.Equal(t, test.want, agg.Get(context.Background(), test.includeHDD))
		})
	}
}

func TestAggregator_Get_NeverReturnsHDDWhenExcluded(t *testing.T) {
	smart := &fakeSmart{values: map[string]float64{"/dev/sda": 33}}
	hw := &fakeHwmon{values: map[hwmonCall]float64{{"drivetemp", ""}: 30}}
	agg := NewAggregator(hw, smart, nil, nil)

	for _, reading := range agg.Get(context.Background(), false) {
		assert.NotEqual(t, domain.SensorHDD, reading.Name)
	}
	for _, call := range hw.calls {
		assert.NotEqual(t, "drivetemp", call.keyword)
	}
	assert.NotContains(t, smart.devices, "/dev/sda")
}

func TestAggregator_Get_FallbackOrder(t *testing.T) {
	hw := &fakeHwmon{}
	smart := &fakeSmart{}
	agg := NewAggregator(hw, smart, []Sensor{
		{Name: "nvme", Keywords: []string{"nvme"}, Label: "composite", Device: "/dev/nvme1"},
	}, nil)

	assert.Empty(t, agg.Get(context.Background(), false))
	assert.Equal(t, []hwmonCall{{"nvme", "composite"}, {"nvme", ""}}, hw.calls)
	assert.Equal(t, []string{"/dev/nvme1"}, smart.devices)
}

func TestAggregator_Get_WithHwmonTree(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("hwmon0/name", "k10temp\n")
	write("hwmon0/temp1_input", "61250\n")
	write("hwmon0/temp1_label", "Tctl\n")
	write("hwmon1/name", "nvme\n")
	write("hwmon1/temp1_input", "37850\n")
	write("hwmon1/temp1_label", "Composite\n")

	agg := NewAggregator(hwmon.NewReader(root, nil), &fakeSmart{}, nil, nil)
	readings := agg.Get(context.Background(), true)

	names := make([]string, 0, len(readings))
	for _, r := range readings {
		names = append(names, r.Name)
	}
	assert.Equal(t, "cpu,nvme", strings.Join(names, ","))
	assert.InDelta(t, 61.25, readings[0].Value, 0.001)
	assert.InDelta(t, 37.85, readings[1].Value, 0.001)
}

func TestAggregator_SmartAvailable(t *testing.T) {
	assert.True(t, NewAggregator(&fakeHwmon{}, &fakeSmart{}, nil, nil).SmartAvailable())
	assert.False(t, NewAggregator(&fakeHwmon{}, &fakeSmart{denied: map[string]bool{"/dev/sda": true}}, nil, nil).SmartAvailable())
	assert.False(t, NewAggregator(&fakeHwmon{}, nil, nil, nil).SmartAvailable())
}
