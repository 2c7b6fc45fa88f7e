package sysinfo

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cpuinfo = `processor	: 0
vendor_id	: AuthenticAMD
model name	: AMD Ryzen 7 5700G with Radeon Graphics
cpu cores	: 8

processor	: 1
model name	: ignored
`

func TestReader_Read(t *testing.T) {
	proc := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(proc, "cpuinfo"), []byte(cpuinfo), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(proc, "uptime"), []byte("3723.51 12000.10\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(proc, "loadavg"), []byte("0.10 0.25 0.30 1/512 4242\n"), 0o644))

	info, err := (&Reader{ProcRoot: proc}).Read()
	require.NoError(t, err)

	assert.Equal(t, "AMD Ryzen 7 5700G with Radeon Graphics", info.CPUModel)
	assert.Equal(t, 8, info.Cores)
	assert.Equal(t, runtime.NumCPU(), info.Threads)
	assert.Equal(t, "1h 2m", FormatUptime(info.Uptime))
	assert.Equal(t, [3]float64{0.10, 0.25, 0.30}, [3]float64{info.Load1, info.Load5, info.Load15})
}

func TestReader_Read_Partial(t *testing.T) {
	proc := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(proc, "loadavg"), []byte("1.50 1.00 0.50 2/100 1\n"), 0o644))

	info, err := (&Reader{ProcRoot: proc}).Read()
	assert.Error(t, err)
	assert.Equal(t, 1.5, info.Load1)
	assert.Empty(t, info.CPUModel)
}

func TestReader_Read_Host(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("host facts require /proc on linux")
	}

	info, err := NewReader().Read()
	require.NoError(t, err)
	t.Logf("Host: %s", info.Hostname)
	t.Logf("Model: %s", info.CPUModel)
	t.Logf("Uptime: %s", FormatUptime(info.Uptime))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0h 0m", FormatUptime(0))
	assert.Equal(t, "26h 5m", FormatUptime(26*time.Hour+5*time.Minute+59*time.Second))
}

func TestReader_Board(t *testing.T) {
	tests := []struct {
		name   string
		vendor string
		board  string
		want   string
	}{
		{name: "both", vendor: "ASUSTeK COMPUTER INC.\n", board: "PRIME B550M-A\n", want: "ASUSTeK COMPUTER INC. PRIME B550M-A"},
		{name: "placeholders", vendor: "Default string", board: "To Be Filled By O.E.M.", want: ""},
		{name: "name only", vendor: "Unknown", board: "X570  AORUS", want: "Unknown X570 AORUS"},
		{name: "missing", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dmi := t.TempDir()
			if tt.vendor != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dmi, "board_vendor"), []byte(tt.vendor), 0o644))
			}
			if tt.board != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dmi, "board_name"), []byte(tt.board), 0o644))
			}
			assert.Equal(t, tt.want, (&Reader{DMIRoot: dmi}).board())
		})
	}
}
