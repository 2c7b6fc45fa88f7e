package systemadapter

import (
	"context"
	"time"

	"github.com/restartfu/truefan/internal/domain"
	"github.com/restartfu/truefan/internal/observability"
	"github.com/restartfu/truefan/internal/sysinfo"
)

type Reader struct {
	sys *sysinfo.Reader
	now func() time.Time
}

func NewReader() *Reader {
	return &Reader{
		sys: sysinfo.NewReader(),
		now: time.Now,
	}
}

// ReadSystem returns whatever host facts could be read, along with the first
// failure.
func (r *Reader) ReadSystem(ctx context.Context) (domain.SystemInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.SystemInfo{}, err
	}
	current, err := r.sys.Read()
	if err != nil {
		observability.CaptureError(err, map[string]string{
			"component": "system",
			"operation": "read_system",
		}, nil)
	}
	return domain.SystemInfo{
		Hostname: current.Hostname,
		CPUModel: current.CPUModel,
		Board:    current.Board,
		Cores:    current.Cores,
		Threads:  current.Threads,
		Uptime:   sysinfo.FormatUptime(current.Uptime),
		Load1:    current.Load1,
		Load5:    current.Load5,
		Load15:   current.Load15,
		Time:     r.now().UTC(),
	}, err
}
