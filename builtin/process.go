package builtin

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/process"
)

// Process renders a summary of the current process
type Process struct {
	sessionID string
	started   time.Time
	proc      *process.Process
	now       func() time.Time
}

func NewProcess(sessionID string, started time.Time) *Process {
	p := &Process{sessionID: sessionID, started: started, now: time.Now}
	// Only the runtime section is rendered if the process can't be inspected
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		p.proc = proc
	}
	return p
}

func (p *Process) Generate() []byte {
	var buf bytes.Buffer
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	fmt.Fprintf(&buf, "pid: %d\n", os.Getpid())
	fmt.Fprintf(&buf, "session: %s\n", p.sessionID)
	fmt.Fprintf(&buf, "started: %s\n", p.started.Format(time.RFC3339))
	fmt.Fprintf(&buf, "uptime: %s\n", p.now().Sub(p.started).Round(time.Second))
	fmt.Fprintf(&buf, "goroutines: %d\n", runtime.NumGoroutine())
	fmt.Fprintf(&buf, "heap: %s\n", humanize.IBytes(mem.HeapAlloc))

	if p.proc == nil {
		return buf.Bytes()
	}
	if info, err := p.proc.MemoryInfo(); err == nil {
		fmt.Fprintf(&buf, "rss: %s\n", humanize.IBytes(info.RSS))
	}
	if cpu, err := p.proc.CPUPercent(); err == nil {
		fmt.Fprintf(&buf, "cpu: %.1f%%\n", cpu)
	}
	if threads, err := p.proc.NumThreads(); err == nil {
		fmt.Fprintf(&buf, "threads: %d\n", threads)
	}
	if fds, err := p.proc.NumFDs(); err == nil {
		fmt.Fprintf(&buf, "fds: %d\n", fds)
	}
	return buf.Bytes()
}
