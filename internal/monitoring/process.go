package monitoring

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/isdelr/guildvault/internal/models"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessSampler reads CPU and memory usage of the bot process.
type ProcessSampler struct {
	mu   sync.Mutex
	proc *process.Process
}

// NewProcessSampler creates a sampler for the current process.
func NewProcessSampler() (*ProcessSampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("open process: %w", err)
	}
	return &ProcessSampler{proc: proc}, nil
}

// Sample returns the current usage. CPU is averaged since the previous call.
func (s *ProcessSampler) Sample() (*models.ProcessStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cpu, err := s.proc.Percent(0)
	if err != nil {
		return nil, fmt.Errorf("read cpu usage: %w", err)
	}
	mem, err := s.proc.MemoryInfo()
	if err != nil {
		return nil, fmt.Errorf("read memory usage: %w", err)
	}
	return &models.ProcessStats{
		CPUPercent: cpu,
		MemoryRSS:  mem.RSS,
		Goroutines: runtime.NumGoroutine(),
		SampledAt:  time.Now(),
	}, nil
}
