// Package observability tracks session counters and periodically logs a
// snapshot with process-level CPU and memory readings.
package observability

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"

	"pschat/domain/event"
)

// Stats aggregates session metrics. Counters are atomic; the snapshot is
// taken under the mutex.
type Stats struct {
	log      *slog.Logger
	interval time.Duration

	messages      uint64
	notifications uint64
	parseFailures uint64
	roomsOpen     int64

	mu     sync.RWMutex
	latest Snapshot
}

// Snapshot is one point-in-time reading.
type Snapshot struct {
	Messages      uint64  `json:"messages"`
	Notifications uint64  `json:"notifications"`
	ParseFailures uint64  `json:"parse_failures"`
	RoomsOpen     int64   `json:"rooms_open"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMPercent    float32 `json:"ram_percent"`
	At            time.Time
}

func NewStats(log *slog.Logger, interval time.Duration) *Stats {
	return &Stats{log: log, interval: interval}
}

// Consume counts dispatcher events; Stats registers as a sink.
func (s *Stats) Consume(e event.DomainEvent) {
	switch e.(type) {
	case event.MessageAdded:
		atomic.AddUint64(&s.messages, 1)
	case event.NotificationRaised:
		atomic.AddUint64(&s.notifications, 1)
	case event.ParseFailed:
		atomic.AddUint64(&s.parseFailures, 1)
	case event.RoomAdded:
		atomic.AddInt64(&s.roomsOpen, 1)
	case event.RoomRemoved:
		atomic.AddInt64(&s.roomsOpen, -1)
	}
}

// Run logs a snapshot on every tick until the context ends.
func (s *Stats) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("stopping stats reporter")
			return nil
		case <-ticker.C:
			snap := s.update()
			s.log.Info("session stats",
				"messages", snap.Messages,
				"notifications", snap.Notifications,
				"parse_failures", snap.ParseFailures,
				"rooms_open", snap.RoomsOpen,
				"cpu_pct", snap.CPUPercent,
				"ram_pct", snap.RAMPercent,
			)
		}
	}
}

func (s *Stats) update() Snapshot {
	snap := Snapshot{
		Messages:      atomic.LoadUint64(&s.messages),
		Notifications: atomic.LoadUint64(&s.notifications),
		ParseFailures: atomic.LoadUint64(&s.parseFailures),
		RoomsOpen:     atomic.LoadInt64(&s.roomsOpen),
		At:            time.Now(),
	}

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		s.log.Debug("failed to inspect own process", "err", err)
	} else {
		if cpu, err := p.CPUPercent(); err == nil {
			snap.CPUPercent = cpu
		}
		if ram, err := p.MemoryPercent(); err == nil {
			snap.RAMPercent = ram
		}
	}

	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()
	return snap
}

// Latest returns the most recent snapshot.
func (s *Stats) Latest() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
