package gameserver

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StatsReporter periodically logs the Coordinator's session, queue and
// connection counts.
type StatsReporter struct {
	interval time.Duration
	hub      *Hub
	logger   *zap.Logger
}

// NewStatsReporter returns a reporter that logs every interval.
//
// Precondition: interval must be > 0; hub and logger must be non-nil.
func NewStatsReporter(interval time.Duration, hub *Hub, logger *zap.Logger) *StatsReporter {
	if interval <= 0 {
		panic("gameserver.NewStatsReporter: interval must be > 0")
	}
	return &StatsReporter{
		interval: interval,
		hub:      hub,
		logger:   logger,
	}
}

// Report logs one snapshot of the current counts.
func (r *StatsReporter) Report() Stats {
	st := r.hub.Coordinator().Stats()
	r.logger.Info("engine stats",
		zap.Int("connected", r.hub.Connected()),
		zap.Int("forming", st.Forming),
		zap.Int("active", st.Active),
		zap.Int("queued", st.Queued),
		zap.Int("pending_creations", st.PendingCreations),
	)
	return st
}

// Run logs once per interval until ctx is cancelled.
func (r *StatsReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Report()
		}
	}
}
