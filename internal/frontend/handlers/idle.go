package handlers

import (
	"sync/atomic"
	"time"
)

// IdleMonitorConfig configures StartIdleMonitor.
type IdleMonitorConfig struct {
	// LastInput holds the UnixNano time of the player's latest input.
	LastInput *atomic.Int64
	// IdleTimeout is the silence after which OnWarning fires.
	IdleTimeout time.Duration
	// GracePeriod is the further silence after the warning before OnDisconnect fires.
	GracePeriod time.Duration
	// TickInterval is how often LastInput is checked.
	TickInterval time.Duration
	OnWarning    func()
	OnDisconnect func()
}

// StartIdleMonitor watches cfg.LastInput and calls OnWarning once the player
// has been idle for IdleTimeout, then OnDisconnect if no input arrives within
// GracePeriod of the warning. Input after a warning re-arms it.
//
// Precondition: every cfg field is set and TickInterval is positive.
// Postcondition: The returned stop function halts the monitor; no callback
// fires after it returns.
func StartIdleMonitor(cfg IdleMonitorConfig) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		ticker := time.NewTicker(cfg.TickInterval)
		defer ticker.Stop()

		var warnedAt time.Time
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				last := time.Unix(0, cfg.LastInput.Load())
				if !warnedAt.IsZero() && last.After(warnedAt) {
					warnedAt = time.Time{}
				}
				if warnedAt.IsZero() {
					if now.Sub(last) >= cfg.IdleTimeout {
						warnedAt = now
						cfg.OnWarning()
					}
					continue
				}
				if now.Sub(warnedAt) >= cfg.GracePeriod {
					cfg.OnDisconnect()
					return
				}
			}
		}
	}()

	var stopped atomic.Bool
	return func() {
		if stopped.CompareAndSwap(false, true) {
			close(done)
		}
		<-finished
	}
}
