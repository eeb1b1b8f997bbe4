package checkout

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Debouncer coalesces bursts of cart edits into a single draft save. Save
// failures are logged and dropped; a draft is a convenience, not a record.
type Debouncer struct {
	delay  time.Duration
	save   func(ctx context.Context) error
	logger *zap.Logger

	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(delay time.Duration, save func(ctx context.Context) error, logger *zap.Logger) *Debouncer {
	return &Debouncer{delay: delay, save: save, logger: logger}
}

// Schedule arms the timer, replacing any pending save so only the last edit
// in a burst triggers one.
func (d *Debouncer) Schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	d.mu.Unlock()

	d.run()
}

// Cancel drops any pending save without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Flush runs a pending save immediately. No-op when nothing is pending.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	pending := d.timer != nil
	if pending {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	if pending {
		d.run()
	}
}

func (d *Debouncer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.save(ctx); err != nil && d.logger != nil {
		d.logger.Warn("cart autosave failed", zap.Error(err))
	}
}
