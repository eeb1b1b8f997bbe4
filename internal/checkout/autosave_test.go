package checkout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	var saves atomic.Int32
	d := NewDebouncer(25*time.Millisecond, func(ctx context.Context) error {
		saves.Add(1)
		return nil
	}, nil)

	for i := 0; i < 5; i++ {
		d.Schedule()
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := saves.Load(); got != 1 {
		t.Fatalf("saves = %d, want 1", got)
	}
}

func TestDebouncerCancel(t *testing.T) {
	var saves atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func(ctx context.Context) error {
		saves.Add(1)
		return nil
	}, nil)

	d.Schedule()
	d.Cancel()

	time.Sleep(60 * time.Millisecond)
	if got := saves.Load(); got != 0 {
		t.Fatalf("saves = %d, want 0 after cancel", got)
	}
}

func TestDebouncerFlush(t *testing.T) {
	var saves atomic.Int32
	d := NewDebouncer(time.Hour, func(ctx context.Context) error {
		saves.Add(1)
		return nil
	}, nil)

	d.Flush()
	if got := saves.Load(); got != 0 {
		t.Fatalf("saves = %d, want 0 when nothing pending", got)
	}

	d.Schedule()
	d.Flush()
	if got := saves.Load(); got != 1 {
		t.Fatalf("saves = %d, want 1 after flush", got)
	}
}

func TestDebouncerSwallowsSaveErrors(t *testing.T) {
	d := NewDebouncer(10*time.Millisecond, func(ctx context.Context) error {
		return errors.New("draft store unavailable")
	}, nil)

	d.Schedule()
	time.Sleep(50 * time.Millisecond)

	// A failed save must leave the debouncer usable.
	var saves atomic.Int32
	d.save = func(ctx context.Context) error {
		saves.Add(1)
		return nil
	}
	d.Schedule()
	time.Sleep(50 * time.Millisecond)
	if got := saves.Load(); got != 1 {
		t.Fatalf("saves = %d, want 1", got)
	}
}
