// Package resource implements the memory budget shared by aggregations.
//
// A Controller tracks bytes reserved by its callers against an optional hard
// limit. Charges are non-blocking and fail fast: when a reservation would
// exceed the limit, Charge returns an error wrapping ErrMemoryLimitExceeded
// and nothing is reserved. The caller decides what to abandon.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20,
//	    Label:            "request",
//	})
//
//	if err := rc.Charge(5 * 1024); err != nil {
//	    return err // errors.Is(err, resource.ErrMemoryLimitExceeded)
//	}
//	defer rc.Release(5 * 1024)
//
// All Controller methods are safe for concurrent use, and all of them are
// no-ops on a nil *Controller.
package resource

import (
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrMemoryLimitExceeded is returned when memory limit would be exceeded.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for managed memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// Label names the budget in error messages. Defaults to "memory".
	Label string
}

// LimitError describes a rejected charge.
type LimitError struct {
	Label     string
	Requested int64
	Used      int64
	Limit     int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("[%s] data too large: would use %d bytes (%d requested), limit is %d bytes",
		e.Label, e.Used+e.Requested, e.Requested, e.Limit)
}

// Unwrap returns ErrMemoryLimitExceeded.
func (e *LimitError) Unwrap() error { return ErrMemoryLimitExceeded }

// Controller manages a memory budget.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64
	trips   atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.Label == "" {
		cfg.Label = "memory"
	}

	c := &Controller{cfg: cfg}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	return c
}

// Charge attempts to reserve bytes.
// Returns a *LimitError wrapping ErrMemoryLimitExceeded if the limit would be
// exceeded; nothing is reserved in that case.
func (c *Controller) Charge(bytes int64) error {
	if c == nil {
		return nil
	}
	if bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			c.trips.Add(1)
			return &LimitError{
				Label:     c.cfg.Label,
				Requested: bytes,
				Used:      c.memUsed.Load(),
				Limit:     c.cfg.MemoryLimitBytes,
			}
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// Release returns previously charged bytes.
func (c *Controller) Release(bytes int64) {
	if c == nil {
		return
	}
	if bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// Trips returns how many charges were rejected.
func (c *Controller) Trips() int64 {
	if c == nil {
		return 0
	}
	return c.trips.Load()
}
