package rain

import (
	"log/slog"
	"sync"
	"time"

	"plaguedoc/internal/util"
)

// Resizer rebuilds state for a new viewport size.
type Resizer interface {
	Resize(width, height int)
}

// ResizeController debounces viewport-resize notifications: only the last
// size reported within a quiet period reaches the target.
type ResizeController struct {
	target    Resizer
	debouncer *util.Debouncer
	log       *slog.Logger

	mu            sync.Mutex
	width, height int
}

// NewResizeController creates a controller that resizes target delay after
// the last notification.
func NewResizeController(target Resizer, delay time.Duration, log *slog.Logger) *ResizeController {
	c := &ResizeController{target: target, log: log}
	c.debouncer = util.NewDebouncer(delay, c.fire)
	return c
}

// Notify records a new viewport size and restarts the quiet period.
func (c *ResizeController) Notify(width, height int) {
	c.mu.Lock()
	c.width, c.height = width, height
	c.mu.Unlock()
	c.debouncer.Trigger()
}

// Pending reports whether a recompute is scheduled.
func (c *ResizeController) Pending() bool { return c.debouncer.Pending() }

// Stop drops a pending recompute.
func (c *ResizeController) Stop() { c.debouncer.Stop() }

func (c *ResizeController) fire() {
	c.mu.Lock()
	w, h := c.width, c.height
	c.mu.Unlock()

	c.log.Debug("viewport settled", "width", w, "height", h)
	c.target.Resize(w, h)
}
