package rain

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Scheduler drives a Field forward once per frame and paints it onto its
// Grid. The Field and Grid are owned by the Scheduler and guarded by one
// mutex; Resize always swaps both wholesale.
type Scheduler struct {
	params   Params
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	rng     *rand.Rand
	field   *Field
	grid    *Grid
	frames  uint64
	onFrame func()

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a Scheduler ticking fps times per second. The field
// starts empty until the first Resize.
func NewScheduler(p Params, fps int, rng *rand.Rand, log *slog.Logger) *Scheduler {
	if fps < 1 {
		fps = 1
	}
	if len(p.Glyphs) == 0 {
		p.Glyphs = DefaultParams().Glyphs
	}
	if p.ChainLength < 1 {
		p.ChainLength = 1
	}
	return &Scheduler{
		params:   p,
		interval: time.Second / time.Duration(fps),
		log:      log,
		rng:      rng,
		field:    Initialize(0, 0, p.CellSize),
		grid:     NewGrid(0, 0),
	}
}

// OnFrame registers fn to be called after every tick of the running loop.
func (s *Scheduler) OnFrame(fn func()) {
	s.mu.Lock()
	s.onFrame = fn
	s.mu.Unlock()
}

// Resize discards every head position and rebuilds the field and surface for
// a viewport of width×height units.
func (s *Scheduler) Resize(width, height int) {
	field := Initialize(width, height, s.params.CellSize)
	grid := NewGrid(width, height)

	s.mu.Lock()
	s.field = field
	s.grid = grid
	s.mu.Unlock()

	s.log.Debug("rain field reset", "width", width, "height", height, "columns", field.Len())
}

// Step advances and paints a single frame.
func (s *Scheduler) Step() {
	s.mu.Lock()
	s.field.Advance(s.grid, s.params, s.rng)
	s.frames++
	s.mu.Unlock()
}

// Start launches the frame loop. It returns immediately; calling Start on a
// running Scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.loop(ctx, done)
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	// Burst 1: a slow frame delays the next one, there is no catch-up.
	limiter := rate.NewLimiter(rate.Every(s.interval), 1)
	s.log.Info("rain loop started", "interval", s.interval)
	for {
		if err := limiter.Wait(ctx); err != nil {
			s.log.Info("rain loop stopped", "frames", s.Frames())
			return
		}
		s.Step()

		s.mu.Lock()
		fn := s.onFrame
		s.mu.Unlock()
		if fn != nil {
			fn()
		}
	}
}

// Stop cancels the frame loop and waits for it to exit. The Scheduler can be
// started again afterwards.
func (s *Scheduler) Stop() {
	s.runMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the frame loop is active.
func (s *Scheduler) Running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.cancel != nil
}

// Frames returns the number of ticks performed so far.
func (s *Scheduler) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Columns returns a copy of the current column state.
func (s *Scheduler) Columns() []Column {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.field.Columns()
}

// Size returns the surface size in units.
func (s *Scheduler) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Size()
}

// Line renders columns [from, to) of one surface row.
func (s *Scheduler) Line(row, from, to int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Line(row, from, to)
}
