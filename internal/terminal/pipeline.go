package terminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"plaguedoc/internal/market"
	"plaguedoc/pkg/robottask"
)

// ErrAlreadyActivated is returned by Run on every call after the first.
var ErrAlreadyActivated = errors.New("pipeline already activated")

// Phase is the coarse state of the terminal panel.
type Phase int

const (
	Idle Phase = iota
	TypingHeader
	AwaitingSource
	Settled
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case TypingHeader:
		return "typing_header"
	case AwaitingSource:
		return "awaiting_source"
	case Settled:
		return "settled"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the pipeline position. Source is only meaningful while
// AwaitingSource.
type State struct {
	Phase  Phase
	Source int
}

// Source is one static data source.
type Source struct {
	ID       string
	Title    string
	Endpoint string
}

// Fetcher retrieves the records of one source. Errors are classified with
// robottask.Classify.
type Fetcher interface {
	Fetch(ctx context.Context, source, endpoint string) ([]robottask.Record, error)
}

// Options tunes a Pipeline.
type Options struct {
	Header          string
	TypeDelay       time.Duration
	ActivationDelay time.Duration
	KeepHeader      bool
}

// Pipeline types the header, then fetches and renders every source strictly
// in order. It runs at most once.
type Pipeline struct {
	sources []Source
	fetcher Fetcher
	buf     *Buffer
	tw      *Typewriter
	opts    Options
	log     *slog.Logger

	activated atomic.Bool
	done      chan struct{}

	mu    sync.Mutex
	state State
}

// NewPipeline creates an idle pipeline writing to buf.
func NewPipeline(sources []Source, fetcher Fetcher, buf *Buffer, tw *Typewriter, opts Options, log *slog.Logger) *Pipeline {
	return &Pipeline{
		sources: append([]Source(nil), sources...),
		fetcher: fetcher,
		buf:     buf,
		tw:      tw,
		opts:    opts,
		log:     log,
		done:    make(chan struct{}),
	}
}

// Enabled reports whether the activation control is still usable.
func (p *Pipeline) Enabled() bool { return !p.activated.Load() }

// Activate starts the run in the background. It returns false, doing
// nothing, once the pipeline has been activated before.
func (p *Pipeline) Activate(ctx context.Context) bool {
	if !p.activated.CompareAndSwap(false, true) {
		p.log.Debug("activation ignored, control disabled")
		return false
	}
	go func() {
		if err := p.run(ctx); err != nil {
			p.log.Warn("pipeline stopped", "error", err)
		}
	}()
	return true
}

// Run performs the run synchronously.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.activated.CompareAndSwap(false, true) {
		return ErrAlreadyActivated
	}
	return p.run(ctx)
}

// Done is closed when the run ends, settled or not.
func (p *Pipeline) Done() <-chan struct{} { return p.done }

// State returns the current position.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Pipeline) run(ctx context.Context) error {
	defer close(p.done)

	log := p.log.With("run", uuid.NewString())
	log.Info("pipeline activated", "sources", len(p.sources))

	if d := p.opts.ActivationDelay; d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	p.setState(State{Phase: TypingHeader})
	if err := p.tw.RevealWait(ctx, p.buf, p.opts.Header, p.opts.TypeDelay); err != nil {
		return fmt.Errorf("typing header: %w", err)
	}

	for i, src := range p.sources {
		p.setState(State{Phase: AwaitingSource, Source: i})
		p.buf.AppendSection(p.fetchSection(ctx, log, src))
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if !p.opts.KeepHeader {
		p.buf.TrimHeader()
	}
	p.setState(State{Phase: Settled})
	log.Info("pipeline settled")
	return nil
}

// fetchSection never fails: every outcome becomes a section of its own.
func (p *Pipeline) fetchSection(ctx context.Context, log *slog.Logger, src Source) Section {
	start := time.Now()
	records, err := p.fetcher.Fetch(ctx, src.ID, src.Endpoint)
	if err == nil && len(records) == 0 {
		err = &robottask.FetchError{Outcome: robottask.EmptyDataError, Source: src.ID}
	}

	sec := Section{
		Source:  src.ID,
		Title:   src.Title,
		Outcome: robottask.Classify(err),
	}
	if err != nil {
		sec.Message = "Error: " + err.Error()
		log.Warn("source failed", "source", src.ID, "outcome", sec.Outcome.String(),
			"elapsed", time.Since(start), "error", err)
		return sec
	}

	sec.Table = market.RenderTable(records)
	log.Info("source rendered", "source", src.ID, "rows", len(sec.Table.Rows), "elapsed", time.Since(start))
	return sec
}
