package terminal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"plaguedoc/pkg/robottask"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	return Options{Header: ">> Ready\n", TypeDelay: time.Millisecond}
}

func waitDone(t *testing.T, p *Pipeline) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not finish")
	}
}

type fetchResult struct {
	records []robottask.Record
	err     error
	delay   time.Duration
}

// fakeFetcher serves canned results and records call order and overlap.
type fakeFetcher struct {
	mu          sync.Mutex
	results     map[string]fetchResult
	calls       []string
	inFlight    int
	maxInFlight int
	onCall      func(source string)
}

func (f *fakeFetcher) Fetch(ctx context.Context, source, endpoint string) ([]robottask.Record, error) {
	f.mu.Lock()
	f.calls = append(f.calls, source)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	res := f.results[source]
	onCall := f.onCall
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if onCall != nil {
		onCall(source)
	}
	if res.delay > 0 {
		select {
		case <-time.After(res.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return res.records, res.err
}

var threeSources = []Source{
	{ID: "solana", Title: "Solana Top Trending", Endpoint: "http://example/solana"},
	{ID: "ethereum", Title: "Ethereum Top Trending", Endpoint: "http://example/ethereum"},
	{ID: "base", Title: "Base Top Trending", Endpoint: "http://example/base"},
}

func TestPipelineOrderAndIsolation(t *testing.T) {
	f := &fakeFetcher{results: map[string]fetchResult{
		"solana":   {records: []robottask.Record{{ID: robottask.V(`1`), Pair: robottask.V(`"SOL/USDC"`)}}, delay: 50 * time.Millisecond},
		"ethereum": {err: &robottask.FetchError{Outcome: robottask.EmptyDataError, Source: "ethereum"}},
		"base":     {err: &robottask.FetchError{Outcome: robottask.TransportError, Source: "base", Err: errors.New("connection refused")}},
	}}
	buf := NewBuffer()
	p := NewPipeline(threeSources, f, buf, NewTypewriter(), testOptions(), discardLogger())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if f.maxInFlight != 1 {
		t.Errorf("max concurrent requests = %d, want 1", f.maxInFlight)
	}
	wantCalls := []string{"solana", "ethereum", "base"}
	for i, c := range f.calls {
		if c != wantCalls[i] {
			t.Errorf("call %d = %s, want %s", i, c, wantCalls[i])
		}
	}

	secs := buf.Sections()
	if len(secs) != 3 {
		t.Fatalf("got %d sections, want 3", len(secs))
	}
	if secs[0].Outcome != robottask.Success || len(secs[0].Table.Rows) != 1 || secs[0].Table.Rows[0][1] != "SOL/USDC" {
		t.Errorf("section 0 = %+v, want solana table", secs[0])
	}
	if secs[1].Outcome != robottask.EmptyDataError || secs[1].Message != "Error: No Ethereum data available." {
		t.Errorf("section 1 = %+v, want empty-data message", secs[1])
	}
	if secs[2].Outcome != robottask.TransportError || secs[2].Message != "Error: connection refused" {
		t.Errorf("section 2 = %+v, want transport error message", secs[2])
	}
	for i, sec := range secs {
		if sec.Title != threeSources[i].Title {
			t.Errorf("section %d title = %q, want %q", i, sec.Title, threeSources[i].Title)
		}
	}

	if st := p.State(); st.Phase != Settled {
		t.Errorf("state = %+v, want settled", st)
	}
	if buf.Text() != "" {
		t.Errorf("header not trimmed after settling: %q", buf.Text())
	}
}

func TestPipelineOverHTTP(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(80 * time.Millisecond)
		_, _ = w.Write([]byte(`[{"id":1,"pair":"SOL/USDC","price":"1.23"}]`))
	}))
	defer slow.Close()
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer empty.Close()
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	sources := []Source{
		{ID: "solana", Title: "A", Endpoint: slow.URL},
		{ID: "ethereum", Title: "B", Endpoint: empty.URL},
		{ID: "base", Title: "C", Endpoint: deadURL},
	}
	buf := NewBuffer()
	p := NewPipeline(sources, robottask.NewClient(), buf, NewTypewriter(), testOptions(), discardLogger())
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	secs := buf.Sections()
	want := []robottask.Outcome{robottask.Success, robottask.EmptyDataError, robottask.TransportError}
	if len(secs) != len(want) {
		t.Fatalf("got %d sections, want %d", len(secs), len(want))
	}
	for i, sec := range secs {
		if sec.Outcome != want[i] {
			t.Errorf("section %d (%s) outcome = %v, want %v", i, sec.Title, sec.Outcome, want[i])
		}
	}
	if got := secs[0].Table.Rows[0][2]; got != "1.23" {
		t.Errorf("price cell = %q, want 1.23", got)
	}
}

func TestPipelineHeaderBeforeFetch(t *testing.T) {
	buf := NewBuffer()
	opts := testOptions()
	opts.KeepHeader = true

	var headerAtFetch string
	f := &fakeFetcher{results: map[string]fetchResult{}}
	f.onCall = func(source string) {
		if source == "solana" {
			headerAtFetch = buf.Text()
		}
	}

	p := NewPipeline(threeSources, f, buf, NewTypewriter(), opts, discardLogger())
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if headerAtFetch != opts.Header {
		t.Errorf("header at first fetch = %q, want %q", headerAtFetch, opts.Header)
	}
	if buf.Text() != opts.Header {
		t.Errorf("header = %q, want it kept", buf.Text())
	}
	// A nil, nil fetch result is treated as empty data.
	for _, sec := range buf.Sections() {
		if sec.Outcome != robottask.EmptyDataError {
			t.Errorf("section %s outcome = %v, want empty data", sec.Source, sec.Outcome)
		}
	}
}

func TestPipelineActivatesOnce(t *testing.T) {
	f := &fakeFetcher{results: map[string]fetchResult{}}
	buf := NewBuffer()
	p := NewPipeline(threeSources, f, buf, NewTypewriter(), testOptions(), discardLogger())

	if !p.Enabled() {
		t.Fatal("fresh pipeline should be enabled")
	}
	if !p.Activate(context.Background()) {
		t.Fatal("first Activate returned false")
	}
	if p.Activate(context.Background()) {
		t.Error("second Activate returned true")
	}
	if p.Enabled() {
		t.Error("control still enabled after activation")
	}
	waitDone(t, p)

	if err := p.Run(context.Background()); !errors.Is(err, ErrAlreadyActivated) {
		t.Errorf("Run after Activate = %v, want ErrAlreadyActivated", err)
	}
	if len(f.calls) != len(threeSources) {
		t.Errorf("fetcher called %d times, want %d", len(f.calls), len(threeSources))
	}
	if n := len(buf.Sections()); n != len(threeSources) {
		t.Errorf("%d sections, want %d (no duplicates)", n, len(threeSources))
	}
}

func TestPipelineHungRequestStallsLaterSources(t *testing.T) {
	f := &fakeFetcher{results: map[string]fetchResult{
		"solana": {delay: time.Hour},
	}}
	buf := NewBuffer()
	p := NewPipeline(threeSources, f, buf, NewTypewriter(), testOptions(), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	p.Activate(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for p.State().Phase != AwaitingSource {
		if time.Now().After(deadline) {
			t.Fatal("pipeline never reached the first source")
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if st := p.State(); st.Phase != AwaitingSource || st.Source != 0 {
		t.Fatalf("state = %+v, want awaiting source 0", st)
	}

	cancel()
	waitDone(t, p)

	f.mu.Lock()
	calls := len(f.calls)
	f.mu.Unlock()
	if calls != 1 {
		t.Errorf("fetcher called %d times, want 1", calls)
	}
	if st := p.State(); st.Phase == Settled {
		t.Error("cancelled pipeline reported settled")
	}
}

func TestPipelineActivationDelay(t *testing.T) {
	f := &fakeFetcher{results: map[string]fetchResult{}}
	opts := testOptions()
	opts.ActivationDelay = 60 * time.Millisecond
	p := NewPipeline(threeSources[:1], f, NewBuffer(), NewTypewriter(), opts, discardLogger())

	start := time.Now()
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("run took %v, want at least the activation delay", elapsed)
	}
}
