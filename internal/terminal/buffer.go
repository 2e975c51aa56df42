// Package terminal drives the text panel: a typewriter header followed by one
// titled section per market-data source.
package terminal

import (
	"strings"
	"sync"

	"plaguedoc/internal/market"
	"plaguedoc/pkg/robottask"
)

// TextBuffer is the sink a Typewriter reveals into.
type TextBuffer interface {
	Reset()
	AppendText(s string)
}

// Section is the rendered outcome of one source.
type Section struct {
	Source  string
	Title   string
	Outcome robottask.Outcome
	Table   market.Table
	Message string
}

// Buffer is the terminal panel content: free text (the typed header) followed
// by appended sections. It is safe for concurrent use.
type Buffer struct {
	mu       sync.RWMutex
	text     strings.Builder
	sections []Section
	version  uint64
	onChange func()
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// OnChange registers fn to be called after every mutation.
func (b *Buffer) OnChange(fn func()) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

func (b *Buffer) mutate(fn func()) {
	b.mu.Lock()
	fn()
	b.version++
	notify := b.onChange
	b.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// Reset clears the text and every section.
func (b *Buffer) Reset() {
	b.mutate(func() {
		b.text.Reset()
		b.sections = nil
	})
}

// AppendText appends s to the free text.
func (b *Buffer) AppendText(s string) {
	b.mutate(func() { b.text.WriteString(s) })
}

// TrimHeader drops the free text, keeping the sections.
func (b *Buffer) TrimHeader() {
	b.mutate(func() { b.text.Reset() })
}

// AppendSection appends a rendered source section.
func (b *Buffer) AppendSection(s Section) {
	b.mutate(func() { b.sections = append(b.sections, s) })
}

// Text returns the free text.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.String()
}

// Sections returns a copy of the appended sections.
func (b *Buffer) Sections() []Section {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Section, len(b.sections))
	copy(out, b.sections)
	return out
}

// Version increases with every mutation.
func (b *Buffer) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}
