package terminal

import (
	"sync/atomic"
	"testing"
)

func TestBufferMutations(t *testing.T) {
	b := NewBuffer()
	var changes atomic.Int32
	b.OnChange(func() { changes.Add(1) })

	b.AppendText("ab")
	b.AppendText("c")
	b.AppendSection(Section{Source: "solana"})
	if b.Text() != "abc" {
		t.Errorf("Text() = %q, want abc", b.Text())
	}

	b.TrimHeader()
	if b.Text() != "" || len(b.Sections()) != 1 {
		t.Errorf("TrimHeader: text %q, %d sections", b.Text(), len(b.Sections()))
	}

	b.Reset()
	if len(b.Sections()) != 0 {
		t.Error("Reset kept sections")
	}
	if n := changes.Load(); n != 5 {
		t.Errorf("OnChange called %d times, want 5", n)
	}
	if b.Version() != 5 {
		t.Errorf("Version() = %d, want 5", b.Version())
	}
}
