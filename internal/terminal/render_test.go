package terminal

import (
	"strings"
	"testing"

	"plaguedoc/internal/market"
	"plaguedoc/pkg/robottask"
)

func TestRender(t *testing.T) {
	buf := NewBuffer()
	buf.AppendText(">> Terminal Ready...")
	buf.AppendSection(Section{
		Source:  "solana",
		Title:   "Solana Top Trending",
		Outcome: robottask.Success,
		Table: market.RenderTable([]robottask.Record{
			{ID: robottask.V(`1`), Pair: robottask.V(`"SOL/USDC"`), Price: robottask.V(`"1.23"`)},
		}),
	})
	buf.AppendSection(Section{
		Source:  "ethereum",
		Title:   "Ethereum Top Trending",
		Outcome: robottask.NetworkError,
		Message: "Error: API error: 503",
	})

	out := Render(buf, 100, true)
	for _, want := range []string{
		">> Terminal Ready...",
		"Solana Top Trending",
		"Price USD",
		"SOL/USDC",
		"1.23",
		"Ethereum Top Trending",
		"Error: API error: 503",
		cursorGlyph,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "null") || strings.Contains(out, "undefined") {
		t.Errorf("render output leaks placeholder words:\n%s", out)
	}
	if strings.Index(out, "Solana") > strings.Index(out, "Ethereum") {
		t.Error("sections rendered out of order")
	}
}

func TestRenderEmptyBuffer(t *testing.T) {
	if out := Render(NewBuffer(), 80, false); out != "" {
		t.Errorf("Render(empty) = %q, want empty", out)
	}
}
