// Package market maps market records onto the fixed eight-column table shown
// in the terminal panel.
package market

import "plaguedoc/pkg/robottask"

// Headers are the fixed column titles, in display order.
var Headers = [8]string{
	"#",
	"Pair",
	"Price USD",
	"1H",
	"24H",
	"24H Txns",
	"24H Volume",
	"Liquidity",
}

// Table is a rendered record list: one row per record, every row len(Headers)
// cells wide.
type Table struct {
	Headers []string
	Rows    [][]string
}

// RenderTable builds the table for records. Cells carry the raw values
// unchanged; missing values become "".
func RenderTable(records []robottask.Record) Table {
	t := Table{
		Headers: append([]string(nil), Headers[:]...),
		Rows:    make([][]string, 0, len(records)),
	}
	for _, r := range records {
		t.Rows = append(t.Rows, Row(r))
	}
	return t
}

// Row resolves the cells of one record. Price prefers price_usd, volume
// prefers volume_24h.
func Row(r robottask.Record) []string {
	return []string{
		r.ID.String(),
		r.Pair.String(),
		r.PriceUSD.Or(r.Price).String(),
		r.Change1h.String(),
		r.Change24h.String(),
		r.Txns24h.String(),
		r.Volume24h.Or(r.Volume).String(),
		r.Liquidity.String(),
	}
}
