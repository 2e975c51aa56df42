package robottask

import (
	"bytes"
	"encoding/json"
)

// Value is a raw JSON scalar kept exactly as the backend sent it. Strings are
// unquoted, every other value keeps its literal text; null and absent fields
// render as "".
type Value struct {
	raw []byte
}

// V builds a Value from a JSON literal, e.g. V(`"1.23"`) or V(`42`).
func V(literal string) Value {
	var v Value
	_ = v.UnmarshalJSON([]byte(literal))
	return v
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		v.raw = nil
		return nil
	}
	v.raw = append([]byte(nil), b...)
	return nil
}

// IsSet reports whether the field was present and not null.
func (v Value) IsSet() bool { return v.raw != nil }

// String returns the display text of the value.
func (v Value) String() string {
	if v.raw == nil {
		return ""
	}
	if v.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(v.raw, &s); err == nil {
			return s
		}
	}
	return string(v.raw)
}

// Or returns v when set, otherwise fallback.
func (v Value) Or(fallback Value) Value {
	if v.IsSet() {
		return v
	}
	return fallback
}

// Record is one row of token/pair market data. Every field is optional.
type Record struct {
	ID        Value `json:"id"`
	Pair      Value `json:"pair"`
	Price     Value `json:"price"`
	PriceUSD  Value `json:"price_usd"`
	Change1h  Value `json:"change_1h"`
	Change24h Value `json:"change_24h"`
	Txns24h   Value `json:"txns_24h"`
	Volume    Value `json:"volume"`
	Volume24h Value `json:"volume_24h"`
	Liquidity Value `json:"liquidity"`
}
