package table

import (
	"strconv"
	"strings"
	"time"
)

// ValueKind identifies the scalar type of a cell.
type ValueKind string

const (
	KindNumber ValueKind = "number"
	KindText   ValueKind = "text"
	KindDate   ValueKind = "date"
	KindEmpty  ValueKind = "empty"
)

// Value is a tagged scalar cell. Exactly one of Num, Text or Time is
// meaningful, selected by Kind. Typing happens once at load time, not per
// aggregation.
type Value struct {
	Kind ValueKind
	Num  float64
	Text string
	Time time.Time
}

// Date layouts accepted at load time, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
}

// Number creates a numeric cell.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// TextValue creates a textual cell.
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// Date creates a date cell.
func Date(t time.Time) Value { return Value{Kind: KindDate, Time: t} }

// Empty creates an empty cell.
func Empty() Value { return Value{Kind: KindEmpty} }

// ParseValue converts a raw cell into a typed Value. Numbers may carry
// thousands separators; anything that is neither a number nor a known date
// layout is text. Whitespace-only cells are empty.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Empty()
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
		return Number(f)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date(t)
		}
	}
	return TextValue(s)
}

// String renders the cell for grouping keys and delimited output. Numbers
// use the shortest exact representation, dates the ISO date form.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindDate:
		return v.Time.Format("2006-01-02")
	case KindText:
		return v.Text
	default:
		return ""
	}
}

// IsEmpty reports whether the cell holds no value.
func (v Value) IsEmpty() bool { return v.Kind == KindEmpty }
