package cpu

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the dynamic type of a processor variable.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
)

// Value is the content of a processor variable. The zero Value is null.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

var Null = Value{}

func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Float is the numeric reading of v: null reads as 0 and any string as 1.
func (v Value) Float() float64 {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindString:
		return 1
	}
	return 0
}

// String formats v the way print writes it: integral numbers without a
// fraction, strings without quotes.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		if math.IsInf(v.Num, 0) || math.IsNaN(v.Num) {
			return "null"
		}
		if v.Num == math.Trunc(v.Num) && math.Abs(v.Num) < 1e15 {
			return strconv.FormatInt(int64(v.Num), 10)
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindString:
		return v.Str
	}
	return "null"
}

// literal parses an operand that is not a variable name.
func literal(tok string) (Value, bool) {
	switch tok {
	case "null":
		return Null, true
	case "true":
		return Number(1), true
	case "false":
		return Number(0), true
	}
	if len(tok) >= 2 && strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) {
		return String(tok[1 : len(tok)-1]), true
	}
	if !startsNumber(tok) {
		return Null, false
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return Number(f), true
	}
	return Null, false
}

// startsNumber rejects names such as inf and nan that ParseFloat would
// otherwise accept.
func startsNumber(tok string) bool {
	if tok == "" {
		return false
	}
	switch c := tok[0]; {
	case c >= '0' && c <= '9', c == '-', c == '+', c == '.':
		return true
	}
	return false
}

// equal is loose equality: strings compare by content, everything else
// numerically.
func equal(a, b Value) bool {
	if a.Kind == KindString && b.Kind == KindString {
		return a.Str == b.Str
	}
	return a.Float() == b.Float()
}

func strictEqual(a, b Value) bool {
	return a.Kind == b.Kind && a.Num == b.Num && a.Str == b.Str
}
