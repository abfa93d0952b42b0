package edn

import (
	"math"
	"strconv"
	"strings"
)

// Print renders f in the notation Read accepts. Read(Print(f)) yields a form
// equal to f apart from positions.
func Print(f Form) string {
	var b strings.Builder
	write(&b, f)
	return b.String()
}

func write(b *strings.Builder, f Form) {
	switch f := f.(type) {
	case nil, Nil:
		b.WriteString("nil")
	case Bool:
		b.WriteString(strconv.FormatBool(f.Value))
	case Int:
		b.WriteString(strconv.FormatInt(f.Value, 10))
	case Float:
		b.WriteString(formatFloat(f.Value))
	case String:
		writeString(b, f.Value)
	case Keyword:
		b.WriteByte(':')
		b.WriteString(f.Name)
	case Symbol:
		b.WriteString(f.Name)
	case Vector:
		writeSeq(b, '[', ']', f.Items)
	case List:
		writeSeq(b, '(', ')', f.Items)
	case Map:
		b.WriteByte('{')
		for i, e := range f.Entries {
			if i > 0 {
				b.WriteByte(' ')
			}
			write(b, e.Key)
			b.WriteByte(' ')
			write(b, e.Value)
		}
		b.WriteByte('}')
	}
}

func writeSeq(b *strings.Builder, open, close byte, items []Form) {
	b.WriteByte(open)
	for i, item := range items {
		if i > 0 {
			b.WriteByte(' ')
		}
		write(b, item)
	}
	b.WriteByte(close)
}

func writeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, c := range s {
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(c)
		}
	}
	b.WriteByte('"')
}

// formatFloat always produces text the reader treats as a float, so 2.0
// prints as "2.0" rather than "2".
func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		// No literal for these; nil keeps the output readable.
		return "nil"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
