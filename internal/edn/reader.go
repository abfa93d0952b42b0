package edn

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SyntaxError reports malformed input with the position it was found at.
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Read parses every top-level form in src.
func Read(src string) ([]Form, error) {
	r := newReader(src)
	var forms []Form
	for {
		r.skipSpace()
		if r.eof() {
			return forms, nil
		}
		f, err := r.readForm()
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
}

// ReadOne parses src, which must contain exactly one form.
func ReadOne(src string) (Form, error) {
	r := newReader(src)
	r.skipSpace()
	if r.eof() {
		return nil, &SyntaxError{Pos: r.pos(), Msg: "empty input"}
	}
	f, err := r.readForm()
	if err != nil {
		return nil, err
	}
	r.skipSpace()
	if !r.eof() {
		return nil, &SyntaxError{Pos: r.pos(), Msg: "unexpected input after form"}
	}
	return f, nil
}

type reader struct {
	src  string
	off  int
	line int
	col  int
}

func newReader(src string) *reader {
	return &reader{src: src, line: 1, col: 1}
}

func (r *reader) eof() bool {
	return r.off >= len(r.src)
}

func (r *reader) pos() Pos {
	return Pos{Offset: r.off, Line: r.line, Column: r.col}
}

func (r *reader) peek() rune {
	if r.eof() {
		return utf8.RuneError
	}
	c, _ := utf8.DecodeRuneInString(r.src[r.off:])
	return c
}

func (r *reader) next() rune {
	if r.eof() {
		return utf8.RuneError
	}
	c, size := utf8.DecodeRuneInString(r.src[r.off:])
	r.off += size
	if c == '\n' {
		r.line++
		r.col = 1
	} else {
		r.col++
	}
	return c
}

// skipSpace consumes whitespace, commas and ; comments.
func (r *reader) skipSpace() {
	for !r.eof() {
		c := r.peek()
		switch {
		case c == ',' || unicode.IsSpace(c):
			r.next()
		case c == ';':
			for !r.eof() && r.peek() != '\n' {
				r.next()
			}
		default:
			return
		}
	}
}

func (r *reader) readForm() (Form, error) {
	at := r.pos()
	c := r.peek()
	switch c {
	case '[':
		items, err := r.readSeq(']')
		if err != nil {
			return nil, err
		}
		return Vector{Items: items, At: at}, nil
	case '(':
		items, err := r.readSeq(')')
		if err != nil {
			return nil, err
		}
		return List{Items: items, At: at}, nil
	case '{':
		items, err := r.readSeq('}')
		if err != nil {
			return nil, err
		}
		if len(items)%2 != 0 {
			return nil, &SyntaxError{Pos: at, Msg: "map literal must contain an even number of forms"}
		}
		m := Map{At: at, Entries: make([]Entry, 0, len(items)/2)}
		for i := 0; i < len(items); i += 2 {
			m.Entries = append(m.Entries, Entry{Key: items[i], Value: items[i+1]})
		}
		return m, nil
	case ']', ')', '}':
		return nil, &SyntaxError{Pos: at, Msg: fmt.Sprintf("unexpected %q", c)}
	case '"':
		return r.readString()
	case '\'':
		r.next()
		r.skipSpace()
		if r.eof() {
			return nil, &SyntaxError{Pos: at, Msg: "quote must be followed by a form"}
		}
		return r.readForm()
	case ':':
		r.next()
		name := r.readToken()
		if name == "" {
			return nil, &SyntaxError{Pos: at, Msg: "empty keyword"}
		}
		return Keyword{Name: name, At: at}, nil
	}

	tok := r.readToken()
	if tok == "" {
		return nil, &SyntaxError{Pos: at, Msg: fmt.Sprintf("unexpected character %q", c)}
	}
	if looksNumeric(tok) {
		return parseNumber(tok, at)
	}
	switch tok {
	case "nil":
		return Nil{At: at}, nil
	case "true":
		return Bool{Value: true, At: at}, nil
	case "false":
		return Bool{Value: false, At: at}, nil
	}
	return Symbol{Name: tok, At: at}, nil
}

// readSeq reads forms up to the closing delimiter. The opening delimiter
// is consumed here.
func (r *reader) readSeq(closer rune) ([]Form, error) {
	start := r.pos()
	open := r.next()
	items := []Form{}
	for {
		r.skipSpace()
		if r.eof() {
			return nil, &SyntaxError{Pos: start, Msg: fmt.Sprintf("unterminated %q, expected %q", open, closer)}
		}
		c := r.peek()
		if c == closer {
			r.next()
			return items, nil
		}
		if c == ']' || c == ')' || c == '}' {
			return nil, &SyntaxError{Pos: r.pos(), Msg: fmt.Sprintf("mismatched %q, expected %q", c, closer)}
		}
		f, err := r.readForm()
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
}

func (r *reader) readString() (Form, error) {
	at := r.pos()
	r.next()
	var b strings.Builder
	for {
		if r.eof() {
			return nil, &SyntaxError{Pos: at, Msg: "unterminated string"}
		}
		c := r.next()
		switch c {
		case '"':
			return String{Value: b.String(), At: at}, nil
		case '\\':
			if r.eof() {
				return nil, &SyntaxError{Pos: at, Msg: "unterminated string"}
			}
			esc := r.next()
			switch esc {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			case '"', '\\':
				b.WriteRune(esc)
			default:
				return nil, &SyntaxError{Pos: r.pos(), Msg: fmt.Sprintf("unknown escape \\%c", esc)}
			}
		default:
			b.WriteRune(c)
		}
	}
}

func (r *reader) readToken() string {
	start := r.off
	for !r.eof() && !isDelimiter(r.peek()) {
		r.next()
	}
	return r.src[start:r.off]
}

func isDelimiter(c rune) bool {
	if unicode.IsSpace(c) {
		return true
	}
	switch c {
	case ',', '(', ')', '[', ']', '{', '}', '"', ';':
		return true
	}
	return false
}

func looksNumeric(tok string) bool {
	if tok[0] >= '0' && tok[0] <= '9' {
		return true
	}
	return len(tok) > 1 && (tok[0] == '-' || tok[0] == '+') && tok[1] >= '0' && tok[1] <= '9'
}

func parseNumber(tok string, at Pos) (Form, error) {
	if strings.ContainsAny(tok, ".eE") {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: at, Msg: fmt.Sprintf("invalid number %q", tok)}
		}
		return Float{Value: f, At: at}, nil
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return nil, &SyntaxError{Pos: at, Msg: fmt.Sprintf("invalid number %q", tok)}
	}
	return Int{Value: n, At: at}, nil
}
