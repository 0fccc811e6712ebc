package dkim

import (
	"bytes"
	"io"
	"strings"
)

var crlf = []byte("\r\n")

// CanonicalizeHeader returns a header field in canonical form (RFC 6376
// Section 3.4.1 and 3.4.2).
//
// Simple returns the field unchanged, terminator included. Relaxed returns
// "name:value" with no terminator: the name is lower-cased, the value
// unfolded, runs of WSP become one space, and WSP around the colon and at
// the end is removed.
func CanonicalizeHeader(field string, c Canonicalization) string {
	if c != CanonRelaxed {
		return field
	}
	return canonicalizeHeaderRelaxed(field)
}

func canonicalizeHeaderRelaxed(field string) string {
	name, value, ok := strings.Cut(field, ":")
	if !ok {
		return strings.ToLower(strings.TrimRight(field, " \t\r\n"))
	}

	var b strings.Builder
	b.Grow(len(field))
	b.WriteString(strings.ToLower(strings.TrimRight(name, " \t")))
	b.WriteByte(':')

	space := false
	started := false
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case '\r', '\n':
			// unfold
		case ' ', '\t':
			space = started
		default:
			if space {
				b.WriteByte(' ')
				space = false
			}
			b.WriteByte(c)
			started = true
		}
	}
	return b.String()
}

// NewBodyCanonicalizer returns a writer that canonicalizes a body written to
// it and passes the result to w. Close must be called after the last write
// to flush the line ending.
func NewBodyCanonicalizer(w io.Writer, c Canonicalization) io.WriteCloser {
	if c == CanonRelaxed {
		return &relaxedBodyCanonicalizer{w: w}
	}
	return &simpleBodyCanonicalizer{w: w}
}

// CanonicalizeBody canonicalizes a whole body held in memory.
func CanonicalizeBody(body []byte, c Canonicalization) []byte {
	var b bytes.Buffer
	wc := NewBodyCanonicalizer(&b, c)
	wc.Write(body)
	wc.Close()
	return b.Bytes()
}

// simpleBodyCanonicalizer passes bytes through, holding back a trailing run
// of CRLFs which is replaced by a single CRLF on Close.
type simpleBodyCanonicalizer struct {
	w       io.Writer
	pending []byte // trailing "(\r\n)*\r?" not yet written
}

func (c *simpleBodyCanonicalizer) Write(p []byte) (int, error) {
	n := len(p)
	buf := append(c.pending, p...)

	i := len(buf)
	if i > 0 && buf[i-1] == '\r' {
		i--
	}
	for i >= 2 && buf[i-2] == '\r' && buf[i-1] == '\n' {
		i -= 2
	}

	if i > 0 {
		if _, err := c.w.Write(buf[:i]); err != nil {
			return 0, err
		}
	}
	c.pending = append(c.pending[:0:0], buf[i:]...)
	return n, nil
}

func (c *simpleBodyCanonicalizer) Close() error {
	if len(c.pending) > 0 && c.pending[len(c.pending)-1] == '\r' {
		// A lone CR ends the body, so the CRLFs before it are not trailing.
		if _, err := c.w.Write(c.pending); err != nil {
			return err
		}
	}
	c.pending = nil
	_, err := c.w.Write(crlf)
	return err
}

// relaxedBodyCanonicalizer processes the body line by line. Empty lines are
// counted and only written once a non-empty line follows them.
type relaxedBodyCanonicalizer struct {
	w          io.Writer
	line       []byte
	emptyLines int
}

func (c *relaxedBodyCanonicalizer) Write(p []byte) (int, error) {
	for _, b := range p {
		c.line = append(c.line, b)
		if b == '\n' && len(c.line) >= 2 && c.line[len(c.line)-2] == '\r' {
			err := c.writeLine(c.line[:len(c.line)-2])
			c.line = c.line[:0]
			if err != nil {
				return 0, err
			}
		}
	}
	return len(p), nil
}

func (c *relaxedBodyCanonicalizer) writeLine(line []byte) error {
	out := make([]byte, 0, len(line)+2)
	space := false
	for _, b := range line {
		if b == ' ' || b == '\t' {
			space = true
			continue
		}
		if space {
			out = append(out, ' ')
			space = false
		}
		out = append(out, b)
	}

	if len(out) == 0 {
		c.emptyLines++
		return nil
	}

	for ; c.emptyLines > 0; c.emptyLines-- {
		if _, err := c.w.Write(crlf); err != nil {
			return err
		}
	}
	out = append(out, crlf...)
	_, err := c.w.Write(out)
	return err
}

func (c *relaxedBodyCanonicalizer) Close() error {
	// A final line without CRLF still gets one.
	if len(c.line) > 0 {
		if err := c.writeLine(c.line); err != nil {
			return err
		}
		c.line = nil
	}
	return nil
}
