// Package io reads messages in wire form, where every line ends in CRLF.
package io

import (
	"bufio"
	"errors"
	"io"
)

// MaxLineLength is the RFC 5322 line limit of 998 octets plus CRLF.
const MaxLineLength = 1000

var (
	ErrLineTooLong   = errors.New("mailauth: line too long")
	ErrBadLineEnding = errors.New("mailauth: line not terminated by CRLF")
)

// ReadLine reads one line of at most max bytes, CRLF included, and returns
// it with its CRLF. At the end of input it returns io.EOF, or
// ErrBadLineEnding if unterminated data is left.
func ReadLine(reader *bufio.Reader, max int) (string, error) {
	line, err := reader.ReadSlice('\n')
	if err == nil {
		return validate(line, max)
	}
	if err != bufio.ErrBufferFull {
		return "", endOfInput(line, err)
	}

	// The line is larger than the bufio buffer. ReadSlice reuses the buffer,
	// so chunks are copied.
	buf := append([]byte(nil), line...)
	for {
		line, err = reader.ReadSlice('\n')
		if len(buf)+len(line) > max {
			if err == bufio.ErrBufferFull {
				drainLine(reader)
			}
			return "", ErrLineTooLong
		}
		buf = append(buf, line...)

		if err == nil {
			break
		}
		if err != bufio.ErrBufferFull {
			return "", endOfInput(buf, err)
		}
	}
	return validate(buf, max)
}

func endOfInput(partial []byte, err error) error {
	if err == io.EOF && len(partial) > 0 {
		return ErrBadLineEnding
	}
	return err
}

// validate checks length and the CR before the final LF.
func validate(b []byte, max int) (string, error) {
	if len(b) > max {
		return "", ErrLineTooLong
	}
	if len(b) < 2 || b[len(b)-2] != '\r' {
		return "", ErrBadLineEnding
	}
	return string(b), nil
}

// drainLine discards the rest of the current line.
func drainLine(reader *bufio.Reader) {
	for {
		_, err := reader.ReadSlice('\n')
		if err != bufio.ErrBufferFull {
			return
		}
	}
}
