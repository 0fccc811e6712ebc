package mailauth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	wireio "github.com/synqronlabs/mailauth/io"
)

const maxMessageSize = 1<<63 - 1

// ParseMessage splits a wire-form message into its raw header fields and its
// body. Each field keeps its continuation lines and CRLF. A message without
// an empty line after the header has an empty body.
func ParseMessage(msg io.ReaderAt) ([]string, io.ReaderAt, error) {
	r := bufio.NewReader(io.NewSectionReader(msg, 0, maxMessageSize))

	var (
		headers []string
		offset  int64
	)
	for {
		line, err := wireio.ReadLine(r, wireio.MaxLineLength)
		if err == io.EOF {
			break
		}
		if errors.Is(err, wireio.ErrLineTooLong) || errors.Is(err, wireio.ErrBadLineEnding) {
			return nil, nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		if err != nil {
			return nil, nil, err
		}
		offset += int64(len(line))

		if line == "\r\n" {
			break
		}
		if line[0] == ' ' || line[0] == '\t' {
			if len(headers) == 0 {
				return nil, nil, fmt.Errorf("%w: continuation line before first field", ErrMalformedMessage)
			}
			headers[len(headers)-1] += line
			continue
		}
		if !strings.Contains(line, ":") {
			return nil, nil, fmt.Errorf("%w: line without colon: %q", ErrMalformedMessage, strings.TrimSuffix(line, "\r\n"))
		}
		headers = append(headers, line)
	}

	return headers, io.NewSectionReader(msg, offset, maxMessageSize-offset), nil
}

// isSignatureField reports whether field is a DKIM-Signature header field.
func isSignatureField(field string) bool {
	name, _, ok := strings.Cut(field, ":")
	return ok && strings.EqualFold(strings.TrimRight(name, " \t"), "DKIM-Signature")
}
