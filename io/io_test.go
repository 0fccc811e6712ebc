package io

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		input       []byte
		max         int
		expected    string
		expectError error
	}{
		{
			name:     "valid line with CRLF",
			input:    []byte("Subject: hello\r\n"),
			max:      100,
			expected: "Subject: hello\r\n",
		},
		{
			name:     "empty line with just CRLF",
			input:    []byte("\r\n"),
			max:      100,
			expected: "\r\n",
		},
		{
			name:     "line at max length",
			input:    []byte("abc\r\n"),
			max:      5,
			expected: "abc\r\n",
		},
		{
			name:        "line exceeds max length",
			input:       []byte("abcdef\r\n"),
			max:         5,
			expectError: ErrLineTooLong,
		},
		{
			name:        "line with only LF",
			input:       []byte("hello\n"),
			max:         100,
			expectError: ErrBadLineEnding,
		},
		{
			name:        "single byte line",
			input:       []byte("\n"),
			max:         100,
			expectError: ErrBadLineEnding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validate(tt.input, tt.max)
			if err != tt.expectError {
				t.Errorf("validate() error = %v, want %v", err, tt.expectError)
				return
			}
			if result != tt.expected {
				t.Errorf("validate() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		max         int
		expected    string
		expectError error
	}{
		{
			name:     "simple valid line",
			input:    "From: a@example.com\r\nTo: b@example.com\r\n",
			max:      100,
			expected: "From: a@example.com\r\n",
		},
		{
			name:        "line with bad ending",
			input:       "From: a@example.com\n",
			max:         100,
			expectError: ErrBadLineEnding,
		},
		{
			name:        "line too long",
			input:       "Subject: a rather long subject line\r\n",
			max:         10,
			expectError: ErrLineTooLong,
		},
		{
			name:     "8-bit data",
			input:    "Subject: gr\xc3\xbc\xc3\x9fe\r\n",
			max:      100,
			expected: "Subject: gr\xc3\xbc\xc3\x9fe\r\n",
		},
		{
			name:     "empty line",
			input:    "\r\n",
			max:      100,
			expected: "\r\n",
		},
		{
			name:        "unterminated last line",
			input:       "Subject: hello",
			max:         100,
			expectError: ErrBadLineEnding,
		},
		{
			name:        "end of input",
			input:       "",
			max:         100,
			expectError: io.EOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := bufio.NewReader(strings.NewReader(tt.input))
			result, err := ReadLine(reader, tt.max)
			if err != tt.expectError {
				t.Errorf("ReadLine() error = %v, want %v", err, tt.expectError)
				return
			}
			if result != tt.expected {
				t.Errorf("ReadLine() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestReadLineLargerThanBuffer(t *testing.T) {
	long := "X-Long: " + strings.Repeat("a", 40) + "\r\n"

	reader := bufio.NewReaderSize(strings.NewReader(long+"Next: 1\r\n"), 16)
	line, err := ReadLine(reader, 100)
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != long {
		t.Errorf("ReadLine() = %q, want %q", line, long)
	}

	reader = bufio.NewReaderSize(strings.NewReader(long+"Next: 1\r\n"), 16)
	if _, err := ReadLine(reader, 20); !errors.Is(err, ErrLineTooLong) {
		t.Fatalf("ReadLine error = %v, want ErrLineTooLong", err)
	}
	// The rest of the long line is discarded.
	line, err = ReadLine(reader, 20)
	if err != nil {
		t.Fatalf("ReadLine after drain: %v", err)
	}
	if line != "Next: 1\r\n" {
		t.Errorf("ReadLine after drain = %q", line)
	}
}
