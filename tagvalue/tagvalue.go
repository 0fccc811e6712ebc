// Package tagvalue parses the tag=value lists used by DKIM-Signature header
// fields (RFC 6376 Section 3.2), DKIM key records and DMARC policy records.
package tagvalue

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformed is returned for an element without "=" or with an empty
	// tag name.
	ErrMalformed = errors.New("malformed header element")

	// ErrDuplicate is returned when a single-letter tag or "bh" occurs twice.
	ErrDuplicate = errors.New("duplicated tag")
)

// whitespace trimmed around tags and values; folding CRLFs included.
const whitespace = " \t\r\n"

// Tag is one tag=value pair. Name and Value are trimmed, Value keeps any
// interior whitespace.
type Tag struct {
	Name  string
	Value string
}

// List is the ordered result of Parse.
type List []Tag

// Get returns the value of the last tag with the given name.
func (l List) Get(name string) (string, bool) {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].Name == name {
			return l[i].Value, true
		}
	}
	return "", false
}

// Has reports whether the list contains name.
func (l List) Has(name string) bool {
	_, ok := l.Get(name)
	return ok
}

// Parse splits s on ";" and each element on its first "=". A single trailing
// empty element is allowed. Tag names are case-sensitive.
//
// A repeated single-letter tag or a repeated "bh" is an error. Other
// repeated tags are kept; Get returns the last one.
func Parse(s string) (List, error) {
	elems := strings.Split(s, ";")
	if n := len(elems); n > 0 && strings.Trim(elems[n-1], whitespace) == "" {
		elems = elems[:n-1]
	}

	list := make(List, 0, len(elems))
	seen := make(map[string]bool, len(elems))
	for _, elem := range elems {
		name, value, ok := strings.Cut(elem, "=")
		name = strings.Trim(name, whitespace)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformed, strings.Trim(elem, whitespace))
		}

		if strict(name) {
			if seen[name] {
				return nil, fmt.Errorf("%w: %s", ErrDuplicate, name)
			}
			seen[name] = true
		}

		list = append(list, Tag{Name: name, Value: strings.Trim(value, whitespace)})
	}
	return list, nil
}

// strict reports whether duplicates of name are rejected.
func strict(name string) bool {
	return len(name) == 1 || name == "bh"
}

// SplitList splits a colon-separated value such as the h= tag, trimming
// elements and dropping empty ones.
func SplitList(v string) []string {
	var out []string
	for _, e := range strings.Split(v, ":") {
		if e = strings.Trim(e, whitespace); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// StripWhitespace removes all FWS, as required before base64 decoding.
func StripWhitespace(v string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, v)
}
