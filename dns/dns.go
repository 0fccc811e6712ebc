// Package dns is the boundary between the verification engine and the
// network. It defines the TXT lookup interface consumed by the DKIM key and
// DMARC policy resolvers, and ships two implementations: DNSResolver, built on
// github.com/miekg/dns, and StdResolver, built on the standard library.
package dns

import (
	"context"
	"errors"
)

// Resolver performs TXT lookups. Names may be given with or without the
// trailing dot.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) (Result[string], error)
}

// Result holds the records from a lookup together with the DNSSEC status of
// the response.
type Result[T any] struct {
	Records []T

	// Authentic is true when the response was DNSSEC-validated by the
	// upstream resolver (AD bit set).
	Authentic bool
}

// Lookup errors. NXDOMAIN and an empty answer both map to ErrDNSNotFound.
var (
	ErrDNSNotFound = errors.New("dns: record not found")
	ErrDNSTimeout  = errors.New("dns: query timed out")
	ErrDNSServFail = errors.New("dns: server failure")
	ErrDNSRefused  = errors.New("dns: query refused")
	ErrDNSBogus    = errors.New("dns: DNSSEC validation failed")
)

// IsNotFound reports whether err means the name has no records.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDNSNotFound)
}

// IsTimeout reports whether err is a query timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrDNSTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsServFail reports whether err is a SERVFAIL answer.
func IsServFail(err error) bool {
	return errors.Is(err, ErrDNSServFail)
}

// IsTemporary reports whether a later retry of the same query might succeed.
func IsTemporary(err error) bool {
	return IsTimeout(err) || IsServFail(err) || errors.Is(err, ErrDNSRefused)
}
