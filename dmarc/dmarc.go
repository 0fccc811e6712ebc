package dmarc

import (
	"errors"
)

// DMARC lookup and evaluation errors.
var (
	// ErrNoPolicy indicates no DMARC record was found for the domain or any
	// of its ancestors.
	ErrNoPolicy = errors.New("dmarc: no policy")

	// ErrSyntax indicates the DMARC record has invalid syntax.
	ErrSyntax = errors.New("dmarc: malformed DMARC DNS record")

	// ErrDNS indicates a DNS lookup error other than NXDOMAIN.
	ErrDNS = errors.New("dmarc: DNS lookup error")

	// ErrNoFromHeader indicates the message has no From header.
	ErrNoFromHeader = errors.New("dmarc: no From header in message")

	// ErrInvalidFromHeader indicates the From header could not be parsed or
	// its address has no domain.
	ErrInvalidFromHeader = errors.New("dmarc: invalid From header")

	// ErrMultipleFromAddresses indicates more than one From address.
	// DMARC can only evaluate a single From domain.
	ErrMultipleFromAddresses = errors.New("dmarc: multiple addresses in From header")
)

// Policy determines how receivers should handle messages that fail DMARC.
type Policy string

const (
	// PolicyEmpty is only for the optional SubdomainPolicy field.
	PolicyEmpty Policy = ""

	// PolicyNone requests no specific action be taken for failing messages.
	PolicyNone Policy = "none"

	// PolicyQuarantine requests that failing messages be treated as suspicious.
	PolicyQuarantine Policy = "quarantine"

	// PolicyReject requests that failing messages be rejected.
	PolicyReject Policy = "reject"
)

func parsePolicy(v string) (Policy, bool) {
	switch p := Policy(v); p {
	case PolicyNone, PolicyQuarantine, PolicyReject:
		return p, true
	}
	return PolicyEmpty, false
}

// Align specifies the alignment mode for identifier comparison.
type Align string

const (
	// AlignRelaxed accepts signing domains below the policy domain.
	// This is the default mode.
	AlignRelaxed Align = "r"

	// AlignStrict requires exact domain matches.
	AlignStrict Align = "s"
)
