package dmarc

import (
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// OrganizationalDomain returns the organizational domain for the given domain.
//
// The organizational domain is the domain directly under the public suffix.
// For example:
//   - example.com -> example.com
//   - sub.example.com -> example.com
//   - sub.example.co.uk -> example.co.uk
func OrganizationalDomain(domain string) string {
	domain = strings.TrimSuffix(strings.ToLower(domain), ".")
	if domain == "" {
		return ""
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		// Public suffixes themselves, and names like "localhost".
		return domain
	}
	return etld1
}

// Aligned reports whether a DKIM signing domain is aligned with the From
// domain. Equal domains always align. Without strict alignment, domains
// under the same organizational domain align too, so "mail.example.com"
// aligns with "example.com".
func Aligned(sigDomain, fromDomain string, strict bool) bool {
	s := strings.TrimSuffix(strings.ToLower(sigDomain), ".")
	f := strings.TrimSuffix(strings.ToLower(fromDomain), ".")
	if s == "" || f == "" {
		return false
	}
	if s == f {
		return true
	}
	if strict {
		return false
	}
	return OrganizationalDomain(s) == OrganizationalDomain(f)
}

// FromDomain returns the lower-cased domain of the single RFC5322.From
// address in headers, which are raw header fields. A message with no From
// field, several From fields or several addresses has no usable domain.
func FromDomain(headers []string) (string, error) {
	var value string
	n := 0
	for _, h := range headers {
		name, v, ok := strings.Cut(h, ":")
		if !ok || !strings.EqualFold(strings.TrimRight(name, " \t"), "from") {
			continue
		}
		value = v
		n++
	}
	switch {
	case n == 0:
		return "", ErrNoFromHeader
	case n > 1:
		return "", fmt.Errorf("%w: %d From fields", ErrMultipleFromAddresses, n)
	}

	// unfold
	value = strings.NewReplacer("\r\n", "", "\n", "").Replace(value)
	addrs, err := mail.ParseAddressList(strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFromHeader, err)
	}
	if len(addrs) == 0 {
		return "", ErrNoFromHeader
	}
	if len(addrs) > 1 {
		return "", ErrMultipleFromAddresses
	}

	addr := addrs[0].Address
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return "", fmt.Errorf("%w: no domain in %q", ErrInvalidFromHeader, addr)
	}
	return strings.ToLower(addr[at+1:]), nil
}
