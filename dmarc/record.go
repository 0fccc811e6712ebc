package dmarc

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/synqronlabs/mailauth/dns"
	"github.com/synqronlabs/mailauth/tagvalue"
)

// URI is a destination address for DMARC aggregate or failure reports.
type URI struct {
	// Address is the full URI, typically starting with "mailto:".
	Address string

	// MaxSize is the optional maximum report size.
	MaxSize uint64

	// Unit is the size unit: "" (bytes), "k", "m", "g", or "t".
	Unit string
}

// String returns the URI formatted for a DMARC record.
func (u URI) String() string {
	s := u.Address
	s = strings.ReplaceAll(s, ",", "%2C")
	s = strings.ReplaceAll(s, "!", "%21")
	if u.MaxSize > 0 {
		s += fmt.Sprintf("!%d", u.MaxSize)
	}
	s += u.Unit
	return s
}

// Record is a parsed DMARC DNS TXT record.
//
// Example record:
//
//	v=DMARC1; p=reject; rua=mailto:dmarc@example.com
type Record struct {
	// Version must be "DMARC1".
	Version string

	// Policy is the requested policy for messages that fail DMARC. Required.
	Policy Policy

	// SubdomainPolicy is the policy for subdomains. If empty, Policy applies.
	SubdomainPolicy Policy

	// AggregateReportAddresses are URIs for aggregate reports (rua tag).
	AggregateReportAddresses []URI

	// FailureReportAddresses are URIs for failure reports (ruf tag).
	FailureReportAddresses []URI

	// ADKIM is the DKIM alignment mode, AlignRelaxed by default.
	ADKIM Align

	// ASPF is the SPF alignment mode. It is parsed for completeness only.
	ASPF Align

	// AggregateReportingInterval is the reporting interval in seconds.
	AggregateReportingInterval int

	// FailureReportingOptions control when failure reports are sent.
	FailureReportingOptions []string

	// ReportingFormat is the format for failure reports.
	ReportingFormat []string

	// Percentage of messages to which the policy applies, 0 to 100.
	Percentage int
}

// DefaultRecord holds the default values for a DMARC record.
var DefaultRecord = Record{
	Version:                    "DMARC1",
	ADKIM:                      AlignRelaxed,
	ASPF:                       AlignRelaxed,
	AggregateReportingInterval: 86400,
	FailureReportingOptions:    []string{"0"},
	ReportingFormat:            []string{"afrf"},
	Percentage:                 100,
}

// String returns the DMARC record formatted for DNS TXT. Tags at their
// default value are left out.
func (r Record) String() string {
	var b strings.Builder
	b.WriteString("v=")
	b.WriteString(r.Version)

	write := func(do bool, tag, value string) {
		if do {
			fmt.Fprintf(&b, "; %s=%s", tag, value)
		}
	}
	uris := func(l []URI) string {
		s := make([]string, len(l))
		for i, u := range l {
			s[i] = u.String()
		}
		return strings.Join(s, ",")
	}

	write(r.Policy != "", "p", string(r.Policy))
	write(r.SubdomainPolicy != "", "sp", string(r.SubdomainPolicy))
	write(len(r.AggregateReportAddresses) > 0, "rua", uris(r.AggregateReportAddresses))
	write(len(r.FailureReportAddresses) > 0, "ruf", uris(r.FailureReportAddresses))
	write(r.ADKIM != AlignRelaxed, "adkim", string(r.ADKIM))
	write(r.ASPF != AlignRelaxed, "aspf", string(r.ASPF))
	write(r.AggregateReportingInterval != 86400, "ri", strconv.Itoa(r.AggregateReportingInterval))
	write(!isDefaultList(r.FailureReportingOptions, "0"), "fo", strings.Join(r.FailureReportingOptions, ":"))
	write(!isDefaultList(r.ReportingFormat, "afrf"), "rf", strings.Join(r.ReportingFormat, ":"))
	write(r.Percentage != 100, "pct", strconv.Itoa(r.Percentage))

	return b.String()
}

func isDefaultList(l []string, def string) bool {
	return len(l) == 0 || len(l) == 1 && l[0] == def
}

// EffectivePolicy returns SubdomainPolicy for subdomains of the policy
// domain when it is set, and Policy otherwise.
func (r *Record) EffectivePolicy(isSubdomain bool) Policy {
	if isSubdomain && r.SubdomainPolicy != PolicyEmpty {
		return r.SubdomainPolicy
	}
	return r.Policy
}

// StrictAlignment reports whether adkim=s was requested.
func (r *Record) StrictAlignment() bool {
	return r.ADKIM == AlignStrict
}

// ParseRecord parses a DMARC TXT record. The first tag must be v=DMARC1,
// otherwise the text is reported as dns.ErrNotApplicable so callers can
// skip unrelated records. The p= tag is required.
//
// Values that are case-insensitive in DMARC are returned in lower case.
func ParseRecord(txt string) (*Record, error) {
	tags, err := tagvalue.Parse(txt)
	if err != nil {
		if !strings.HasPrefix(strings.TrimSpace(txt), "v=DMARC1") {
			return nil, dns.ErrNotApplicable
		}
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if len(tags) == 0 || !strings.EqualFold(tags[0].Name, "v") || tags[0].Value != "DMARC1" {
		return nil, dns.ErrNotApplicable
	}

	r := DefaultRecord
	seenPolicy := false
	for _, tag := range tags[1:] {
		value := strings.ToLower(tag.Value)
		switch strings.ToLower(tag.Name) {
		case "p":
			p, ok := parsePolicy(value)
			if !ok {
				return nil, fmt.Errorf("%w: bad policy %q", ErrSyntax, tag.Value)
			}
			r.Policy = p
			seenPolicy = true

		case "sp":
			p, ok := parsePolicy(value)
			if !ok {
				return nil, fmt.Errorf("%w: bad subdomain policy %q", ErrSyntax, tag.Value)
			}
			r.SubdomainPolicy = p

		case "adkim", "aspf":
			a := Align(value)
			if a != AlignRelaxed && a != AlignStrict {
				return nil, fmt.Errorf("%w: bad alignment %s=%q", ErrSyntax, tag.Name, tag.Value)
			}
			if strings.EqualFold(tag.Name, "adkim") {
				r.ADKIM = a
			} else {
				r.ASPF = a
			}

		case "rua", "ruf":
			var uris []URI
			for _, v := range strings.Split(tag.Value, ",") {
				u, err := parseURI(strings.TrimSpace(v))
				if err != nil {
					return nil, err
				}
				uris = append(uris, u)
			}
			if strings.EqualFold(tag.Name, "rua") {
				r.AggregateReportAddresses = uris
			} else {
				r.FailureReportAddresses = uris
			}

		case "ri":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: bad reporting interval %q", ErrSyntax, tag.Value)
			}
			r.AggregateReportingInterval = n

		case "fo":
			r.FailureReportingOptions = tagvalue.SplitList(value)

		case "rf":
			r.ReportingFormat = tagvalue.SplitList(value)

		case "pct":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 || n > 100 {
				return nil, fmt.Errorf("%w: bad percentage %q", ErrSyntax, tag.Value)
			}
			r.Percentage = n
		}
	}

	if !seenPolicy {
		return nil, fmt.Errorf("%w: missing required tag p", ErrSyntax)
	}
	return &r, nil
}

// parseURI parses a rua/ruf element: a URI with an optional "!size[unit]".
func parseURI(v string) (URI, error) {
	addr, size, hasSize := strings.Cut(v, "!")
	u, err := url.Parse(addr)
	if err != nil {
		return URI{}, fmt.Errorf("%w: parsing uri %q: %v", ErrSyntax, addr, err)
	}
	if u.Scheme == "" {
		return URI{}, fmt.Errorf("%w: missing scheme in uri %q", ErrSyntax, addr)
	}

	uri := URI{Address: addr}
	if hasSize {
		if size != "" {
			switch size[len(size)-1] {
			case 'k', 'K', 'm', 'M', 'g', 'G', 't', 'T':
				uri.Unit = strings.ToLower(size[len(size)-1:])
				size = size[:len(size)-1]
			}
		}
		uri.MaxSize, err = strconv.ParseUint(size, 10, 64)
		if err != nil {
			return URI{}, fmt.Errorf("%w: parsing max size for uri %q: %v", ErrSyntax, addr, err)
		}
	}
	return uri, nil
}

// policyEvaluator parses DMARC records found in DNS.
type policyEvaluator struct{}

func (policyEvaluator) Evaluate(txt string) (*Record, error) {
	return ParseRecord(txt)
}
