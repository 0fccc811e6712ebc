package dkim

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/synqronlabs/mailauth/tagvalue"
)

// Signature represents one DKIM-Signature header field (RFC 6376 Section 3.5)
// and the outcome of verifying it.
//
// A Signature is created by ParseSignature and updated in place as
// verification proceeds. Detail is set exactly when Status is neither
// StatusSuccess nor pending, and at most once.
type Signature struct {
	// Field is the raw header field, name included.
	Field string

	Version       string   // v= Version, must be "1"
	Algorithm     string   // a= Algorithm as written (e.g., "rsa-sha256")
	KeyType       KeyType  // crypto half of a=
	Hash          HashAlg  // hash half of a=
	HeaderCanon   Canonicalization
	BodyCanon     Canonicalization
	Domain        string   // d= Signing domain, lower case
	Selector      string   // s= Selector
	SignedHeaders []string // h= Signed header fields
	Identity      string   // i= Agent or User Identifier (AUID)
	QueryMethods  []string // q= Query methods
	Length        int64    // l= Body length limit (-1 if not set)
	SignTime      int64    // t= Signature timestamp (-1 if not set)
	ExpireTime    int64    // x= Signature expiration (-1 if not set)
	Signature     []byte   // b= Signature data
	BodyHash      []byte   // bh= Body hash

	// Status is StatusNone while verification is in progress.
	Status Status
	Detail string
	Err    error

	// truncated is set when l= is shorter than the canonical body.
	truncated bool
}

// newSignature returns a Signature with the tag defaults applied.
func newSignature(field string) *Signature {
	return &Signature{
		Field:       field,
		HeaderCanon: CanonSimple,
		BodyCanon:   CanonSimple,
		Length:      -1,
		SignTime:    -1,
		ExpireTime:  -1,
	}
}

// setDetail records the human-readable outcome. It panics when called twice.
func (s *Signature) setDetail(detail string) {
	if s.Detail != "" {
		panic(fmt.Sprintf("dkim: detail already set to %q, cannot set %q", s.Detail, detail))
	}
	s.Detail = detail
}

// fail marks the signature as failed with err.
func (s *Signature) fail(err error) {
	s.Status = StatusFailed
	s.Err = err
	s.setDetail(strings.TrimPrefix(err.Error(), errPrefix))
}

// Failed reports whether verification stopped with StatusFailed.
func (s *Signature) Failed() bool {
	return s.Status == StatusFailed
}

// tagHandler stores one decoded tag value on a Signature.
type tagHandler func(s *Signature, value string) error

// signatureTags drives ParseSignature. Tags not listed here are ignored.
var signatureTags = map[string]tagHandler{
	"v":  textTag(func(s *Signature) *string { return &s.Version }),
	"a":  algorithmTag,
	"b":  base64Tag(func(s *Signature) *[]byte { return &s.Signature }),
	"bh": base64Tag(func(s *Signature) *[]byte { return &s.BodyHash }),
	"c":  canonTag,
	"d":  domainTag(func(s *Signature) *string { return &s.Domain }),
	"h":  listTag(func(s *Signature) *[]string { return &s.SignedHeaders }),
	"i":  textTag(func(s *Signature) *string { return &s.Identity }),
	"l":  integerTag(func(s *Signature) *int64 { return &s.Length }),
	"q":  listTag(func(s *Signature) *[]string { return &s.QueryMethods }),
	"s":  textTag(func(s *Signature) *string { return &s.Selector }),
	"t":  timestampTag(func(s *Signature) *int64 { return &s.SignTime }),
	"x":  timestampTag(func(s *Signature) *int64 { return &s.ExpireTime }),
}

// requiredTags must all be present in a signature.
var requiredTags = []string{"v", "a", "b", "bh", "d", "h", "s"}

func textTag(field func(*Signature) *string) tagHandler {
	return func(s *Signature, v string) error {
		*field(s) = v
		return nil
	}
}

func domainTag(field func(*Signature) *string) tagHandler {
	return func(s *Signature, v string) error {
		*field(s) = strings.ToLower(v)
		return nil
	}
}

func listTag(field func(*Signature) *[]string) tagHandler {
	return func(s *Signature, v string) error {
		*field(s) = tagvalue.SplitList(v)
		return nil
	}
}

func base64Tag(field func(*Signature) *[]byte) tagHandler {
	return func(s *Signature, v string) error {
		b, err := base64.StdEncoding.DecodeString(tagvalue.StripWhitespace(v))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBase64, err)
		}
		if len(b) == 0 {
			return ErrEmptyValue
		}
		*field(s) = b
		return nil
	}
}

// integerTag parses a non-negative decimal that fits an int64.
func integerTag(field func(*Signature) *int64) tagHandler {
	return func(s *Signature, v string) error {
		n, err := parseDecimal(v)
		if err != nil {
			return err
		}
		*field(s) = n
		return nil
	}
}

// timestampTag parses t= and x=, seconds since the Unix epoch.
func timestampTag(field func(*Signature) *int64) tagHandler {
	return integerTag(field)
}

func parseDecimal(v string) (int64, error) {
	if v == "" || strings.TrimLeft(v, "0123456789") != "" {
		return 0, fmt.Errorf("%w: %q is not a number", ErrBadValue, v)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrBadValue, v, err)
	}
	return n, nil
}

func algorithmTag(s *Signature, v string) error {
	s.Algorithm = v
	switch strings.ToLower(v) {
	case "rsa-sha1":
		s.KeyType, s.Hash = KeyRSA, HashSHA1
	case "rsa-sha256":
		s.KeyType, s.Hash = KeyRSA, HashSHA256
	case "ed25519-sha256":
		s.KeyType, s.Hash = KeyEd25519, HashSHA256
	default:
		return fmt.Errorf("%w: %s", ErrAlgorithm, v)
	}
	return nil
}

// canonTag parses c=, "header[/body]". A missing body part means simple.
func canonTag(s *Signature, v string) error {
	header, body, ok := strings.Cut(strings.ToLower(v), "/")
	if !ok {
		body = string(CanonSimple)
	}
	var err error
	if s.HeaderCanon, err = parseCanon(header); err != nil {
		return err
	}
	s.BodyCanon, err = parseCanon(body)
	return err
}

func parseCanon(v string) (Canonicalization, error) {
	switch c := Canonicalization(v); c {
	case CanonSimple, CanonRelaxed:
		return c, nil
	}
	return "", fmt.Errorf("%w: %s", ErrCanonicalization, v)
}

// ParseSignature parses a raw DKIM-Signature header field, name and colon
// included. Parse and validation failures are reported on the returned
// Signature with StatusFailed; the result is never nil.
func ParseSignature(field string) *Signature {
	sig := newSignature(field)

	_, value, ok := strings.Cut(field, ":")
	if !ok {
		sig.fail(ErrHeaderMalformed)
		return sig
	}

	tags, err := tagvalue.Parse(value)
	if err != nil {
		sig.fail(err)
		return sig
	}

	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		seen[tag.Name] = true
		handle, ok := signatureTags[tag.Name]
		if !ok {
			continue
		}
		if err := handle(sig, tag.Value); err != nil {
			sig.fail(fmt.Errorf("%w (tag %s)", err, tag.Name))
			return sig
		}
	}

	if err := sig.validate(seen); err != nil {
		sig.fail(err)
	}
	return sig
}

// validate applies the checks that need the complete tag set.
func (s *Signature) validate(seen map[string]bool) error {
	for _, tag := range requiredTags {
		if !seen[tag] {
			return fmt.Errorf("%w: %s", ErrMissingTag, tag)
		}
	}
	if s.Version != "1" {
		return fmt.Errorf("%w: %s", ErrInvalidVersion, s.Version)
	}

	hasFrom := false
	for _, h := range s.SignedHeaders {
		if strings.EqualFold(h, "From") {
			hasFrom = true
			break
		}
	}
	if !hasFrom {
		return ErrFromNotSigned
	}

	if s.Identity != "" && !identityUnderDomain(s.Identity, s.Domain) {
		return fmt.Errorf("%w: identity %s not under signing domain %s", ErrDomainMismatch, s.Identity, s.Domain)
	}

	if len(s.QueryMethods) > 0 {
		dnsTXT := false
		for _, m := range s.QueryMethods {
			if strings.EqualFold(m, "dns/txt") {
				dnsTXT = true
				break
			}
		}
		if !dnsTXT {
			return fmt.Errorf("%w: %s", ErrQueryMethod, strings.Join(s.QueryMethods, ":"))
		}
	}

	if isPublicSuffix(s.Domain) {
		return fmt.Errorf("%w: %s", ErrPublicSuffix, s.Domain)
	}
	return nil
}

// IdentityDomain returns the domain part of the i= tag, lower case. Without
// i= the AUID defaults to "@d".
func (s *Signature) IdentityDomain() string {
	if s.Identity == "" {
		return s.Domain
	}
	i := strings.LastIndexByte(s.Identity, '@')
	return strings.ToLower(s.Identity[i+1:])
}

// identityUnderDomain reports whether the AUID ends in domain, and the
// character before it is "@" or ".".
func identityUnderDomain(identity, domain string) bool {
	identity = strings.ToLower(identity)
	if domain == "" || !strings.HasSuffix(identity, domain) {
		return false
	}
	n := len(identity) - len(domain)
	return n > 0 && (identity[n-1] == '@' || identity[n-1] == '.')
}

// isPublicSuffix reports whether domain is itself a public suffix such as
// "com" or "co.uk", which cannot own a signing key.
func isPublicSuffix(domain string) bool {
	domain = strings.TrimSuffix(domain, ".")
	if domain == "" {
		return true
	}
	suffix, _ := publicsuffix.PublicSuffix(domain)
	return suffix == domain
}

// IsExpired reports whether x= lies before now.
func (s *Signature) IsExpired(now time.Time) bool {
	return s.ExpireTime >= 0 && now.Unix() > s.ExpireTime
}

// algorithmLabel names the checked algorithm, or "unknown" when a= was
// missing or not recognized.
func (s *Signature) algorithmLabel() string {
	if s.KeyType == "" || s.Hash == "" {
		return "unknown"
	}
	return string(s.KeyType) + "-" + string(s.Hash)
}
