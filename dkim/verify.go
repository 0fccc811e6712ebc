package dkim

import (
	"context"
	"crypto/rsa"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/synqronlabs/mailauth/dns"
)

var metricVerify = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mailauth_dkim_verify_total",
		Help: "DKIM signatures verified, by algorithm and status.",
	},
	[]string{
		"algorithm",
		"status",
	},
)

// Verifier provides DKIM signature verification.
type Verifier struct {
	// Resolver is the DNS resolver to use.
	Resolver dns.Resolver

	// Keys resolves public keys. If nil, a KeyResolver on Resolver with the
	// process-wide cache is used.
	Keys *KeyResolver

	// MinRSAKeyBits is the minimum RSA key size to accept.
	// Default is 1024 (per RFC 8301).
	MinRSAKeyBits int

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now returns the current time for the expiry check. Defaults to time.Now.
	Now func() time.Time
}

func (v *Verifier) logger() *slog.Logger {
	if v.Logger != nil {
		return v.Logger
	}
	return slog.Default()
}

func (v *Verifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return timeNow()
}

func (v *Verifier) keys() *KeyResolver {
	if v.Keys != nil {
		return v.Keys
	}
	return &KeyResolver{Resolver: v.Resolver, Logger: v.Logger}
}

// VerifySignature verifies one DKIM-Signature header field. Headers is the
// complete header block of the message as raw fields, CRLF included, in
// message order. Body is read from offset 0, where the message body starts.
//
// The result is never nil. Its Status is always terminal, and signatures of
// the same message do not affect each other.
func (v *Verifier) VerifySignature(ctx context.Context, field string, headers []string, body io.ReaderAt) *Signature {
	if body == nil {
		body = strings.NewReader("")
	}
	sig := ParseSignature(field)
	if !sig.Failed() {
		v.verifyParsed(ctx, sig, headers, body)
	}

	metricVerify.WithLabelValues(sig.algorithmLabel(), sig.Status.String()).Inc()
	v.logger().Debug("dkim signature verified",
		slog.String("domain", sig.Domain),
		slog.String("selector", sig.Selector),
		slog.String("status", sig.Status.String()),
		slog.String("detail", sig.Detail),
	)
	return sig
}

func (v *Verifier) verifyParsed(ctx context.Context, sig *Signature, headers []string, body io.ReaderAt) {
	if err := ValidateBodyHash(sig, io.NewSectionReader(body, 0, 1<<63-1)); err != nil {
		return
	}

	key, err := v.keys().Resolve(ctx, sig)
	if err != nil {
		sig.fail(err)
		return
	}

	if err := v.CheckSignature(sig, key, headers); err != nil {
		return
	}

	var warnings []string
	if sig.IsExpired(v.now()) {
		warnings = append(warnings, warnExpired)
	}
	if sig.truncated {
		warnings = append(warnings, warnTruncated)
	}
	if len(warnings) > 0 {
		sig.Status = StatusWarning
		sig.setDetail(strings.Join(warnings, "; "))
		return
	}
	sig.Status = StatusSuccess
}

// CheckSignature verifies the b= tag over the signed header fields with
// key, failing sig on mismatch. The body hash must already have been
// validated.
func (v *Verifier) CheckSignature(sig *Signature, key *Key, headers []string) error {
	if sig.Failed() {
		return sig.Err
	}

	if err := v.checkKey(sig, key); err != nil {
		sig.fail(err)
		return err
	}

	h := sig.Hash.Crypto().New()
	h.Write(signedData(sig, headers))
	if err := verifyWithKey(key.PublicKey, sig.Hash.Crypto(), h.Sum(nil), sig.Signature); err != nil {
		err = fmt.Errorf("%w: %v", ErrSigVerify, err)
		sig.fail(err)
		return err
	}
	return nil
}

// checkKey applies the constraints that depend on this verifier's policy
// or on the signature beyond its algorithm.
func (v *Verifier) checkKey(sig *Signature, key *Key) error {
	if rsaKey, ok := key.PublicKey.(*rsa.PublicKey); ok {
		minBits := v.MinRSAKeyBits
		if minBits == 0 {
			minBits = 1024
		}
		if rsaKey.N.BitLen() < minBits {
			return fmt.Errorf("%w: %d bits, minimum %d", ErrWeakKey, rsaKey.N.BitLen(), minBits)
		}
	}
	if key.RequireStrictIdentity() && sig.IdentityDomain() != sig.Domain {
		return fmt.Errorf("%w: %s", ErrStrictIdentity, sig.IdentityDomain())
	}
	return nil
}

// signedData returns the bytes covered by the signature: the fields named in
// h= followed by the signature field itself with an empty b= value and no
// terminator.
func signedData(sig *Signature, headers []string) []byte {
	var b strings.Builder
	picker := newHeaderPicker(headers)
	for _, name := range sig.SignedHeaders {
		field, ok := picker.pick(name)
		if !ok {
			// Nonexistent fields sign as the empty string (RFC 6376 Section 5.4).
			continue
		}
		if sig.HeaderCanon == CanonRelaxed {
			b.WriteString(canonicalizeHeaderRelaxed(field))
			b.WriteString("\r\n")
		} else {
			b.WriteString(field)
			if !strings.HasSuffix(field, "\r\n") {
				b.WriteString("\r\n")
			}
		}
	}

	blanked := blankSignature(sig.Field)
	if sig.HeaderCanon == CanonRelaxed {
		b.WriteString(canonicalizeHeaderRelaxed(blanked))
	} else {
		b.WriteString(blanked)
	}
	return []byte(b.String())
}

// blankSignature returns the DKIM-Signature field with the value of its b=
// tag removed and without the terminating CRLF. Everything else, bh=
// included, is kept byte for byte.
func blankSignature(field string) string {
	field = strings.TrimSuffix(field, "\r\n")
	colon := strings.IndexByte(field, ':')
	if colon < 0 {
		return field
	}

	var b strings.Builder
	b.WriteString(field[:colon+1])
	elems := strings.Split(field[colon+1:], ";")
	for i, elem := range elems {
		if i > 0 {
			b.WriteByte(';')
		}
		name, _, ok := strings.Cut(elem, "=")
		if ok && strings.Trim(name, " \t\r\n") == "b" {
			b.WriteString(elem[:len(name)+1])
			continue
		}
		b.WriteString(elem)
	}
	return b.String()
}

// headerPicker hands out header fields by name, last occurrence first, each
// field at most once.
type headerPicker struct {
	fields []string
	byName map[string][]int
	picked map[string]int
}

func newHeaderPicker(fields []string) *headerPicker {
	byName := make(map[string][]int)
	for i, f := range fields {
		name := headerName(f)
		byName[name] = append(byName[name], i)
	}
	return &headerPicker{
		fields: fields,
		byName: byName,
		picked: make(map[string]int),
	}
}

func (p *headerPicker) pick(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	idx := p.byName[name]
	n := p.picked[name]
	if n >= len(idx) {
		return "", false
	}
	p.picked[name] = n + 1
	return p.fields[idx[len(idx)-1-n]], true
}

// headerName returns the lower-cased field name of a raw header field.
func headerName(field string) string {
	name, _, _ := strings.Cut(field, ":")
	return strings.ToLower(strings.TrimRight(name, " \t"))
}
