package mailauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/synqronlabs/mailauth/dkim"
	"github.com/synqronlabs/mailauth/dmarc"
)

// dateLayout is used for signature timestamps in reports.
const dateLayout = "2006-01-02 15:04:05 MST"

// Result is the outcome of verifying one message.
type Result struct {
	// ID identifies this verification pass in logs.
	ID ulid.ULID

	// Time is when verification started.
	Time time.Time

	// Status is the DMARC verdict when a policy applied, the best signature
	// status otherwise.
	Status dkim.Status

	// FromDomain is the domain of the From address, empty if FromErr is set.
	FromDomain string
	FromErr    error

	// Signatures holds one entry per DKIM-Signature field, in message order.
	Signatures []*dkim.Signature

	// DMARC is the policy evaluation, nil when no policy applied.
	DMARC *dmarc.Verdict

	// DMARCErr is set when a From domain was found but no policy could be
	// resolved for it, dmarc.ErrNoPolicy included.
	DMARCErr error

	// MessageErr is set when the header could not be parsed. Nothing else
	// was checked and Status is dkim.StatusFailed.
	MessageErr error
}

// ShortMessage returns a one-line summary.
func (r *Result) ShortMessage() string {
	if r.MessageErr != nil {
		return "Malformed message"
	}
	if r.DMARC != nil {
		v := r.DMARC
		switch {
		case v.Signature != nil:
			return validMessage(v.Signature.Domain, v.Status)
		case v.AlignedFailed:
			return "Invalid DKIM signature for " + v.Domain
		default:
			return "DKIM signature for " + v.Domain + " missing"
		}
	}

	best := bestSignature(r.Signatures)
	switch {
	case best == nil:
		return "No DKIM signature"
	case best.Failed() && best.Domain == "":
		return "Invalid DKIM signature"
	case best.Failed():
		return "Invalid DKIM signature for " + best.Domain
	}
	return validMessage(best.Domain, best.Status)
}

func validMessage(domain string, status dkim.Status) string {
	s := "Valid DKIM signature for " + domain
	if status == dkim.StatusWarning {
		s += " with warnings"
	}
	return s
}

// LongMessage returns a report with one paragraph on the signatures and one
// on DMARC, or a single line for a malformed message.
func (r *Result) LongMessage() string {
	if r.MessageErr != nil {
		return fmt.Sprintf("The message was not verified: %v\n", r.MessageErr)
	}

	var b strings.Builder
	if len(r.Signatures) == 0 {
		b.WriteString("The message has no DKIM signatures.\n")
	} else {
		b.WriteString("DKIM signatures:\n")
		for _, sig := range r.Signatures {
			writeSignature(&b, sig)
		}
	}

	b.WriteString("\n")
	switch {
	case r.DMARC != nil:
		writeVerdict(&b, r.DMARC)
	case errors.Is(r.DMARCErr, dmarc.ErrNoPolicy):
		fmt.Fprintf(&b, "DMARC: %s publishes no policy.\n", r.FromDomain)
	case r.DMARCErr != nil:
		fmt.Fprintf(&b, "DMARC: policy lookup for %s failed: %v\n", r.FromDomain, r.DMARCErr)
	case r.FromErr != nil:
		fmt.Fprintf(&b, "DMARC: not evaluated: %v\n", r.FromErr)
	}
	return b.String()
}

func writeSignature(b *strings.Builder, sig *dkim.Signature) {
	domain := sig.Domain
	if domain == "" {
		domain = "(unknown domain)"
	}
	fmt.Fprintf(b, "- %s", domain)
	if sig.Selector != "" {
		fmt.Fprintf(b, ", selector %s", sig.Selector)
	}
	if sig.Algorithm != "" {
		fmt.Fprintf(b, ", %s", sig.Algorithm)
	}
	fmt.Fprintf(b, ": %s\n", sig.Status)

	if sig.SignTime >= 0 {
		fmt.Fprintf(b, "  Created: %s\n", formatTimestamp(sig.SignTime))
	}
	if sig.ExpireTime >= 0 {
		fmt.Fprintf(b, "  Expires: %s\n", formatTimestamp(sig.ExpireTime))
	}
	if sig.Detail != "" {
		fmt.Fprintf(b, "  Detail: %s\n", sig.Detail)
	}
}

func writeVerdict(b *strings.Builder, v *dmarc.Verdict) {
	fmt.Fprintf(b, "DMARC policy for %s: %s", v.Domain, v.Policy)
	if v.PolicyDomain != v.Domain {
		fmt.Fprintf(b, " (published by %s)", v.PolicyDomain)
	}
	b.WriteString("\n")

	switch {
	case v.Signature != nil:
		fmt.Fprintf(b, "Aligned signature: %s (%s)\n", v.Signature.Domain, v.Status)
	case v.AlignedFailed:
		b.WriteString("No aligned signature verified.\n")
	default:
		fmt.Fprintf(b, "No signature is aligned with %s.\n", v.Domain)
	}
	if v.Reject {
		fmt.Fprintf(b, "The domain asks receivers to %s messages that fail.\n", v.Policy)
	}
}

func formatTimestamp(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(dateLayout)
}

//go:generate msgp -io=false -tests=false

// Report is the serializable form of a Result.
type Report struct {
	ID           string            `json:"id" msg:"id"`
	Time         int64             `json:"time" msg:"time"`
	Status       string            `json:"status" msg:"status"`
	FromDomain   string            `json:"from_domain,omitempty" msg:"from_domain"`
	Signatures   []SignatureReport `json:"signatures,omitempty" msg:"signatures"`
	PolicyDomain string            `json:"policy_domain,omitempty" msg:"policy_domain"`
	Policy       string            `json:"policy,omitempty" msg:"policy"`
	Reject       bool              `json:"reject,omitempty" msg:"reject"`
	ShortMessage string            `json:"short_message" msg:"short_message"`
	LongMessage  string            `json:"long_message" msg:"long_message"`
}

// SignatureReport is the serializable form of one verified signature.
type SignatureReport struct {
	Domain     string `json:"domain,omitempty" msg:"domain"`
	Selector   string `json:"selector,omitempty" msg:"selector"`
	Algorithm  string `json:"algorithm,omitempty" msg:"algorithm"`
	Status     string `json:"status" msg:"status"`
	Detail     string `json:"detail,omitempty" msg:"detail"`
	SignTime   int64  `json:"sign_time" msg:"sign_time"`
	ExpireTime int64  `json:"expire_time" msg:"expire_time"`
}

// Report returns the serializable form of r.
func (r *Result) Report() *Report {
	rep := &Report{
		ID:           r.ID.String(),
		Time:         r.Time.Unix(),
		Status:       r.Status.String(),
		FromDomain:   r.FromDomain,
		ShortMessage: r.ShortMessage(),
		LongMessage:  r.LongMessage(),
	}
	for _, sig := range r.Signatures {
		rep.Signatures = append(rep.Signatures, SignatureReport{
			Domain:     sig.Domain,
			Selector:   sig.Selector,
			Algorithm:  sig.Algorithm,
			Status:     sig.Status.String(),
			Detail:     sig.Detail,
			SignTime:   sig.SignTime,
			ExpireTime: sig.ExpireTime,
		})
	}
	if r.DMARC != nil {
		rep.PolicyDomain = r.DMARC.PolicyDomain
		rep.Policy = string(r.DMARC.Policy)
		rep.Reject = r.DMARC.Reject
	}
	return rep
}

// ToJSON serializes the report of r to JSON bytes.
func (r *Result) ToJSON() ([]byte, error) {
	return json.Marshal(r.Report())
}

// ToJSONIndent serializes the report of r to pretty-printed JSON bytes.
func (r *Result) ToJSONIndent() ([]byte, error) {
	return json.MarshalIndent(r.Report(), "", "  ")
}

// FromJSON deserializes a Report from JSON bytes.
func FromJSON(data []byte) (*Report, error) {
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// ToMessagePack serializes the report of r to MessagePack bytes.
func (r *Result) ToMessagePack() ([]byte, error) {
	return r.Report().MarshalMsg(nil)
}

// FromMessagePack deserializes a Report from MessagePack bytes.
func FromMessagePack(data []byte) (*Report, error) {
	var rep Report
	rest, err := rep.UnmarshalMsg(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReport, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedReport, len(rest))
	}
	return &rep, nil
}
