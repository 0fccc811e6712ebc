package dmarc

import (
	"github.com/synqronlabs/mailauth/dkim"
)

// Verdict is the DMARC outcome for one message.
type Verdict struct {
	// Status is StatusFailed when no aligned signature verified. Otherwise
	// it is the status of the chosen aligned signature.
	Status dkim.Status

	// Domain is the From domain that was evaluated.
	Domain string

	// PolicyDomain is the domain that published the policy.
	PolicyDomain string

	// Policy is the policy in effect for Domain: the subdomain policy when
	// Domain is below PolicyDomain and sp= is set, p= otherwise.
	Policy Policy

	// Signature is the chosen aligned signature, nil when there is none.
	Signature *dkim.Signature

	// AlignedFailed is set when aligned signatures exist but all failed.
	AlignedFailed bool

	// Reject is set when the message failed and the policy asks receivers
	// to quarantine or reject it.
	Reject bool
}

// Evaluate applies policy to the verified signatures of a message from
// fromDomain. Among the aligned signatures that did not fail, the one with
// the least severe status is chosen, the earliest on ties.
func Evaluate(policy *PolicyRecord, fromDomain string, sigs []*dkim.Signature) Verdict {
	v := Verdict{
		Status:       dkim.StatusFailed,
		Domain:       fromDomain,
		PolicyDomain: policy.Domain,
		Policy:       policy.Record.EffectivePolicy(policy.Domain != fromDomain),
	}

	strict := policy.Record.StrictAlignment()
	for _, sig := range sigs {
		if sig.Status == dkim.StatusNone || !Aligned(sig.Domain, fromDomain, strict) {
			continue
		}
		if sig.Failed() {
			v.AlignedFailed = true
			continue
		}
		if v.Signature == nil || sig.Status.Better(v.Signature.Status) {
			v.Signature = sig
			v.Status = sig.Status
		}
	}
	if v.Signature != nil {
		v.AlignedFailed = false
	}

	v.Reject = v.Status == dkim.StatusFailed && v.Policy != PolicyNone
	return v
}
