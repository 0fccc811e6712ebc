package mailauth

import (
	"errors"

	"github.com/emersion/go-msgauth/authres"

	"github.com/synqronlabs/mailauth/dkim"
	"github.com/synqronlabs/mailauth/dmarc"
)

// AuthenticationResults formats r as the value of an Authentication-Results
// header field (RFC 8601) added by hostname.
func (r *Result) AuthenticationResults(hostname string) string {
	var results []authres.Result
	if r.MessageErr != nil {
		results = append(results, &authres.DKIMResult{Value: authres.ResultPermError, Reason: "malformed message"})
		return authres.Format(hostname, results)
	}
	if len(r.Signatures) == 0 {
		results = append(results, &authres.DKIMResult{Value: authres.ResultNone})
	}
	for _, sig := range r.Signatures {
		results = append(results, &authres.DKIMResult{
			Value:      dkimResultValue(sig),
			Reason:     sig.Detail,
			Domain:     sig.Domain,
			Identifier: sig.Identity,
		})
	}
	if dm := r.dmarcResult(); dm != nil {
		results = append(results, dm)
	}
	return authres.Format(hostname, results)
}

func dkimResultValue(sig *dkim.Signature) authres.ResultValue {
	switch sig.Status {
	case dkim.StatusSuccess, dkim.StatusWarning:
		return authres.ResultPass
	case dkim.StatusNone:
		return authres.ResultNone
	}

	switch {
	case errors.Is(sig.Err, dkim.ErrDNS):
		return authres.ResultTempError
	case errors.Is(sig.Err, dkim.ErrBodyHashMismatch), errors.Is(sig.Err, dkim.ErrSigVerify):
		return authres.ResultFail
	}
	return authres.ResultPermError
}

func (r *Result) dmarcResult() *authres.DMARCResult {
	switch {
	case r.DMARC != nil:
		value := authres.ResultValue(authres.ResultPass)
		if r.DMARC.Status == dkim.StatusFailed {
			value = authres.ResultFail
		}
		return &authres.DMARCResult{Value: value, From: r.FromDomain}
	case errors.Is(r.DMARCErr, dmarc.ErrNoPolicy):
		return &authres.DMARCResult{Value: authres.ResultNone, From: r.FromDomain}
	case errors.Is(r.DMARCErr, dmarc.ErrDNS):
		return &authres.DMARCResult{Value: authres.ResultTempError, From: r.FromDomain}
	case r.DMARCErr != nil:
		return &authres.DMARCResult{Value: authres.ResultPermError, Reason: r.DMARCErr.Error(), From: r.FromDomain}
	case r.FromErr != nil:
		return &authres.DMARCResult{Value: authres.ResultPermError, Reason: r.FromErr.Error()}
	}
	return nil
}
