package mailauth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/synqronlabs/mailauth/dkim"
	"github.com/synqronlabs/mailauth/dmarc"
	"github.com/synqronlabs/mailauth/dns"
)

// Verifier runs DKIM and DMARC verification for whole messages. The zero
// value is not usable; Resolver must be set unless both DKIM and DMARC are.
type Verifier struct {
	// Resolver is the DNS resolver to use.
	Resolver dns.Resolver

	// DKIM verifies signatures. Nil means a dkim.Verifier on Resolver.
	DKIM *dkim.Verifier

	// DMARC resolves policies. Nil means a dmarc.PolicyResolver on Resolver.
	DMARC *dmarc.PolicyResolver

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
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
	return time.Now()
}

func (v *Verifier) dkimVerifier(logger *slog.Logger) *dkim.Verifier {
	if v.DKIM != nil {
		return v.DKIM
	}
	return &dkim.Verifier{Resolver: v.Resolver, Logger: logger, Now: v.Now}
}

func (v *Verifier) policyResolver(logger *slog.Logger) *dmarc.PolicyResolver {
	if v.DMARC != nil {
		return v.DMARC
	}
	return &dmarc.PolicyResolver{Resolver: v.Resolver, Logger: logger}
}

// VerifyMessage splits msg with ParseMessage and verifies it. A message
// whose header is malformed gets a failed Result with MessageErr set. The
// error is only set when msg cannot be read.
func (v *Verifier) VerifyMessage(ctx context.Context, msg io.ReaderAt) (*Result, error) {
	headers, body, err := ParseMessage(msg)
	if errors.Is(err, ErrMalformedMessage) {
		res := v.newResult()
		res.Status = dkim.StatusFailed
		res.MessageErr = err
		v.logger().Info("message rejected",
			slog.String("verification_id", res.ID.String()),
			slog.Any("error", err),
		)
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	return v.Verify(ctx, headers, body), nil
}

func (v *Verifier) newResult() *Result {
	now := v.now()
	return &Result{
		ID:   ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		Time: now,
	}
}

// Verify verifies every DKIM-Signature field in headers against body and
// applies the DMARC policy of the From domain. Headers are raw fields, CRLF
// included, in message order; body is read from offset 0.
//
// The result is never nil.
func (v *Verifier) Verify(ctx context.Context, headers []string, body io.ReaderAt) *Result {
	res := v.newResult()
	logger := v.logger().With(slog.String("verification_id", res.ID.String()))

	dk := v.dkimVerifier(logger)
	for _, field := range headers {
		if isSignatureField(field) {
			res.Signatures = append(res.Signatures, dk.VerifySignature(ctx, field, headers, body))
		}
	}

	res.Status = bestStatus(res.Signatures)
	from, err := dmarc.FromDomain(headers)
	if err != nil {
		res.FromErr = err
	} else {
		res.FromDomain = from
		policy, err := v.policyResolver(logger).Resolve(ctx, from)
		if err != nil {
			res.DMARCErr = err
		} else {
			verdict := dmarc.Evaluate(policy, from, res.Signatures)
			res.DMARC = &verdict
			res.Status = verdict.Status
		}
	}

	attrs := []any{
		slog.String("status", res.Status.String()),
		slog.Int("signatures", len(res.Signatures)),
		slog.String("from_domain", res.FromDomain),
	}
	if res.DMARC != nil {
		attrs = append(attrs,
			slog.String("policy_domain", res.DMARC.PolicyDomain),
			slog.String("policy", string(res.DMARC.Policy)),
		)
	}
	logger.Info("message verified", attrs...)
	return res
}

// bestSignature returns the first signature with the least severe status,
// nil when there is none.
func bestSignature(sigs []*dkim.Signature) *dkim.Signature {
	var best *dkim.Signature
	for _, sig := range sigs {
		if best == nil || sig.Status.Better(best.Status) {
			best = sig
		}
	}
	return best
}

func bestStatus(sigs []*dkim.Signature) dkim.Status {
	if best := bestSignature(sigs); best != nil {
		return best.Status
	}
	return dkim.StatusNone
}
