// Package dmarc resolves DMARC policies (RFC 7489) and checks DKIM
// identifier alignment against the RFC5322.From domain.
//
// DMARC ties the domain that users see in the "From" header to the domains
// that signed the message. A domain publishes its policy as a TXT record at
// "_dmarc.<domain>". When the From domain has no record, the resolver walks
// up the name one label at a time, stopping before the last label.
//
// # Basic Usage
//
//	pr := &dmarc.PolicyResolver{Resolver: resolver}
//
//	from, err := dmarc.FromDomain(headers)
//	if err != nil {
//	    // no usable From address
//	}
//	policy, err := pr.Resolve(ctx, from)
//	if err != nil {
//	    // dmarc.ErrNoPolicy, or a DNS or syntax error
//	}
//
//	verdict := dmarc.Evaluate(policy, from, signatures)
//	if verdict.Status == dkim.StatusFailed {
//	    // no aligned signature verified
//	}
//
// # Alignment
//
// A DKIM signature is aligned when its d= domain equals the From domain. In
// relaxed mode (adkim=r, the default) it is enough that both share an
// organizational domain, in either direction: "mail.example.com" aligns with
// "example.com", and "example.com" with "news.example.com". Strict mode
// (adkim=s) requires the exact From domain.
//
// Policies are cached process-wide by From domain. A cache entry records
// the ancestor that actually answered.
//
// # References
//
//   - RFC 7489: Domain-based Message Authentication, Reporting, and Conformance (DMARC)
//   - RFC 6376: DomainKeys Identified Mail (DKIM) Signatures
package dmarc
