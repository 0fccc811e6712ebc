// Package mailauth verifies the DKIM signatures of a message and evaluates
// them against the DMARC policy of its From domain.
//
// # Verification
//
// Verify a message held in wire form (CRLF line endings):
//
//	v := &mailauth.Verifier{Resolver: dns.NewResolver(dns.ResolverConfig{})}
//	result, err := v.VerifyMessage(ctx, bytes.NewReader(raw))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.ShortMessage())
//
// Callers that already split the message use Verify with the raw header
// fields and the body:
//
//	result := v.Verify(ctx, headers, body)
//
// Every DKIM-Signature field is verified independently. When the From domain
// publishes a DMARC policy, the overall status is the DMARC verdict;
// otherwise it is the best signature status, or StatusNone for a message
// without signatures.
//
// # Reports
//
// A Result renders as a one-line summary, a multi-paragraph report, or an
// Authentication-Results header value (RFC 8601):
//
//	result.ShortMessage()
//	result.LongMessage()
//	result.AuthenticationResults("mx.example.com")
//
// # Serialization
//
// JSON Serialization:
//
//	jsonData, err := result.ToJSON()
//
// MessagePack Serialization:
//
//	msgpackData, err := result.ToMessagePack()
//
// MessagePack Deserialization:
//
//	report, err := mailauth.FromMessagePack(msgpackData)
//
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Caching
//
// Public keys and DMARC policies are cached for the lifetime of the process,
// see dkim.DefaultKeyCache and dmarc.DefaultPolicyCache.
package mailauth
