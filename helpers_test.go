package mailauth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/synqronlabs/mailauth/cache"
	"github.com/synqronlabs/mailauth/dkim"
	"github.com/synqronlabs/mailauth/dmarc"
	"github.com/synqronlabs/mailauth/dns"
)

const (
	// 2023-11-14 22:13:20 UTC
	testSignTime int64 = 1700000000
)

func testNow() time.Time {
	return time.Unix(testSignTime+100, 0)
}

var generateTestKey = sync.OnceValues(func() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, 2048)
})

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := generateTestKey()
	if err != nil {
		t.Fatalf("generating RSA key: %v", err)
	}
	return key
}

// keyRecord returns the DKIM key record publishing the public half of key.
func keyRecord(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshaling public key: %v", err)
	}
	return "v=DKIM1; k=rsa; p=" + base64.StdEncoding.EncodeToString(der)
}

// testSigner produces rsa-sha256 relaxed/relaxed signatures.
type testSigner struct {
	key        *rsa.PrivateKey
	domain     string
	selector   string
	headers    []string
	signTime   int64
	expireTime int64
}

func newTestSigner(t *testing.T, domain string) *testSigner {
	return &testSigner{
		key:        testKey(t),
		domain:     domain,
		selector:   "test",
		headers:    []string{"From", "To", "Subject", "Date"},
		signTime:   testSignTime,
		expireTime: -1,
	}
}

// sign returns message with a DKIM-Signature field prepended.
func (s *testSigner) sign(t *testing.T, message string) string {
	t.Helper()

	headers, body, err := ParseMessage(strings.NewReader(message))
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	raw, err := io.ReadAll(io.NewSectionReader(body, 0, int64(len(message))))
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	bh := sha256.Sum256(dkim.CanonicalizeBody(raw, dkim.CanonRelaxed))

	var b strings.Builder
	fmt.Fprintf(&b, "DKIM-Signature: v=1; a=rsa-sha256; c=relaxed/relaxed; d=%s; s=%s;\r\n\t", s.domain, s.selector)
	if s.signTime >= 0 {
		fmt.Fprintf(&b, "t=%d; ", s.signTime)
	}
	if s.expireTime >= 0 {
		fmt.Fprintf(&b, "x=%d; ", s.expireTime)
	}
	fmt.Fprintf(&b, "h=%s;\r\n\tbh=%s; b=", strings.Join(s.headers, ":"), base64.StdEncoding.EncodeToString(bh[:]))
	field := b.String()

	var data strings.Builder
	for _, name := range s.headers {
		for i := len(headers) - 1; i >= 0; i-- {
			if strings.HasPrefix(strings.ToLower(headers[i]), strings.ToLower(name)+":") {
				data.WriteString(dkim.CanonicalizeHeader(headers[i], dkim.CanonRelaxed))
				data.WriteString("\r\n")
				break
			}
		}
	}
	data.WriteString(dkim.CanonicalizeHeader(field, dkim.CanonRelaxed))

	sum := sha256.Sum256([]byte(data.String()))
	sig, err := rsa.SignPKCS1v15(nil, s.key, crypto.SHA256, sum[:])
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	return field + base64.StdEncoding.EncodeToString(sig) + "\r\n" + message
}

// newTestVerifier returns a Verifier with private caches and a fixed clock.
func newTestVerifier(resolver *dns.MockResolver) *Verifier {
	return &Verifier{
		Resolver: resolver,
		DKIM: &dkim.Verifier{
			Resolver: resolver,
			Keys: &dkim.KeyResolver{
				Resolver: resolver,
				Cache:    cache.New[dkim.KeyCacheKey, *dkim.Key]("test"),
			},
			Now: testNow,
		},
		DMARC: &dmarc.PolicyResolver{
			Resolver: resolver,
			Cache:    cache.New[string, *dmarc.PolicyRecord]("test"),
		},
		Now: testNow,
	}
}

func verifyTestMessage(t *testing.T, v *Verifier, message string) *Result {
	t.Helper()
	res, err := v.VerifyMessage(t.Context(), strings.NewReader(message))
	if err != nil {
		t.Fatalf("VerifyMessage: %v", err)
	}
	return res
}

const testMessage = "From: Alice <alice@example.com>\r\n" +
	"To: bob@example.org\r\n" +
	"Subject: quarterly report\r\n" +
	"Date: Tue, 14 Nov 2023 22:13:20 +0000\r\n" +
	"Message-ID: <report@example.com>\r\n" +
	"\r\n" +
	"Hello Bob,\r\n" +
	"\r\n" +
	"the report is attached.\r\n"
