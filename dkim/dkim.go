// Package dkim verifies DomainKeys Identified Mail (DKIM) signatures per
// RFC 6376.
//
// Supported algorithms:
//   - RSA-SHA256 (required by RFC 6376)
//   - RSA-SHA1 (deprecated, but supported for compatibility)
//   - Ed25519-SHA256 (RFC 8463)
//
// Each DKIM-Signature header field is verified independently by
// Verifier.VerifySignature, which runs the steps parse, body hash, key
// lookup and signature check in that order and stops at the first failure.
// The outcome is recorded on the returned Signature:
//
//	v := &dkim.Verifier{Resolver: resolver}
//	sig := v.VerifySignature(ctx, field, headers, body)
//	if sig.Status == dkim.StatusFailed {
//	    log.Print(sig.Detail)
//	}
//
// Public keys are cached process-wide, see DefaultKeyCache.
package dkim

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	_ "crypto/sha1"
	_ "crypto/sha256"
)

// Status is the outcome of verifying one signature, or of a whole message.
// Statuses other than StatusNone are ordered by severity.
type Status int

const (
	// StatusNone means there was nothing to verify.
	StatusNone Status = iota

	// StatusSuccess means the signature verified.
	StatusSuccess

	// StatusWarning means the signature verified, with a caveat such as
	// expiry or partial body coverage.
	StatusWarning

	// StatusFailed means the signature is unusable.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case StatusSuccess:
		return "SUCCESS"
	case StatusWarning:
		return "WARNING"
	case StatusFailed:
		return "FAILED"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Better reports whether s is less severe than o. StatusNone is never
// better than a real outcome.
func (s Status) Better(o Status) bool {
	if s == StatusNone {
		return false
	}
	if o == StatusNone {
		return true
	}
	return s < o
}

// KeyType is the crypto half of the a= tag, and the k= tag of key records.
type KeyType string

const (
	KeyRSA     KeyType = "rsa"
	KeyEd25519 KeyType = "ed25519"
)

// HashAlg is the hash half of the a= tag.
type HashAlg string

const (
	HashSHA1   HashAlg = "sha1"
	HashSHA256 HashAlg = "sha256"
)

// Crypto returns the digest implementing h.
func (h HashAlg) Crypto() crypto.Hash {
	if h == HashSHA1 {
		return crypto.SHA1
	}
	return crypto.SHA256
}

// Canonicalization represents header/body canonicalization algorithms.
type Canonicalization string

const (
	// CanonSimple uses the "simple" canonicalization algorithm.
	CanonSimple Canonicalization = "simple"

	// CanonRelaxed uses the "relaxed" canonicalization algorithm.
	CanonRelaxed Canonicalization = "relaxed"
)

// Verification errors. Signature.Err wraps one of these; Signature.Detail
// carries the same text without the package prefix.
var (
	// Parsing.
	ErrMissingTag        = errors.New("dkim: required tag missing")
	ErrInvalidVersion    = errors.New("dkim: unsupported version")
	ErrAlgorithm         = errors.New("dkim: unsupported algorithm")
	ErrCanonicalization  = errors.New("dkim: unsupported canonicalization")
	ErrQueryMethod       = errors.New("dkim: unsupported query method")
	ErrBadValue          = errors.New("dkim: invalid tag value")
	ErrBase64            = errors.New("dkim: malformed base64 value")
	ErrEmptyValue        = errors.New("dkim: empty value")
	ErrFromNotSigned     = errors.New("dkim: From field not signed")
	ErrDomainMismatch    = errors.New("dkim: domain mismatch")
	ErrPublicSuffix      = errors.New("dkim: signing domain is a public suffix")
	ErrHeaderMalformed   = errors.New("dkim: mail header is malformed")
	ErrBodyHashMismatch  = errors.New("dkim: body hash mismatch")
	ErrSigVerify         = errors.New("dkim: signature verification failed")
	ErrNoRecord          = errors.New("dkim: no key record found")
	ErrDNS               = errors.New("dkim: key lookup failed")
	ErrKeySyntax         = errors.New("dkim: malformed key record")
	ErrKeyRevoked        = errors.New("dkim: public key has been revoked")
	ErrKeyAlgorithm      = errors.New("dkim: bad key crypto algorithm")
	ErrHashNotAllowed    = errors.New("dkim: hash algorithm not allowed by key")
	ErrServiceNotAllowed = errors.New("dkim: key not allowed for email")
	ErrStrictIdentity    = errors.New("dkim: key requires i= domain to equal d=")
	ErrWeakKey           = errors.New("dkim: key too weak")
)

const errPrefix = "dkim: "

// Warnings attached to verified signatures.
const (
	warnExpired   = "valid, but has expired"
	warnTruncated = "body hash does not cover the complete body"
)

// timeNow is used for testing.
var timeNow = time.Now

// verifyWithKey checks sig over digest. Ed25519 signs the digest with
// PureEdDSA (RFC 8463 Section 3).
func verifyWithKey(key crypto.PublicKey, hash crypto.Hash, digest, sig []byte) error {
	switch k := key.(type) {
	case *rsa.PublicKey:
		return rsa.VerifyPKCS1v15(k, hash, digest, sig)
	case ed25519.PublicKey:
		if !ed25519.Verify(k, digest, sig) {
			return errors.New("ed25519: invalid signature")
		}
		return nil
	default:
		return fmt.Errorf("unsupported public key type %T", key)
	}
}
