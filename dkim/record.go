package dkim

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/synqronlabs/mailauth/dns"
	"github.com/synqronlabs/mailauth/tagvalue"
)

// Key is a DKIM public key record (RFC 6376 Section 3.6.1), published at
// <selector>._domainkey.<domain>, together with the parsed key.
type Key struct {
	// Version is "DKIM1" or empty when v= was omitted.
	Version string

	// Hashes is the list of acceptable hash algorithms (e.g., "sha256", "sha1").
	// Empty means all algorithms are acceptable.
	Hashes []string

	// KeyType is the k= tag, lower case. Empty when k= was omitted.
	KeyType KeyType

	// Notes contains optional human-readable notes.
	Notes string

	// Services lists acceptable service types.
	// Empty or containing "*" means all services.
	Services []string

	// Flags contains key flags:
	//   "y" - Domain is testing DKIM
	//   "s" - i= domain must exactly match d= domain
	Flags []string

	// PublicKey is *rsa.PublicKey or ed25519.PublicKey.
	PublicKey crypto.PublicKey

	// raw is the decoded p= tag. Empty means revoked.
	raw []byte
}

// ServiceAllowed returns true if the given service is allowed by this key.
func (k *Key) ServiceAllowed(service string) bool {
	if len(k.Services) == 0 {
		return true
	}
	for _, s := range k.Services {
		if s == "*" || strings.EqualFold(s, service) {
			return true
		}
	}
	return false
}

// HashAllowed returns true if the given hash algorithm is allowed.
func (k *Key) HashAllowed(hash HashAlg) bool {
	if len(k.Hashes) == 0 {
		return true
	}
	for _, h := range k.Hashes {
		if strings.EqualFold(h, string(hash)) {
			return true
		}
	}
	return false
}

// IsTesting returns true if the key is marked for testing (t=y).
func (k *Key) IsTesting() bool {
	return k.hasFlag("y")
}

// RequireStrictIdentity returns true if the i= domain must equal d= (t=s).
func (k *Key) RequireStrictIdentity() bool {
	return k.hasFlag("s")
}

func (k *Key) hasFlag(flag string) bool {
	for _, f := range k.Flags {
		if strings.EqualFold(f, flag) {
			return true
		}
	}
	return false
}

// Bits returns the key size, 256 for Ed25519.
func (k *Key) Bits() int {
	switch pk := k.PublicKey.(type) {
	case *rsa.PublicKey:
		return pk.N.BitLen()
	case ed25519.PublicKey:
		return 256
	}
	return 0
}

// parseKeyTags parses the tags of a key record without decoding the key
// material. A record with v= other than DKIM1, or with neither v= nor p=,
// is reported as not applicable.
func parseKeyTags(txt string) (*Key, error) {
	tags, err := tagvalue.Parse(txt)
	if err != nil {
		if !looksLikeKey(txt) {
			return nil, dns.ErrNotApplicable
		}
		return nil, fmt.Errorf("%w: %v", ErrKeySyntax, err)
	}

	if v, ok := tags.Get("v"); ok && v != "DKIM1" {
		return nil, dns.ErrNotApplicable
	}
	if !tags.Has("v") && !tags.Has("p") {
		return nil, dns.ErrNotApplicable
	}

	key := &Key{}
	for _, tag := range tags {
		switch tag.Name {
		case "v":
			key.Version = tag.Value
		case "h":
			key.Hashes = tagvalue.SplitList(tag.Value)
		case "k":
			key.KeyType = KeyType(strings.ToLower(tag.Value))
		case "n":
			key.Notes = tag.Value
		case "s":
			key.Services = tagvalue.SplitList(tag.Value)
		case "t":
			key.Flags = tagvalue.SplitList(tag.Value)
		case "p":
			raw, err := base64.StdEncoding.DecodeString(tagvalue.StripWhitespace(tag.Value))
			if err != nil {
				return nil, fmt.Errorf("%w: invalid public key encoding: %v", ErrKeySyntax, err)
			}
			key.raw = raw
		}
	}

	if !tags.Has("p") {
		return nil, fmt.Errorf("%w: missing public key (p=)", ErrKeySyntax)
	}
	return key, nil
}

// ParseKeyRecord parses a key record for use with a signature of the given
// algorithm. It reports revoked keys, k= and h= mismatches, keys not
// usable for email, and undecodable key material.
func ParseKeyRecord(txt string, kt KeyType, hash HashAlg) (*Key, error) {
	key, err := parseKeyTags(txt)
	if err != nil {
		return nil, err
	}

	if len(key.raw) == 0 {
		return nil, ErrKeyRevoked
	}

	// k= defaults to rsa, but an Ed25519 key must say so.
	switch {
	case key.KeyType == "" && kt == KeyEd25519:
		return nil, fmt.Errorf("%w: record has no k= tag, signature uses %s", ErrKeyAlgorithm, kt)
	case key.KeyType != "" && key.KeyType != kt:
		return nil, fmt.Errorf("%w: record specifies %s, signature uses %s", ErrKeyAlgorithm, key.KeyType, kt)
	}

	if !key.HashAllowed(hash) {
		return nil, fmt.Errorf("%w: record allows %s, signature uses %s",
			ErrHashNotAllowed, strings.Join(key.Hashes, ":"), hash)
	}
	if !key.ServiceAllowed("email") {
		return nil, fmt.Errorf("%w: services %s", ErrServiceNotAllowed, strings.Join(key.Services, ":"))
	}

	pk, err := parsePublicKey(kt, key.raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySyntax, err)
	}
	key.PublicKey = pk
	return key, nil
}

// parsePublicKey decodes p= material. RSA keys are SubjectPublicKeyInfo,
// with bare PKCS#1 accepted as well; Ed25519 keys are 32 raw bytes.
func parsePublicKey(kt KeyType, data []byte) (crypto.PublicKey, error) {
	switch kt {
	case KeyRSA:
		pk, err := x509.ParsePKIXPublicKey(data)
		if err != nil {
			if rsaPK, perr := x509.ParsePKCS1PublicKey(data); perr == nil {
				return rsaPK, nil
			}
			return nil, fmt.Errorf("invalid RSA public key: %w", err)
		}
		rsaPK, ok := pk.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("expected RSA public key, got %T", pk)
		}
		return rsaPK, nil

	case KeyEd25519:
		if len(data) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid Ed25519 public key size: %d", len(data))
		}
		return ed25519.PublicKey(data), nil

	default:
		return nil, fmt.Errorf("unsupported key type: %s", kt)
	}
}

// keyEvaluator parses key records found in DNS for one signature algorithm.
type keyEvaluator struct {
	keyType KeyType
	hash    HashAlg
}

func (e keyEvaluator) Evaluate(txt string) (*Key, error) {
	return ParseKeyRecord(txt, e.keyType, e.hash)
}

// looksLikeKey reports whether a record that failed to parse was meant as a
// DKIM key: its first tag is v=DKIM1, or it has no v= first and carries a
// k= or p= tag.
func looksLikeKey(txt string) bool {
	for i, elem := range strings.Split(txt, ";") {
		name, value, ok := strings.Cut(elem, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if i == 0 && name == "v" {
			return strings.TrimSpace(value) == "DKIM1"
		}
		if name == "k" || name == "p" {
			return true
		}
	}
	return false
}
