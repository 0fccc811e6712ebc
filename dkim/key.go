package dkim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/synqronlabs/mailauth/cache"
	"github.com/synqronlabs/mailauth/dns"
)

// KeyCacheKey identifies a cached public key.
type KeyCacheKey struct {
	Selector string
	Domain   string
	KeyType  KeyType
	Hash     HashAlg
}

// KeyCache is the cache type used for public keys.
type KeyCache = cache.Cache[KeyCacheKey, *Key]

// DefaultKeyCache returns the process-wide key cache, created on first use.
var DefaultKeyCache = sync.OnceValue(func() *KeyCache {
	return cache.New[KeyCacheKey, *Key]("dkim_key")
})

// KeyResolver looks up and caches DKIM public keys.
type KeyResolver struct {
	// Resolver is the DNS resolver to use.
	Resolver dns.Resolver

	// Cache stores resolved keys. Nil means DefaultKeyCache().
	Cache *KeyCache

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// KeyName returns the DNS name holding the key for selector and domain.
func KeyName(selector, domain string) string {
	return selector + "._domainkey." + domain + "."
}

// Resolve returns the key for the signature's selector, domain and
// algorithm. Only successful lookups are cached.
func (r *KeyResolver) Resolve(ctx context.Context, sig *Signature) (*Key, error) {
	c := r.Cache
	if c == nil {
		c = DefaultKeyCache()
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ck := KeyCacheKey{
		Selector: sig.Selector,
		Domain:   sig.Domain,
		KeyType:  sig.KeyType,
		Hash:     sig.Hash,
	}
	return c.GetOrResolve(ctx, ck, func(ctx context.Context) (*Key, error) {
		return r.lookup(ctx, logger, ck)
	})
}

func (r *KeyResolver) lookup(ctx context.Context, logger *slog.Logger, ck KeyCacheKey) (*Key, error) {
	name := KeyName(ck.Selector, ck.Domain)

	key, _, err := dns.LookupRecord[*Key](ctx, r.Resolver, name, keyEvaluator{keyType: ck.KeyType, hash: ck.Hash})
	switch {
	case err == nil:
	case isKeyError(err):
		return nil, err
	case dns.IsNotFound(err):
		return nil, fmt.Errorf("%w: %s", ErrNoRecord, name)
	default:
		logger.Warn("dkim key lookup failed",
			slog.String("name", name),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: %s: %w", ErrDNS, name, err)
	}

	logger.Debug("dkim key resolved",
		slog.String("name", name),
		slog.Int("bits", key.Bits()),
	)
	return key, nil
}

// isKeyError reports whether err came from parsing a key record rather than
// from DNS.
func isKeyError(err error) bool {
	for _, target := range []error{ErrKeySyntax, ErrKeyRevoked, ErrKeyAlgorithm, ErrHashNotAllowed, ErrServiceNotAllowed} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
