package dmarc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/synqronlabs/mailauth/cache"
	"github.com/synqronlabs/mailauth/dns"
)

var metricLookup = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mailauth_dmarc_lookup_duration_seconds",
		Help:    "DMARC policy resolution duration, including the walk up to ancestor domains.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.100, 0.5, 1, 5, 10, 20},
	},
	[]string{"result"},
)

// PolicyRecord is a resolved DMARC policy.
type PolicyRecord struct {
	// Record is the parsed TXT record.
	Record *Record

	// Domain is the domain that published the record. It is the From domain
	// or one of its ancestors.
	Domain string

	// Authentic is set when the answer was DNSSEC-validated.
	Authentic bool
}

// PolicyCache is the cache type used for policies, keyed by From domain.
type PolicyCache = cache.Cache[string, *PolicyRecord]

// DefaultPolicyCache returns the process-wide policy cache, created on first
// use.
var DefaultPolicyCache = sync.OnceValue(func() *PolicyCache {
	return cache.New[string, *PolicyRecord]("dmarc_policy")
})

// PolicyResolver looks up and caches DMARC policies.
type PolicyResolver struct {
	// Resolver is the DNS resolver to use.
	Resolver dns.Resolver

	// Cache stores resolved policies. Nil means DefaultPolicyCache().
	Cache *PolicyCache

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// PolicyName returns the DNS name holding the DMARC record for domain.
func PolicyName(domain string) string {
	return "_dmarc." + strings.TrimSuffix(domain, ".") + "."
}

// Resolve returns the policy for fromDomain. When "_dmarc.<domain>" does
// not exist, the left-most label is removed and the parent is tried, as
// long as at least two labels remain. The walk stops at the first record
// found, and on any DNS error other than NXDOMAIN.
//
// Only found policies are cached. The error wraps ErrNoPolicy when the walk
// was exhausted, ErrDNS for other lookup failures, and ErrSyntax for a
// malformed record.
func (r *PolicyResolver) Resolve(ctx context.Context, fromDomain string) (*PolicyRecord, error) {
	c := r.Cache
	if c == nil {
		c = DefaultPolicyCache()
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	domain := strings.TrimSuffix(strings.ToLower(fromDomain), ".")
	return c.GetOrResolve(ctx, domain, func(ctx context.Context) (*PolicyRecord, error) {
		start := time.Now()
		p, err := r.walk(ctx, domain)

		result := "found"
		switch {
		case errors.Is(err, ErrNoPolicy):
			result = "none"
		case err != nil:
			result = "error"
			logger.Warn("dmarc policy lookup failed",
				slog.String("domain", domain),
				slog.Any("error", err),
			)
		default:
			logger.Debug("dmarc policy resolved",
				slog.String("domain", domain),
				slog.String("policy_domain", p.Domain),
				slog.String("policy", string(p.Record.Policy)),
			)
		}
		metricLookup.WithLabelValues(result).Observe(float64(time.Since(start)) / float64(time.Second))
		return p, err
	})
}

func (r *PolicyResolver) walk(ctx context.Context, domain string) (*PolicyRecord, error) {
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain", ErrNoPolicy)
	}

	for name := domain; ; {
		record, res, err := dns.LookupRecord[*Record](ctx, r.Resolver, PolicyName(name), policyEvaluator{})
		switch {
		case err == nil:
			return &PolicyRecord{Record: record, Domain: name, Authentic: res.Authentic}, nil
		case errors.Is(err, ErrSyntax):
			return nil, fmt.Errorf("%s: %w", name, err)
		case !dns.IsNotFound(err):
			return nil, fmt.Errorf("%w: %s: %w", ErrDNS, PolicyName(name), err)
		}

		_, parent, ok := strings.Cut(name, ".")
		if !ok || !strings.Contains(parent, ".") {
			return nil, fmt.Errorf("%w: %s", ErrNoPolicy, domain)
		}
		name = parent
	}
}
