package dns

import (
	"context"
	"slices"
	"sync"
)

// MockResolver is a Resolver used for testing.
// TXT maps FQDNs (with trailing dot) to the records returned for them.
type MockResolver struct {
	TXT map[string][]string

	// Fail contains names that will return a temporary error (SERVFAIL).
	// Format: "txt name.", e.g. "txt example.com.".
	Fail []string

	// AllAuthentic sets the value of Authentic in responses.
	AllAuthentic bool

	mu      sync.Mutex
	queries []string
}

var _ Resolver = (*MockResolver)(nil)

// ensureFQDN ensures the name ends with a dot.
func ensureFQDN(name string) string {
	if len(name) == 0 || name[len(name)-1] != '.' {
		return name + "."
	}
	return name
}

// LookupTXT returns TXT records for the given name and records the query.
func (r *MockResolver) LookupTXT(ctx context.Context, name string) (Result[string], error) {
	fqdn := ensureFQDN(name)

	r.mu.Lock()
	r.queries = append(r.queries, fqdn)
	r.mu.Unlock()

	result := Result[string]{Authentic: r.AllAuthentic}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if slices.Contains(r.Fail, "txt "+fqdn) {
		return result, ErrDNSServFail
	}

	records, ok := r.TXT[fqdn]
	if !ok || len(records) == 0 {
		return result, ErrDNSNotFound
	}

	result.Records = records
	return result, nil
}

// Queries returns the names looked up so far, in order.
func (r *MockResolver) Queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.queries)
}

// QueryCount returns how many lookups were made for name.
func (r *MockResolver) QueryCount(name string) int {
	fqdn := ensureFQDN(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, q := range r.queries {
		if q == fqdn {
			n++
		}
	}
	return n
}
