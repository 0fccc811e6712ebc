package dns

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotApplicable is returned by an Evaluator for a TXT record of another
// kind, for example an SPF record published at the same name.
var ErrNotApplicable = errors.New("dns: record not applicable")

// Evaluator turns one TXT record into a typed value.
type Evaluator[T any] interface {
	Evaluate(txt string) (T, error)
}

// LookupRecord looks up the TXT records at name and returns the evaluation
// of the first applicable one. If no record applies, the error wraps
// ErrDNSNotFound.
func LookupRecord[T any](ctx context.Context, r Resolver, name string, ev Evaluator[T]) (T, Result[string], error) {
	var zero T

	res, err := r.LookupTXT(ctx, name)
	if err != nil {
		return zero, res, err
	}

	for _, txt := range res.Records {
		v, err := ev.Evaluate(txt)
		if errors.Is(err, ErrNotApplicable) {
			continue
		}
		return v, res, err
	}
	return zero, res, fmt.Errorf("%w: no applicable record at %s", ErrDNSNotFound, name)
}
