package idxtable

import (
	"log/slog"

	"github.com/henderiw/itree/pkg/interval"
)

// ValidationFn is called before a claim; returning an error rejects it.
// Init entries bypass it.
type ValidationFn[N interval.Number] func(id string, r interval.Range[N]) error

type Option[N interval.Number] func(*table[N])

// WithBounds restricts claims to ranges covered by [min, max]. FindFree and
// ClaimDynamic need bounds.
func WithBounds[N interval.Number](min, max N) Option[N] {
	return func(r *table[N]) {
		b := interval.RangeFrom(min, max)
		r.bounds = &b
	}
}

// WithExclusive rejects claims overlapping an existing entry.
func WithExclusive[N interval.Number]() Option[N] {
	return func(r *table[N]) {
		r.exclusive = true
	}
}

func WithValidationFn[N interval.Number](fn ValidationFn[N]) Option[N] {
	return func(r *table[N]) {
		r.validateFn = fn
	}
}

// WithInitEntries claims entries when the table is created.
func WithInitEntries[N interval.Number](entries ...Entry[N]) Option[N] {
	return func(r *table[N]) {
		r.initEntries = append(r.initEntries, entries...)
	}
}

func WithLogger[N interval.Number](logger *slog.Logger) Option[N] {
	return func(r *table[N]) {
		if logger != nil {
			r.logger = logger
		}
	}
}
