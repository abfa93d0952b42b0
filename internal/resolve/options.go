package resolve

import (
	"go.uber.org/zap"
)

// DefaultMaxDepth bounds result nesting. Recursive joins over long acyclic
// chains are the usual way to reach it.
const DefaultMaxDepth = 256

// Option configures a Resolver.
type Option func(*Resolver)

// WithReader installs a Reader consulted before the graph lookup.
func WithReader(r Reader) Option {
	return func(res *Resolver) {
		res.reader = r
	}
}

// WithMutator installs the handler for mutation nodes. Without one, any
// mutation fails with ErrNoMutator.
func WithMutator(m Mutator) Option {
	return func(res *Resolver) {
		res.mutator = m
	}
}

// WithTagger sets the union discriminator.
//
// Default: TableTagger
func WithTagger(t Tagger) Option {
	return func(res *Resolver) {
		if t != nil {
			res.tagger = t
		}
	}
}

// WithLogger sets the logger. Each resolution logs with a request_id field.
//
// Default: zap.NewNop()
func WithLogger(l *zap.Logger) Option {
	return func(res *Resolver) {
		if l != nil {
			res.logger = l
		}
	}
}

// WithRequestIDs sets the generator for per-resolution request IDs.
//
// Default: UUIDv7Generator
// Use NewFixedGenerator in tests for stable log output.
func WithRequestIDs(g IDGenerator) Option {
	return func(res *Resolver) {
		if g != nil {
			res.ids = g
		}
	}
}

// WithMaxDepth sets the maximum result nesting depth. Exceeding it fails the
// resolution with DEPTH_EXCEEDED.
//
// Default: 256 (DefaultMaxDepth)
// Use WithMaxDepth(4) for testing the guard.
func WithMaxDepth(n int) Option {
	return func(res *Resolver) {
		if n > 0 {
			res.maxDepth = n
		}
	}
}
