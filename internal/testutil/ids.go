package testutil

// FixedRequestID returns the same request ID every time.
//
// Unlike resolve.FixedGenerator which steps through a list, every resolution
// sees the one token. Scenario runs use it so captured logs are identical
// across runs.
//
// Thread-safety: FixedRequestID is stateless and safe for concurrent use.
type FixedRequestID struct {
	id string
}

// NewFixedRequestID creates a fixed request ID generator.
//
// If id is empty, Generate() returns "test-request-default".
func NewFixedRequestID(id string) *FixedRequestID {
	if id == "" {
		id = "test-request-default"
	}
	return &FixedRequestID{id: id}
}

// Generate returns the fixed ID.
//
// Implements resolve.IDGenerator.
func (g *FixedRequestID) Generate() string {
	return g.id
}
