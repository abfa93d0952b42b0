package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// ResolutionError aborts a resolution. No partial result accompanies it.
//
// Missing data is never a ResolutionError; it is omitted from the result.
type ResolutionError struct {
	// Code identifies the error category.
	Code ResolutionErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the result path of the node being resolved, e.g.
	// ["current-user", "friends"]. Empty for whole-query errors.
	Path []string

	// Err is the underlying cause, if any.
	Err error
}

// ResolutionErrorCode categorizes resolution errors.
type ResolutionErrorCode string

const (
	// ErrCodeInvalidQuery indicates a structurally invalid AST.
	ErrCodeInvalidQuery ResolutionErrorCode = "INVALID_QUERY"

	// ErrCodeReadFailed indicates a Reader returned an error.
	ErrCodeReadFailed ResolutionErrorCode = "READ_FAILED"

	// ErrCodeCancelled indicates the context ended before resolution finished.
	ErrCodeCancelled ResolutionErrorCode = "CANCELLED"

	// ErrCodeDepthExceeded indicates nesting beyond the configured maximum.
	ErrCodeDepthExceeded ResolutionErrorCode = "DEPTH_EXCEEDED"
)

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " (path=%s)", strings.Join(e.Path, "/"))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// MutationError reports a failed mutation. Err is whatever the Mutator
// returned; it is not retried.
type MutationError struct {
	Name string
	Err  error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("mutation %s failed: %v", e.Name, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// ErrNoMutator is the cause of a MutationError when a query contains a
// mutation but the resolver has no Mutator.
var ErrNoMutator = errors.New("no mutator configured")

// ErrRootNotFound is returned by ResolveIdent when the ident addresses no
// entity.
var ErrRootNotFound = errors.New("root entity not found")

// IsInvalidQuery returns true if err is an INVALID_QUERY resolution error.
// Uses errors.As to handle wrapped errors.
func IsInvalidQuery(err error) bool {
	return hasCode(err, ErrCodeInvalidQuery)
}

// IsReadFailed returns true if err is a READ_FAILED resolution error.
func IsReadFailed(err error) bool {
	return hasCode(err, ErrCodeReadFailed)
}

// IsCancelled returns true if err is a CANCELLED resolution error.
func IsCancelled(err error) bool {
	return hasCode(err, ErrCodeCancelled)
}

// IsDepthExceeded returns true if err is a DEPTH_EXCEEDED resolution error.
func IsDepthExceeded(err error) bool {
	return hasCode(err, ErrCodeDepthExceeded)
}

// IsMutationError returns true if err is or wraps a *MutationError.
func IsMutationError(err error) bool {
	var me *MutationError
	return errors.As(err, &me)
}

func hasCode(err error, code ResolutionErrorCode) bool {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}
