package domain

import (
	"fmt"
)

// The error kinds below form a closed taxonomy. Callers branch with
// errors.As; anything else that escapes the core is a programming error.

// InvalidInputError means caller-supplied input failed local validation
// before any I/O happened. Safe to surface verbatim.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return e.Reason }

// UpstreamUnavailableError covers network-level failures and non-success
// HTTP statuses from any upstream service. Never retried.
type UpstreamUnavailableError struct {
	Service string
	Err     error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s unavailable", e.Service)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

// MalformedResponseError means an upstream answered successfully but the
// body violated the expected schema. Field names the offending field for
// diagnosis.
type MalformedResponseError struct {
	Service string
	Field   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed %s response (%s)", e.Service, e.Field)
}

// MapNotFoundError means neither the cache nor the upstream catalog knows
// the map.
type MapNotFoundError struct {
	Name string
}

func (e *MapNotFoundError) Error() string {
	return fmt.Sprintf("map %q not found", e.Name)
}

// AmbiguousMapError carries every cache row a partial name matched so the
// caller can format a disambiguation message. Terminal, not retried.
type AmbiguousMapError struct {
	Name       string
	Candidates []Map
}

func (e *AmbiguousMapError) Error() string {
	return fmt.Sprintf("map %q matches %d maps", e.Name, len(e.Candidates))
}
