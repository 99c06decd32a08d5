package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a token or artifact cannot be resolved.
	ErrNotFound = errors.New("not found")
	// ErrUpstream marks failures talking to the market data API.
	ErrUpstream = errors.New("upstream error")
	// ErrAssetMissing marks an optional rendering asset that is absent.
	ErrAssetMissing = errors.New("asset missing")
	// ErrArtifactIO marks failures writing or reading chart artifacts.
	ErrArtifactIO = errors.New("artifact io error")
)

// Upstream operations.
const (
	OpHistorical = "historical"
	OpLatest     = "latest"
	OpTrending   = "trending"
)

// UpstreamError describes a failed call to the market data API.
type UpstreamError struct {
	Op     string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s request returned status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is reports whether target is ErrUpstream so callers can classify with errors.Is.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
