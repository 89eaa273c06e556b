package datastructure

import (
	"errors"
	"fmt"
)

// error kinds of the route pipeline. wrap them with util.WrapErrorf so the http layer can pick a status.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoMatch            = errors.New("no matching location")
	ErrAmbiguous          = errors.New("ambiguous location")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrResolutionTimeout  = errors.New("geocoder timed out")
	ErrRouteUnavailable   = errors.New("route unavailable")
	ErrProvider           = errors.New("provider error")
	ErrInvalidStrategy    = errors.New("invalid strategy")
	ErrPathNotFound       = errors.New("path not found")
	ErrEmptyRoute         = errors.New("empty route")
	ErrArtifactNotFound   = errors.New("artifact not found")
	ErrConfiguration      = errors.New("configuration error")
	ErrSelectionExhausted = fmt.Errorf("%w: retry budget exhausted", ErrInvalidSelection)
)

// AmbiguousError is returned when a free-text query matched more than one location.
type AmbiguousError struct {
	Query      string
	Candidates []CandidateLocation
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q matched %d locations, a selection is required", e.Query, len(e.Candidates))
}

func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguous
}
