package resolver

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/geo"
	"github.com/lintang-b-s/minimap/pkg/provider/geocoder"
	"github.com/lintang-b-s/minimap/pkg/util"
	"go.uber.org/zap"
)

type Resolver struct {
	log           *zap.Logger
	geocoder      geocoder.Geocoder
	timeout       time.Duration
	maxCandidates int
}

func NewResolver(log *zap.Logger, geocoder geocoder.Geocoder, timeout time.Duration, maxCandidates int) *Resolver {
	return &Resolver{
		log:           log,
		geocoder:      geocoder,
		timeout:       timeout,
		maxCandidates: maxCandidates,
	}
}

// Resolve returns the single coordinate query names. more than one match yields *da.AmbiguousError.
func (r *Resolver) Resolve(ctx context.Context, query string) (geo.Coordinate, error) {
	candidates, err := r.ResolveMany(ctx, query)
	if err != nil {
		return geo.Coordinate{}, err
	}
	if len(candidates) > 1 {
		return geo.Coordinate{}, &da.AmbiguousError{Query: strings.TrimSpace(query), Candidates: candidates}
	}
	return candidates[0].Coordinate, nil
}

// ResolveMany returns every valid candidate for query, at most maxCandidates, best match first.
// a "lat,lon" query is parsed locally.
func (r *Resolver) ResolveMany(ctx context.Context, query string) ([]da.CandidateLocation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, util.WrapErrorf(da.ErrInvalidInput, util.ErrBadParamInput, "location query must not be empty")
	}

	if coord, ok, err := geo.ParseCoordinatePair(query); ok {
		if err != nil {
			return nil, util.WrapErrorf(da.ErrInvalidInput, util.ErrBadParamInput, "location %q: %v", query, err)
		}
		return []da.CandidateLocation{{Label: query, Coordinate: coord}}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	found, err := r.geocoder.Geocode(ctx, query, r.maxCandidates)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, da.ErrResolutionTimeout) {
			return nil, util.WrapErrorf(da.ErrResolutionTimeout, util.ErrGatewayTimeout,
				"geocoder timed out resolving %q, try again", query)
		}
		return nil, err
	}

	candidates := make([]da.CandidateLocation, 0, util.MinInt(len(found), r.maxCandidates))
	for _, c := range found {
		if len(candidates) == r.maxCandidates {
			break
		}
		if err := c.Coordinate.Validate(); err != nil {
			r.log.Debug("dropping geocoder candidate", zap.String("label", c.Label), zap.Error(err))
			continue
		}
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		return nil, util.WrapErrorf(da.ErrNoMatch, util.ErrBadParamInput, "no matching location found for %q", query)
	}

	r.log.Debug("resolved location", zap.String("query", query), zap.Int("candidates", len(candidates)))
	return candidates, nil
}

// Select picks a candidate by its 1-based position as shown to the user.
func Select(candidates []da.CandidateLocation, selection string) (da.CandidateLocation, error) {
	idx, err := selectIndex(len(candidates), selection)
	if err != nil {
		return da.CandidateLocation{}, err
	}
	return candidates[idx], nil
}

func selectIndex(n int, selection string) (int, error) {
	selection = strings.TrimSpace(selection)
	idx, err := strconv.Atoi(selection)
	if err != nil {
		return -1, util.WrapErrorf(da.ErrInvalidSelection, util.ErrUnprocessable,
			"selection %q is not a number", selection)
	}
	if idx < 1 || idx > n {
		return -1, util.WrapErrorf(da.ErrInvalidSelection, util.ErrUnprocessable,
			"selection %d is out of range, choose 1-%d", idx, n)
	}
	return idx - 1, nil
}
