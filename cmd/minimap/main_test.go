package main

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/resolver"
	"github.com/lintang-b-s/minimap/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGeocoder struct {
	results  map[string][]da.CandidateLocation
	timeouts int
}

func (s *stubGeocoder) Geocode(ctx context.Context, query string, limit int) ([]da.CandidateLocation, error) {
	if s.timeouts > 0 {
		s.timeouts--
		return nil, util.WrapErrorf(da.ErrResolutionTimeout, util.ErrGatewayTimeout,
			"geocoder timed out resolving %q, try again", query)
	}
	return s.results[query], nil
}

func newPrompter(input string, timeouts int) (*prompter, *bytes.Buffer) {
	geocoder := &stubGeocoder{timeouts: timeouts, results: map[string][]da.CandidateLocation{
		"Springfield": {
			da.NewCandidateLocation("Springfield, Illinois", 39.7990175, -89.6439575),
			da.NewCandidateLocation("Springfield, Massachusetts", 42.1018764, -72.5886727),
			da.NewCandidateLocation("Springfield, Missouri", 37.2081729, -93.2922715),
		},
		"Chicago": {da.NewCandidateLocation("Chicago, Illinois", 41.8755616, -87.6244212)},
	}}
	var out bytes.Buffer
	return &prompter{
		scanner:  bufio.NewScanner(strings.NewReader(input)),
		w:        &out,
		resolver: resolver.NewResolver(zap.NewNop(), geocoder, time.Second, maxSuggestions),
		budget:   3,
	}, &out
}

func TestPrompterLocation(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		timeouts  int
		wantLabel string
		wantErr   error
		wantOut   []string
	}{
		{
			name:      "single match",
			input:     "Chicago\n",
			wantLabel: "Chicago, Illinois",
		},
		{
			name:      "pick by number",
			input:     "Springfield\n2\n",
			wantLabel: "Springfield, Massachusetts",
			wantOut:   []string{"Multiple locations found:", "3. Springfield, Missouri"},
		},
		{
			name:      "invalid then valid",
			input:     "Springfield\n7\nthree\n3\n",
			wantLabel: "Springfield, Missouri",
			wantOut:   []string{"2 attempts left", "1 attempts left"},
		},
		{
			name:      "retry with another name",
			input:     "Springfield\nretry\nChicago\n",
			wantLabel: "Chicago, Illinois",
		},
		{
			name:      "no match asks again",
			input:     "Atlantis\nChicago\n",
			wantLabel: "Chicago, Illinois",
			wantOut:   []string{"no matching location found"},
		},
		{
			name:      "geocoder timeout asks again",
			input:     "Chicago\nChicago\n",
			timeouts:  1,
			wantLabel: "Chicago, Illinois",
			wantOut:   []string{"timed out", "try again"},
		},
		{
			name:      "gps coordinates",
			input:     "-7.7956,110.3695\n",
			wantLabel: "-7.7956,110.3695",
		},
		{
			name:    "budget exhausted",
			input:   "Springfield\n0\n4\nx\n1\n",
			wantErr: da.ErrSelectionExhausted,
		},
		{
			name:    "input ends",
			input:   "Springfield\n",
			wantErr: errNoInput,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			p, out := newPrompter(tt.input, tt.timeouts)
			got, err := p.location(context.Background(), "Enter start location: ")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, got.Label)
			for _, s := range tt.wantOut {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}
