package weather

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/geo"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubProvider struct {
	byLat map[float64]string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (s *stubProvider) CurrentCondition(ctx context.Context, coord geo.Coordinate) (string, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return s.byLat[coord.GetLat()], nil
}

func TestIsAdverse(t *testing.T) {
	testCases := []struct {
		cond da.WeatherCondition
		want bool
	}{
		{da.WEATHER_RAIN, true},
		{da.WEATHER_THUNDERSTORM, true},
		{da.WEATHER_SNOW, true},
		{da.WEATHER_EXTREME, true},
		{da.WEATHER_CLEAR, false},
		{da.WEATHER_CLOUDS, false},
		{da.WEATHER_DRIZZLE, false},
		{da.WEATHER_MIST, false},
		{da.WEATHER_UNKNOWN, false},
		{da.WeatherCondition("Haze"), false},
	}

	for _, tt := range testCases {
		t.Run(string(tt.cond), func(t *testing.T) {
			assert.Equal(t, tt.want, IsAdverse(tt.cond))
		})
	}
}

func TestAnnotate(t *testing.T) {
	origin := geo.NewCoordinate(1, 1)
	destination := geo.NewCoordinate(2, 2)

	testCases := []struct {
		name     string
		provider *stubProvider
		want     da.WeatherAdvisory
	}{
		{
			name:     "rain at destination",
			provider: &stubProvider{byLat: map[float64]string{1: "Clear", 2: "Rain"}},
			want:     da.WeatherAdvisory{Origin: da.WEATHER_CLEAR, Destination: da.WEATHER_RAIN, Adverse: true},
		},
		{
			name:     "mild everywhere",
			provider: &stubProvider{byLat: map[float64]string{1: "Clouds", 2: "Drizzle"}},
			want:     da.WeatherAdvisory{Origin: da.WEATHER_CLOUDS, Destination: da.WEATHER_DRIZZLE},
		},
		{
			name:     "provider failure",
			provider: &stubProvider{err: errors.New("connection refused")},
			want:     da.WeatherAdvisory{Origin: da.WEATHER_UNKNOWN, Destination: da.WEATHER_UNKNOWN},
		},
		{
			name:     "slow provider",
			provider: &stubProvider{byLat: map[float64]string{1: "Snow", 2: "Snow"}, delay: time.Second},
			want:     da.WeatherAdvisory{Origin: da.WEATHER_UNKNOWN, Destination: da.WEATHER_UNKNOWN},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdvisor(zap.NewNop(), tt.provider, 50*time.Millisecond)

			start := time.Now()
			got := a.Annotate(t.Context(), origin, destination)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int32(2), tt.provider.calls.Load())
			// lookups run concurrently
			assert.Less(t, time.Since(start), 500*time.Millisecond)
		})
	}
}
