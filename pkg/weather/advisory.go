package weather

import (
	"context"
	"time"

	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/geo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Provider interface {
	CurrentCondition(ctx context.Context, coord geo.Coordinate) (string, error)
}

// Advisor looks up the weather at route endpoints. every failure degrades to WEATHER_UNKNOWN.
type Advisor struct {
	log      *zap.Logger
	provider Provider
	timeout  time.Duration
}

func NewAdvisor(log *zap.Logger, provider Provider, timeout time.Duration) *Advisor {
	return &Advisor{log: log, provider: provider, timeout: timeout}
}

var adverse = map[da.WeatherCondition]struct{}{
	da.WEATHER_RAIN:         {},
	da.WEATHER_THUNDERSTORM: {},
	da.WEATHER_SNOW:         {},
	da.WEATHER_EXTREME:      {},
}

func IsAdverse(cond da.WeatherCondition) bool {
	_, ok := adverse[cond]
	return ok
}

var known = map[string]da.WeatherCondition{
	"Clear":        da.WEATHER_CLEAR,
	"Clouds":       da.WEATHER_CLOUDS,
	"Drizzle":      da.WEATHER_DRIZZLE,
	"Rain":         da.WEATHER_RAIN,
	"Thunderstorm": da.WEATHER_THUNDERSTORM,
	"Snow":         da.WEATHER_SNOW,
	"Mist":         da.WEATHER_MIST,
	"Fog":          da.WEATHER_FOG,
	"Extreme":      da.WEATHER_EXTREME,
}

// ParseCondition maps an openweathermap group name, unknown groups (Haze, Dust, ...) keep their name.
func ParseCondition(main string) da.WeatherCondition {
	if cond, ok := known[main]; ok {
		return cond
	}
	if main == "" {
		return da.WEATHER_UNKNOWN
	}
	return da.WeatherCondition(main)
}

func (a *Advisor) Assess(ctx context.Context, coord geo.Coordinate) da.WeatherCondition {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	main, err := a.provider.CurrentCondition(ctx, coord)
	if err != nil {
		a.log.Warn("weather lookup failed", zap.String("coordinate", coord.String()), zap.Error(err))
		return da.WEATHER_UNKNOWN
	}
	return ParseCondition(main)
}

// Annotate assesses both endpoints concurrently. it never fails.
func (a *Advisor) Annotate(ctx context.Context, origin, destination geo.Coordinate) da.WeatherAdvisory {
	var advisory da.WeatherAdvisory

	g := errgroup.Group{}
	g.Go(func() error {
		advisory.Origin = a.Assess(ctx, origin)
		return nil
	})
	g.Go(func() error {
		advisory.Destination = a.Assess(ctx, destination)
		return nil
	})
	_ = g.Wait()

	advisory.Adverse = IsAdverse(advisory.Origin) || IsAdverse(advisory.Destination)
	if advisory.Adverse {
		a.log.Info("adverse weather on route", zap.String("origin", string(advisory.Origin)),
			zap.String("destination", string(advisory.Destination)))
	}
	return advisory
}
