package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lintang-b-s/minimap/pkg"
	"github.com/lintang-b-s/minimap/pkg/artifact"
	"github.com/lintang-b-s/minimap/pkg/config"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/engine"
	"github.com/lintang-b-s/minimap/pkg/http/usecases"
	"github.com/lintang-b-s/minimap/pkg/logger"
	"github.com/lintang-b-s/minimap/pkg/provider"
	"github.com/lintang-b-s/minimap/pkg/provider/directions"
	"github.com/lintang-b-s/minimap/pkg/provider/geocoder"
	owm "github.com/lintang-b-s/minimap/pkg/provider/weather"
	"github.com/lintang-b-s/minimap/pkg/render"
	"github.com/lintang-b-s/minimap/pkg/resolver"
	"github.com/lintang-b-s/minimap/pkg/weather"
	"go.uber.org/zap"
)

const maxSuggestions = pkg.DEFAULT_MAX_CANDIDATES

var (
	out   = flag.String("out", "route_map.html", "file the rendered map is written to")
	model = flag.String("model", "astar", "post-processing strategy: astar, qaoa or traffic-aware")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// the console is for prompts, only warnings go to the log
	logger, err := logger.NewWithEnv(cfg.AppEnv, "warn")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // ignore

	if err := run(context.Background(), cfg, logger, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, in io.Reader, w io.Writer) error {
	strategy, err := da.ParseStrategy(*model)
	if err != nil {
		return err
	}

	directionsClient, err := directions.New(cfg.Directions, provider.NewHTTPClient(cfg.Directions.Timeout), log)
	if err != nil {
		return err
	}
	geocoderClient, err := geocoder.New(cfg.Geocoder, provider.NewHTTPClient(cfg.Geocoder.Timeout), log)
	if err != nil {
		return err
	}
	maxCandidates := min(cfg.Geocoder.MaxCandidates, maxSuggestions)
	locationResolver := resolver.NewResolver(log, geocoderClient, cfg.Geocoder.Timeout, maxCandidates)

	var advisor usecases.WeatherAdvisor
	if cfg.Weather.Enabled {
		advisor = weather.NewAdvisor(log, owm.NewOpenWeatherMap(cfg.Weather, provider.NewHTTPClient(cfg.Weather.Timeout)),
			cfg.Weather.Timeout)
	}

	store := artifact.NewMemoryStore(0, 1)
	routingService := usecases.NewRoutingService(log, locationResolver,
		resolver.NewSessions(cfg.Resolver.SessionTTL, cfg.Resolver.SelectionRetryBudget),
		directionsClient, engine.NewPostProcessor(log, engine.NoTraffic{}), render.NewRenderer(log, pkg.DEFAULT_MAP_ZOOM), store,
		advisor, cfg.Resolver.SelectionRetryBudget)

	p := &prompter{
		scanner:  bufio.NewScanner(in),
		w:        w,
		resolver: locationResolver,
		budget:   cfg.Resolver.SelectionRetryBudget,
	}

	origin, err := p.location(ctx, "Enter start location: ")
	if err != nil {
		return err
	}
	destination, err := p.location(ctx, "Enter destination: ")
	if err != nil {
		return err
	}

	req := da.NewRouteRequest(origin.Coordinate, destination.Coordinate, strategy)
	req.OriginLabel = origin.Label
	req.DestinationLabel = destination.Label

	plan, err := routingService.PlanRoute(ctx, req)
	if err != nil {
		return err
	}
	routeMap, err := routingService.GetArtifact(ctx, plan.ArtifactID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, routeMap.Document, 0o644); err != nil {
		return err
	}

	fmt.Fprintf(w, "Route from %s to %s: %d waypoints, map saved to %s\n",
		origin.Label, destination.Label, len(plan.Waypoints), *out)
	if plan.Weather != nil {
		fmt.Fprintf(w, "Weather: %s at start, %s at destination\n", plan.Weather.Origin, plan.Weather.Destination)
		if plan.Weather.Adverse {
			fmt.Fprintln(w, "Warning: bad weather along the route, drive carefully.")
		}
	}
	return nil
}

var errNoInput = errors.New("no input")

type prompter struct {
	scanner  *bufio.Scanner
	w        io.Writer
	resolver *resolver.Resolver
	budget   int
}

func (p *prompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.w, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", errNoInput
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// location asks for a place until it resolves to one candidate. invalid choices count against the budget,
// "retry" and a geocoder timeout ask for the place name again.
func (p *prompter) location(ctx context.Context, prompt string) (da.CandidateLocation, error) {
	failures := 0
	for {
		query, err := p.readLine(prompt)
		if err != nil {
			return da.CandidateLocation{}, err
		}

		candidates, err := p.resolver.ResolveMany(ctx, query)
		if err != nil {
			if errors.Is(err, da.ErrNoMatch) || errors.Is(err, da.ErrInvalidInput) ||
				errors.Is(err, da.ErrResolutionTimeout) {
				fmt.Fprintln(p.w, err)
				continue
			}
			return da.CandidateLocation{}, err
		}
		if len(candidates) == 1 {
			return candidates[0], nil
		}

		fmt.Fprintln(p.w, "Multiple locations found:")
		for i, c := range candidates {
			fmt.Fprintf(p.w, "%d. %s\n", i+1, c.Label)
		}

		for {
			choice, err := p.readLine(fmt.Sprintf("Choose 1-%d or type 'retry': ", len(candidates)))
			if err != nil {
				return da.CandidateLocation{}, err
			}
			if strings.EqualFold(choice, "retry") {
				break
			}
			selected, err := resolver.Select(candidates, choice)
			if err == nil {
				return selected, nil
			}
			failures++
			if failures >= p.budget {
				return da.CandidateLocation{}, fmt.Errorf("%w after %d attempts", da.ErrSelectionExhausted, failures)
			}
			fmt.Fprintf(p.w, "%v, %d attempts left\n", err, p.budget-failures)
		}
	}
}
