package geocoder

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lintang-b-s/minimap/pkg/config"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/provider"
	"github.com/lintang-b-s/minimap/pkg/util"
	"go.uber.org/zap"
)

type Nominatim struct {
	log       *zap.Logger
	http      *http.Client
	baseURL   string
	userAgent string
}

func NewNominatim(cfg config.Geocoder, httpClient *http.Client, log *zap.Logger) *Nominatim {
	return &Nominatim{
		log:       log,
		http:      httpClient,
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
	}
}

type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (n *Nominatim) Geocode(ctx context.Context, query string, limit int) ([]da.CandidateLocation, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, providerError("build geocoder request: %v", err)
	}
	// nominatim usage policy rejects requests without an identifying user agent
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		if provider.IsTimeout(err) {
			return nil, timeoutError(query)
		}
		return nil, providerError("nominatim request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, providerError("nominatim returned %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(io.LimitReader(resp.Body, provider.MaxResponseBody)).Decode(&places); err != nil {
		if provider.IsTimeout(err) {
			return nil, timeoutError(query)
		}
		return nil, providerError("malformed nominatim response: %v", err)
	}

	candidates := make([]da.CandidateLocation, 0, len(places))
	for _, p := range places {
		lat, errLat := util.StringToFloat64(p.Lat)
		lon, errLon := util.StringToFloat64(p.Lon)
		if errLat != nil || errLon != nil {
			n.log.Debug("skipping nominatim place with unparsable coordinates", zap.String("place", p.DisplayName))
			continue
		}
		candidates = append(candidates, da.NewCandidateLocation(p.DisplayName, lat, lon))
	}
	return candidates, nil
}
