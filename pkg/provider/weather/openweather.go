package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lintang-b-s/minimap/pkg/config"
	"github.com/lintang-b-s/minimap/pkg/geo"
	"github.com/lintang-b-s/minimap/pkg/provider"
)

// OpenWeatherMap reads the current weather group ("Rain", "Clear", ...) of a point.
type OpenWeatherMap struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func NewOpenWeatherMap(cfg config.Weather, httpClient *http.Client) *OpenWeatherMap {
	return &OpenWeatherMap{
		http:    httpClient,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

type currentWeather struct {
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

func (o *OpenWeatherMap) CurrentCondition(ctx context.Context, coord geo.Coordinate) (string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coord.GetLat(), 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coord.GetLon(), 'f', -1, 64))
	params.Set("appid", o.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/data/2.5/weather?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openweathermap returned %d", resp.StatusCode)
	}

	var body currentWeather
	if err := json.NewDecoder(io.LimitReader(resp.Body, provider.MaxResponseBody)).Decode(&body); err != nil {
		return "", fmt.Errorf("malformed openweathermap response: %w", err)
	}
	if len(body.Weather) == 0 || body.Weather[0].Main == "" {
		return "", fmt.Errorf("openweathermap response has no weather entry")
	}
	return body.Weather[0].Main, nil
}
