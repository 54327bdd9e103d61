package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bdmet/climate-cli/internal/fetcher"
	"github.com/bdmet/climate-cli/internal/store"
)

// Result is one resolved coordinate from the geocoding service.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Division    string // address state/region, raw
}

// Geocoder resolves a district name to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, district string) (*Result, error)
}

// ErrNoMatch is returned when the service finds no candidate for a query.
var ErrNoMatch = eris.New("geocode: no match")

// NominatimClient geocodes through the Nominatim search endpoint, routed
// through the shared rate-limited fetcher. When a response cache is
// configured, raw bodies are memoized by the exact query string, so a
// repeated query never leaves the process.
type NominatimClient struct {
	fetcher   *fetcher.Client
	baseURL   string
	responses *store.ResponseCache // optional
}

// NewNominatim creates a client against baseURL. responses may be nil.
func NewNominatim(f *fetcher.Client, baseURL string, responses *store.ResponseCache) *NominatimClient {
	return &NominatimClient{fetcher: f, baseURL: baseURL, responses: responses}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		State  string `json:"state"`
		Region string `json:"region"`
	} `json:"address"`
}

// Geocode resolves "<district> District, Bangladesh". When the service
// returns several candidates the first one wins.
func (c *NominatimClient) Geocode(ctx context.Context, district string) (*Result, error) {
	query := fmt.Sprintf("%s District, Bangladesh", district)

	body, err := c.cachedBody(ctx, query)
	if err != nil {
		return nil, err
	}
	if body == nil {
		params := url.Values{}
		params.Set("q", query)
		params.Set("format", "json")
		params.Set("limit", "1")
		params.Set("addressdetails", "1")

		body, err = c.fetcher.Fetch(ctx, fetcher.Request{
			Kind:   fetcher.KindGeocode,
			URL:    c.baseURL,
			Params: params,
		})
		if err != nil {
			return nil, err
		}
		c.storeBody(ctx, query, body)
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrapf(err, "geocode: decode response for %q", query)
	}
	if len(places) == 0 {
		return nil, eris.Wrapf(ErrNoMatch, "query %q", query)
	}

	place := places[0]
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: parse latitude %q", place.Lat)
	}
	lon, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: parse longitude %q", place.Lon)
	}

	division := place.Address.State
	if division == "" {
		division = place.Address.Region
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: place.DisplayName,
		Division:    division,
	}, nil
}

func (c *NominatimClient) cachedBody(ctx context.Context, query string) ([]byte, error) {
	if c.responses == nil {
		return nil, nil
	}
	body, err := c.responses.Get(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: response cache")
	}
	if body != nil {
		zap.L().Debug("geocode response cache hit", zap.String("query", query))
	}
	return body, nil
}

func (c *NominatimClient) storeBody(ctx context.Context, query string, body []byte) {
	if c.responses == nil {
		return
	}
	// A failed memo write costs one extra network call later, nothing more.
	if err := c.responses.Put(ctx, query, body); err != nil {
		zap.L().Warn("geocode response cache write failed",
			zap.String("query", query), zap.Error(err))
	}
}
