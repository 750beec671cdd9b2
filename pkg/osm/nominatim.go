package osm

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/NERVsystems/tripcarbon/pkg/cache"
	"github.com/NERVsystems/tripcarbon/pkg/geo"
	"github.com/NERVsystems/tripcarbon/pkg/tracing"
	"github.com/NERVsystems/tripcarbon/pkg/trip"
)

// GeocoderOptions configures a Geocoder
type GeocoderOptions struct {
	BaseURL   string
	CacheTTL  time.Duration
	CacheSize int
}

// Geocoder resolves addresses through Nominatim's search endpoint
type Geocoder struct {
	client  *Client
	baseURL string
	cache   *cache.TTLCache[string, geo.Location]
}

var _ trip.Geocoder = (*Geocoder)(nil)

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewGeocoder creates a Nominatim geocoder. Call Close to stop its cache.
func NewGeocoder(client *Client, opts GeocoderOptions) *Geocoder {
	if opts.BaseURL == "" {
		opts.BaseURL = NominatimBaseURL
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1000
	}
	return &Geocoder{
		client:  client,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		cache:   cache.New[string, geo.Location](opts.CacheTTL, opts.CacheTTL/4, opts.CacheSize),
	}
}

// Geocode returns the best match for the query
func (g *Geocoder) Geocode(ctx context.Context, q trip.Query) (geo.Location, error) {
	address := strings.TrimSpace(q.Address)
	if address == "" {
		return geo.Location{}, NewError(ErrInvalidInput, tracing.ServiceNominatim, "empty address")
	}

	key := strings.ToLower(address) + "|" + strings.ToLower(q.CountryCode)
	if loc, ok := g.cache.Get(key); ok {
		tracing.SetAttributes(ctx, tracing.CacheAttributes(tracing.CacheTypeGeocode, true)...)
		onCache(tracing.CacheTypeGeocode, true, g.cache.Len())
		return loc, nil
	}
	tracing.SetAttributes(ctx, tracing.CacheAttributes(tracing.CacheTypeGeocode, false)...)
	onCache(tracing.CacheTypeGeocode, false, g.cache.Len())

	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")
	if q.CountryCode != "" {
		params.Set("countrycodes", strings.ToLower(q.CountryCode))
	}

	var places []nominatimPlace
	if err := g.client.getJSON(ctx, tracing.ServiceNominatim, "search", g.baseURL+"/search?"+params.Encode(), &places); err != nil {
		return geo.Location{}, err
	}
	if len(places) == 0 {
		return geo.Location{}, NewError(ErrNoResults, tracing.ServiceNominatim, fmt.Sprintf("no match for %q", address)).
			WithGuidance("Try a more specific address or give coordinates")
	}

	loc, err := parsePlace(places[0])
	if err != nil {
		return geo.Location{}, err
	}

	g.cache.Set(key, loc)
	g.client.logger.Debug("geocoded address",
		"address", address,
		"match", places[0].DisplayName,
		"location", loc.String())
	return loc, nil
}

// CheckHealth queries Nominatim's status endpoint
func (g *Geocoder) CheckHealth(ctx context.Context) error {
	return g.client.checkHealth(ctx, tracing.ServiceNominatim, g.baseURL+"/status")
}

// Close stops the cache cleanup goroutine
func (g *Geocoder) Close() {
	g.cache.Stop()
}

func parsePlace(p nominatimPlace) (geo.Location, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return geo.Location{}, NewError(ErrParseError, tracing.ServiceNominatim, fmt.Sprintf("invalid latitude %q", p.Lat))
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return geo.Location{}, NewError(ErrParseError, tracing.ServiceNominatim, fmt.Sprintf("invalid longitude %q", p.Lon))
	}
	loc := geo.Location{Latitude: lat, Longitude: lon}
	if err := loc.Validate(); err != nil {
		return geo.Location{}, NewError(ErrParseError, tracing.ServiceNominatim, err.Error())
	}
	return loc, nil
}
