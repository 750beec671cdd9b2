package osm

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/NERVsystems/tripcarbon/pkg/geo"
	"github.com/NERVsystems/tripcarbon/pkg/tracing"
	"github.com/NERVsystems/tripcarbon/pkg/trip"
)

// RouterOptions configures a Router
type RouterOptions struct {
	BaseURL   string
	Profile   string
	CacheSize int
}

// Router measures driving distances with OSRM's route service
type Router struct {
	client  *Client
	baseURL string
	profile string
	cache   *lru.Cache[string, float64]
}

var _ trip.Router = (*Router)(nil)

type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64 `json:"distance"` // meters
	Duration float64 `json:"duration"` // seconds
}

// NewRouter creates an OSRM router
func NewRouter(client *Client, opts RouterOptions) (*Router, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = OSRMBaseURL
	}
	if opts.Profile == "" {
		opts.Profile = "driving"
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1000
	}
	c, err := lru.New[string, float64](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create route cache: %w", err)
	}
	return &Router{
		client:  client,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		profile: opts.Profile,
		cache:   c,
	}, nil
}

func (r *Router) cacheKey(origin, destination geo.Location) string {
	return fmt.Sprintf("%s|%.6f,%.6f;%.6f,%.6f", r.profile,
		origin.Longitude, origin.Latitude, destination.Longitude, destination.Latitude)
}

// RouteDistance returns the driving distance in km of the fastest route
func (r *Router) RouteDistance(ctx context.Context, origin, destination geo.Location) (float64, error) {
	if err := origin.Validate(); err != nil {
		return 0, NewError(ErrInvalidInput, tracing.ServiceOSRM, err.Error())
	}
	if err := destination.Validate(); err != nil {
		return 0, NewError(ErrInvalidInput, tracing.ServiceOSRM, err.Error())
	}

	key := r.cacheKey(origin, destination)
	if km, ok := r.cache.Get(key); ok {
		tracing.SetAttributes(ctx, tracing.CacheAttributes(tracing.CacheTypeRoute, true)...)
		onCache(tracing.CacheTypeRoute, true, r.cache.Len())
		return km, nil
	}
	tracing.SetAttributes(ctx, tracing.CacheAttributes(tracing.CacheTypeRoute, false)...)
	onCache(tracing.CacheTypeRoute, false, r.cache.Len())

	url := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=false",
		r.baseURL, r.profile,
		origin.Longitude, origin.Latitude,
		destination.Longitude, destination.Latitude)

	var resp osrmResponse
	if err := r.client.getJSON(ctx, tracing.ServiceOSRM, "route", url, &resp); err != nil {
		return 0, err
	}
	if resp.Code != "Ok" {
		return 0, NewError(ErrNoResults, tracing.ServiceOSRM, fmt.Sprintf("%s: %s", resp.Code, resp.Message))
	}
	if len(resp.Routes) == 0 {
		return 0, NewError(ErrNoResults, tracing.ServiceOSRM, "no route found")
	}

	km := resp.Routes[0].Distance / 1000
	r.cache.Add(key, km)
	return km, nil
}

// CheckHealth queries OSRM's nearest service
func (r *Router) CheckHealth(ctx context.Context) error {
	return r.client.checkHealth(ctx, tracing.ServiceOSRM, fmt.Sprintf("%s/nearest/v1/%s/0,0", r.baseURL, r.profile))
}
