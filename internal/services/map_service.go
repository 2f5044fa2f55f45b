package services

import (
	"context"
	"errors"
	"strings"

	"github.com/isdelr/simplecomm-be/internal/geocode"
	"github.com/isdelr/simplecomm-be/internal/models"
	"github.com/rs/zerolog/log"
)

// MapCommunityLimit caps how many communities are geocoded per map view.
const MapCommunityLimit = 15

// DefaultMapCenter is used when the viewer's city cannot be resolved.
var DefaultMapCenter = [2]float64{-6.2, 106.816666}

// MapServiceProvider defines the interface for the community map.
type MapServiceProvider interface {
	GetMapView(ctx context.Context, city string) (models.MapView, error)
}

// MapService places communities on a map.
type MapService struct {
	communities CommunityServiceProvider
	geocoder    geocode.Geocoder
}

// NewMapService creates a new MapService.
func NewMapService(communities CommunityServiceProvider, geocoder geocode.Geocoder) *MapService {
	return &MapService{communities: communities, geocoder: geocoder}
}

// GetMapView centers the map on city and returns markers for the first
// communities whose address could be resolved. Unresolved addresses are
// skipped.
func (s *MapService) GetMapView(ctx context.Context, city string) (models.MapView, error) {
	view := models.MapView{Center: DefaultMapCenter, Markers: []models.MapMarker{}}

	if city = strings.TrimSpace(city); city != "" {
		p, err := s.geocoder.Lookup(ctx, city)
		if err == nil {
			view.Center = [2]float64{p.Lat, p.Lon}
		} else if !errors.Is(err, geocode.ErrNotFound) {
			log.Warn().Err(err).Str("city", city).Msg("Failed to geocode city")
		}
	}

	all, err := s.communities.GetAllCommunities(ctx)
	if err != nil {
		return view, err
	}
	if len(all) > MapCommunityLimit {
		all = all[:MapCommunityLimit]
	}

	for _, c := range all {
		if ctx.Err() != nil {
			return view, ctx.Err()
		}
		p, err := s.geocoder.Lookup(ctx, c.Address)
		if err != nil {
			if !errors.Is(err, geocode.ErrNotFound) {
				log.Warn().Err(err).Str("community_id", c.ID).Msg("Failed to geocode community")
			}
			continue
		}
		view.Markers = append(view.Markers, models.MapMarker{
			CommunityID: c.ID,
			Name:        c.Name,
			Address:     c.Address,
			Category:    c.Category,
			Lat:         p.Lat,
			Lon:         p.Lon,
		})
	}
	return view, nil
}
