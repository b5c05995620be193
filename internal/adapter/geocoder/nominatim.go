package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"geonews/internal/domain"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/karlseguin/ccache/v3"
)

// ErrNotFound возвращается, когда Nominatim не нашел ни одного места.
var ErrNotFound = errors.New("geocoder: place not found")

type docFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Nominatim переводит название места в координаты через OpenStreetMap Nominatim.
// Успешные ответы кэшируются на ttl: координаты стран не меняются между циклами обхода.
type Nominatim struct {
	baseURL string
	fetcher docFetcher
	cache   *ccache.Cache[domain.Coordinates]
	ttl     time.Duration
	log     *slog.Logger
}

func NewNominatim(baseURL string, f docFetcher, cacheSize int64, ttl time.Duration, log *slog.Logger) *Nominatim {
	return &Nominatim{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: f,
		cache:   ccache.New(ccache.Configure[domain.Coordinates]().MaxSize(cacheSize)),
		ttl:     ttl,
		log:     log.With(slog.String("component", "geocoder")),
	}
}

// Geocode возвращает координаты первого найденного места для query.
func (n *Nominatim) Geocode(ctx context.Context, query string) (domain.Coordinates, error) {
	const op = "geocoder.Geocode"
	key := strings.ToLower(strings.TrimSpace(query))
	if item := n.cache.Get(key); item != nil && !item.Expired() {
		return item.Value(), nil
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")
	body, err := n.fetcher.Fetch(ctx, n.baseURL+"/search?"+q.Encode())
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("%s: %w", op, err)
	}
	defer body.Close()

	var places []place
	if err := json.NewDecoder(body).Decode(&places); err != nil {
		return domain.Coordinates{}, fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	if len(places) == 0 {
		return domain.Coordinates{}, fmt.Errorf("%s: %q: %w", op, query, ErrNotFound)
	}
	coords, err := places[0].coordinates()
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("%s: %q: %w", op, query, err)
	}
	n.cache.Set(key, coords, n.ttl)
	n.log.Debug("Place geocoded",
		slog.String("op", op),
		slog.String("query", query),
		slog.String("place", places[0].DisplayName),
	)
	return coords, nil
}

func (p place) coordinates() (domain.Coordinates, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("malformed latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("malformed longitude %q: %w", p.Lon, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.Coordinates{}, fmt.Errorf("coordinates out of range: %v,%v", lat, lon)
	}
	return domain.Coordinates{Lat: lat, Lon: lon}, nil
}

// Stop останавливает фоновую горутину кэша.
func (n *Nominatim) Stop() {
	n.cache.Stop()
}
