package gnews

import (
	"context"
	"fmt"
	"geonews/internal/domain"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

type feedFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

type feedParser interface {
	Parse(ctx context.Context, reader io.Reader) (*domain.Feed, error)
}

// Client получает ленту главных новостей Google News для страны
// (раздел headlines/section/geo).
type Client struct {
	baseURL  string
	language string
	country  string
	fetcher  feedFetcher
	parser   feedParser
	log      *slog.Logger
}

// NewClient создает клиент. language и country задают редакцию Google News (hl/gl).
func NewClient(baseURL, language, country string, f feedFetcher, p feedParser, log *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		country:  strings.ToUpper(country),
		fetcher:  f,
		parser:   p,
		log:      log.With(slog.String("component", "gnews")),
	}
}

// HeadlinesURL строит адрес ленты для страны.
func (c *Client) HeadlinesURL(country domain.Country) string {
	q := url.Values{}
	q.Set("hl", c.language)
	q.Set("gl", c.country)
	q.Set("ceid", c.country+":"+c.language)
	return fmt.Sprintf("%s/headlines/section/geo/%s?%s", c.baseURL, url.PathEscape(country.Name), q.Encode())
}

// Headlines загружает и разбирает ленту заголовков страны.
func (c *Client) Headlines(ctx context.Context, country domain.Country) (*domain.Feed, error) {
	const op = "gnews.Headlines"
	feedURL := c.HeadlinesURL(country)
	body, err := c.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer body.Close()
	feed, err := c.parser.Parse(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.log.Debug("Headlines fetched",
		slog.String("op", op),
		slog.String("country", country.Name),
		slog.Int("items", len(feed.Items)),
	)
	return feed, nil
}
