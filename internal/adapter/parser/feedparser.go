package parser

import (
	"context"
	"fmt"
	"geonews/internal/domain"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedParser разбирает RSS/Atom ленты в доменную модель с помощью gofeed.
type FeedParser struct {
	log *slog.Logger
}

func NewFeedParser(log *slog.Logger) *FeedParser {
	return &FeedParser{
		log: log.With(slog.String("component", "parser")),
	}
}

// Parse реализует метод интерфейса usecase.FeedParser.
func (p *FeedParser) Parse(ctx context.Context, reader io.Reader) (*domain.Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parsed, err := gofeed.NewParser().Parse(reader)
	if err != nil {
		p.log.Error("Error decoding feed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}
	feed := domain.Feed{
		Title: parsed.Title,
		Link:  parsed.Link,
		Items: make([]domain.Headline, 0, len(parsed.Items)),
	}
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		feed.Items = append(feed.Items, domain.Headline{
			Title:       strings.TrimSpace(item.Title),
			Link:        item.Link,
			Source:      sourceName(item),
			PublishedAt: publishedAt(item),
		})
	}
	return &feed, nil
}

func publishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return time.Time{}
}

// sourceName возвращает издателя заголовка: автора элемента, а если его нет -
// суффикс заголовка после последнего " - ", как их формирует Google News.
func sourceName(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	title := strings.TrimSpace(item.Title)
	if i := strings.LastIndex(title, " - "); i > 0 {
		return strings.TrimSpace(title[i+3:])
	}
	return ""
}
