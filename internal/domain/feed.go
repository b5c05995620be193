package domain

import (
	"encoding/json"
	"time"
)

// Country описывает страну из справочника ISO 3166-1.
type Country struct {
	Code   string `json:"code"`
	Alpha3 string `json:"alpha3"`
	Name   string `json:"name"`
}

// Headline представляет отдельный заголовок из ленты новостей страны.
type Headline struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Feed представляет разобранную ленту заголовков.
type Feed struct {
	Title string
	Link  string
	Items []Headline
}

// Coordinates - широта и долгота в градусах.
type Coordinates struct {
	Lat float64
	Lon float64
}

// MarshalJSON кодирует координаты парой [lat, lon].
func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lon})
}

// UnmarshalJSON разбирает пару [lat, lon].
func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	c.Lat, c.Lon = pair[0], pair[1]
	return nil
}

// Record - результат одного успешного цикла для страны:
// заголовки новостей и координаты страны.
type Record struct {
	ID        string      `json:"id"`
	Country   string      `json:"country"`
	Code      string      `json:"code"`
	Feed      []Headline  `json:"feed"`
	Coords    Coordinates `json:"coords"`
	FetchedAt time.Time   `json:"fetched_at"`
}
