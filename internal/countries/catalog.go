package countries

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"geonews/internal/domain"
	"strings"

	"golang.org/x/text/language"
)

//go:embed countries.json
var countriesJSON []byte

type countryJSON struct {
	Alpha2 string `json:"alpha_2"`
	Name   string `json:"name"`
}

// Load возвращает упорядоченный справочник стран ISO 3166-1.
// Коды проверяются и нормализуются через x/text, alpha-3 берется оттуда же.
func Load() ([]domain.Country, error) {
	var raw []countryJSON
	if err := json.Unmarshal(countriesJSON, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode country list: %w", err)
	}
	list := make([]domain.Country, 0, len(raw))
	for _, c := range raw {
		region, err := language.ParseRegion(c.Alpha2)
		if err != nil {
			return nil, fmt.Errorf("invalid country code %q: %w", c.Alpha2, err)
		}
		list = append(list, domain.Country{
			Code:   region.String(),
			Alpha3: region.ISO3(),
			Name:   c.Name,
		})
	}
	return list, nil
}

// Filter оставляет в справочнике только страны с указанными кодами,
// сохраняя исходный порядок. Пустой список кодов возвращает справочник целиком.
func Filter(all []domain.Country, codes []string) ([]domain.Country, error) {
	if len(codes) == 0 {
		return all, nil
	}
	wanted := make(map[string]bool, len(codes))
	for _, code := range codes {
		region, err := language.ParseRegion(strings.TrimSpace(code))
		if err != nil {
			return nil, fmt.Errorf("invalid country code %q: %w", code, err)
		}
		wanted[region.String()] = true
	}
	out := make([]domain.Country, 0, len(wanted))
	for _, c := range all {
		if wanted[c.Code] {
			out = append(out, c)
			delete(wanted, c.Code)
		}
	}
	for code := range wanted {
		return nil, fmt.Errorf("country %s is not in the catalog", code)
	}
	return out, nil
}
