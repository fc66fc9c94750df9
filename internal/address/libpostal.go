//go:build libpostal

package address

import (
	"strings"

	postal "github.com/openvenues/gopostal/parser"
)

// New returns the libpostal backed parser
func New() Parser {
	return Libpostal{fallback: Simple{}}
}

// Libpostal parses addresses with libpostal's CRF model
type Libpostal struct {
	fallback Simple
}

// Parse implements Parser
func (l Libpostal) Parse(raw string) Components {
	if strings.TrimSpace(raw) == "" {
		return Components{}
	}

	var c Components
	var unit []string
	for _, component := range postal.ParseAddressOptions(raw, postal.ParserOptions{Country: "br", Language: "pt"}) {
		value := strings.ToUpper(strings.TrimSpace(component.Value))
		switch component.Label {
		case "road":
			c.Street = value
		case "house_number":
			c.Number = value
		case "unit", "level", "staircase", "entrance", "house":
			unit = append(unit, value)
		case "suburb", "city_district":
			if c.Neighborhood == "" {
				c.Neighborhood = value
			}
		}
	}
	c.Complement = strings.Join(unit, " ")

	if c.Street == "" {
		return l.fallback.Parse(raw)
	}
	return c
}
