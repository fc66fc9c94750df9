package address

import (
	"regexp"
	"strings"
)

// Components are the parts of a free-form address used for grouping
type Components struct {
	Street       string
	Number       string
	Complement   string
	Neighborhood string
}

// Parser splits a free-form address line into components
type Parser interface {
	Parse(raw string) Components
}

// Street number: digits with an optional letter suffix, or "S/N" (sem número)
var reNumber = regexp.MustCompile(`^(?:N[º°O.]?\s*)?(\d+[A-Z]?|S/?N)$`)

// Simple splits comma separated Brazilian addresses of the form
// "RUA X, 10, SALA 2" without external dependencies.
type Simple struct{}

// Parse implements Parser
func (Simple) Parse(raw string) Components {
	var parts []string
	for _, p := range strings.Split(strings.ToUpper(raw), ",") {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return Components{}
	}

	c := Components{Street: parts[0]}
	rest := parts[1:]

	// "RUA X 10" without comma before the number
	if fields := strings.Fields(c.Street); len(fields) > 1 {
		if m := reNumber.FindStringSubmatch(fields[len(fields)-1]); m != nil {
			c.Street = strings.Join(fields[:len(fields)-1], " ")
			c.Number = normalizeNumber(m[1])
		}
	}

	if c.Number == "" && len(rest) > 0 {
		if m := reNumber.FindStringSubmatch(rest[0]); m != nil {
			c.Number = normalizeNumber(m[1])
			rest = rest[1:]
		}
	}

	if len(rest) > 0 {
		c.Complement = strings.Join(rest, " ")
	}
	return c
}

func normalizeNumber(n string) string {
	if n == "SN" {
		return "S/N"
	}
	return n
}
