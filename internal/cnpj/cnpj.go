package cnpj

import (
	"strings"
)

// Fragment widths of a composite CNPJ
const (
	BaseWidth  = 8
	OrderWidth = 4
	CheckWidth = 2
	Width      = BaseWidth + OrderWidth + CheckWidth
)

// Normalize keeps only ASCII digits from raw and left-pads them with '0' up to width.
// Over-length input is returned as-is, never truncated.
func Normalize(raw string, width int) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}

	digits := b.String()
	if len(digits) >= width {
		return digits
	}
	return strings.Repeat("0", width-len(digits)) + digits
}

// Compose builds the composite identifier from its base, order and check fragments
func Compose(base, order, check string) string {
	return Normalize(base, BaseWidth) + Normalize(order, OrderWidth) + Normalize(check, CheckWidth)
}

// Format renders a 14 digit identifier as 00.000.000/0000-00.
// Anything else is returned unchanged.
func Format(id string) string {
	if len(id) != Width || Normalize(id, 0) != id {
		return id
	}
	return id[0:2] + "." + id[2:5] + "." + id[5:8] + "/" + id[8:12] + "-" + id[12:14]
}
