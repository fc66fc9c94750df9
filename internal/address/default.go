//go:build !libpostal

package address

// New returns the parser compiled into this binary.
// Build with -tags libpostal to use libpostal instead.
func New() Parser {
	return Simple{}
}
