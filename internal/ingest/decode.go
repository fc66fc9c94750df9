package ingest

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// repairReader passes valid UTF-8 lines through and decodes any other line as
// ISO-8859-1, the encoding of the Receita Federal extracts. Mixed files and
// stray bytes therefore never fail the read.
type repairReader struct {
	br    *bufio.Reader
	dec   *encoding.Decoder
	buf   []byte
	first bool
	err   error
}

// NewRepairReader wraps r so that its output is always valid UTF-8
func NewRepairReader(r io.Reader) io.Reader {
	return &repairReader{
		br:    bufio.NewReaderSize(r, 64*1024),
		dec:   charmap.ISO8859_1.NewDecoder(),
		first: true,
	}
}

func (r *repairReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.err != nil {
			return 0, r.err
		}

		line, err := r.br.ReadBytes('\n')
		r.err = err
		if r.first {
			line = bytes.TrimPrefix(line, utf8BOM)
			r.first = false
		}
		if !utf8.Valid(line) {
			if decoded, derr := r.dec.Bytes(line); derr == nil {
				line = decoded
			}
		}
		r.buf = line
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
