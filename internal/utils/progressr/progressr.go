// Package progressr reports how far a stream of known or unknown length has
// been consumed.
package progressr

import (
	"io"

	"github.com/beanbocchi/blobfs/internal/utils/ioutil"
)

type Reader struct {
	*ioutil.CountingReader
	total int64
}

// NewReader wraps r. A total of 0 or less means the length is unknown.
func NewReader(r io.Reader, total int64) *Reader {
	return &Reader{CountingReader: ioutil.NewCountingReader(r), total: total}
}

// Progress returns the fraction read so far, or 0 when the total is unknown.
// It exceeds 1 when the stream is longer than announced.
func (p *Reader) Progress() float64 {
	if p.total <= 0 {
		return 0
	}
	return float64(p.Count()) / float64(p.total)
}
