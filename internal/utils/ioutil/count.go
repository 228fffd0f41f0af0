package ioutil

import (
	"io"
	"sync/atomic"
)

// CountingReader counts the bytes read through it. Count is safe to call
// while another goroutine reads.
type CountingReader struct {
	r io.Reader
	n atomic.Int64
}

func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

func (c *CountingReader) Count() int64 {
	return c.n.Load()
}
