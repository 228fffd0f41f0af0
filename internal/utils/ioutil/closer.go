package ioutil

import (
	"io"
	"sync"
)

type onCloseReader struct {
	io.ReadCloser
	once sync.Once
	fn   func()
}

// OnClose returns rc with fn run after the first Close. Later calls close
// rc again but do not repeat fn.
func OnClose(rc io.ReadCloser, fn func()) io.ReadCloser {
	return &onCloseReader{ReadCloser: rc, fn: fn}
}

func (r *onCloseReader) Close() error {
	err := r.ReadCloser.Close()
	r.once.Do(r.fn)
	return err
}
