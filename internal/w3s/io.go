package w3s

import (
	"bytes"
	"io"
)

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

// countingReader reports the running byte count after every read.
type countingReader struct {
	r      io.Reader
	size   int
	n      uint64
	onRead func(n uint64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.n += uint64(n)
		if c.onRead != nil {
			c.onRead(c.n)
		}
	}
	return n, err
}

// Len reports the unread length so retryablehttp can set Content-Length.
func (c *countingReader) Len() int {
	if rest := c.size - int(c.n); rest > 0 {
		return rest
	}
	return 0
}
