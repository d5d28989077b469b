package http

import (
	"io"

	"github.com/juju/ratelimit"
)

// Limiter caps the combined bandwidth of every body wrapped with it. A nil
// Limiter does not limit.
type Limiter struct {
	bucket *ratelimit.Bucket
}

// NewLimiter returns a Limiter allowing bytesPerSecond, or nil when
// bytesPerSecond is not positive.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	// One second of burst.
	return &Limiter{bucket: ratelimit.NewBucketWithRate(float64(bytesPerSecond), bytesPerSecond)}
}

// Reader wraps r so reads draw from the shared bucket.
func (l *Limiter) Reader(r io.Reader) io.Reader {
	if l == nil {
		return r
	}
	return ratelimit.Reader(r, l.bucket)
}
