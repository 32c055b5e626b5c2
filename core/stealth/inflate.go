package stealth

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// DefaultMaxInflated caps decompressed payloads when no limit is set.
const DefaultMaxInflated = 64 << 20

// Inflater decompresses a gzip payload.
type Inflater interface {
	Inflate(data []byte) ([]byte, error)
}

// GzipInflater inflates gzip streams up to MaxBytes of output.
type GzipInflater struct {
	MaxBytes int64
}

// Inflate implements Inflater.
func (g GzipInflater) Inflate(data []byte) ([]byte, error) {
	limit := g.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxInflated
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening gzip payload: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, limit+1))
	if err != nil {
		return nil, fmt.Errorf("inflating payload: %w", err)
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: inflated size exceeds %d bytes", ErrPayloadTooLarge, limit)
	}
	return out, nil
}
