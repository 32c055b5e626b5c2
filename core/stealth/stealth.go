// Package stealth recovers generation metadata hidden in the least
// significant bits of an image's alpha channel.
//
// The stream is read column by column (x outer, y inner), one bit per
// pixel:
//
//	120 bits  signature, "stealth_pnginfo" or "stealth_pngcomp"
//	 32 bits  payload length in bits, big-endian
//	 N bits   payload, gzip-compressed for "stealth_pngcomp"
//
// The payload is a JSON object. Its "Comment" member usually holds the
// generation parameters as a JSON string of its own.
package stealth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ankit-chaubey/aimeta-surgery/core"
	"github.com/ankit-chaubey/aimeta-surgery/core/dialect"
)

var (
	// ErrNoRaster is returned when the image could not be decoded to pixels.
	ErrNoRaster = errors.New("no decodable raster")
	// ErrNoSignature means the first 120 alpha bits are not a known signature.
	ErrNoSignature = errors.New("no stealth signature")
	// ErrTruncated means the pixels ran out before the payload was complete.
	ErrTruncated = errors.New("stealth stream truncated")
	// ErrPayloadTooLarge means the declared or inflated payload exceeds
	// what the image or the configured limit allows.
	ErrPayloadTooLarge = errors.New("stealth payload too large")
)

// Decoder extracts and normalizes alpha-channel payloads.
type Decoder struct {
	Inflater Inflater
}

// NewDecoder returns a Decoder using GzipInflater with the given limit.
func NewDecoder(maxInflated int64) *Decoder {
	return &Decoder{Inflater: GzipInflater{MaxBytes: maxInflated}}
}

// ReadPayload walks the alpha LSBs of r and returns the raw payload bytes
// and whether they are gzip-compressed. Traversal stops as soon as the
// payload is complete.
func ReadPayload(r *core.Raster) (payload []byte, compressed bool, err error) {
	if !r.Valid() {
		return nil, false, ErrNoRaster
	}

	total := int64(r.Width) * int64(r.Height)
	var consumed int64
	acc := newAccumulator()

	for x := 0; x < r.Width; x++ {
		for y := 0; y < r.Height; y++ {
			prev := acc.phase
			next := acc.push(r.Alpha(x, y) & 1)
			consumed++

			switch next {
			case phaseRejected:
				return nil, false, ErrNoSignature
			case phaseDone:
				return acc.payload(), acc.compressed, nil
			case phasePayload:
				if prev == phaseLength && int64(acc.payloadBits) > total-consumed {
					return nil, false, fmt.Errorf("%w: %d bits declared, %d pixels left",
						ErrPayloadTooLarge, acc.payloadBits, total-consumed)
				}
			}
		}
	}
	return nil, false, fmt.Errorf("%w: stopped in %s phase", ErrTruncated, acc.phase)
}

// Decode reads the hidden payload from r and normalizes it.
func (d *Decoder) Decode(r *core.Raster) (*core.GenMetadata, error) {
	payload, compressed, err := ReadPayload(r)
	if err != nil {
		return nil, err
	}

	if compressed {
		inflater := d.Inflater
		if inflater == nil {
			inflater = GzipInflater{}
		}
		if payload, err = inflater.Inflate(payload); err != nil {
			return nil, err
		}
	}

	outer, err := dialect.ParseObject(strings.ToValidUTF8(string(payload), "�"))
	if err != nil {
		return nil, fmt.Errorf("stealth payload: %w", err)
	}

	effective := outer
	if comment, ok := outer["Comment"].(string); ok {
		if inner, err := dialect.ParseObject(comment); err == nil {
			effective = inner
		}
	}

	m := dialect.Normalize(effective, core.SourceStealthAlpha)
	if src, ok := outer["Source"].(string); ok && src != "" {
		m.Model = &src
	}
	return m, nil
}
