package stealth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/aimeta-surgery/core/internal/fixture"
)

func pushAll(a *accumulator, bits []byte) phase {
	p := a.phase
	for _, b := range bits {
		p = a.push(b)
	}
	return p
}

func TestAccumulatorSignature(t *testing.T) {
	tests := []struct {
		name       string
		sig        string
		want       phase
		compressed bool
	}{
		{"plain", SignaturePlain, phaseLength, false},
		{"compressed", SignatureCompressed, phaseLength, true},
		{"unknown", "stealth_rgbinfo", phaseRejected, false},
		{"garbage", "xxxxxxxxxxxxxxx", phaseRejected, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAccumulator()
			bits := fixture.Bits([]byte(tt.sig))
			require.Len(t, bits, signatureBits)

			// The phase only changes on the last signature bit.
			assert.Equal(t, phaseSignature, pushAll(a, bits[:len(bits)-1]))
			assert.Equal(t, tt.want, a.push(bits[len(bits)-1]))
			assert.Equal(t, tt.compressed, a.compressed)
		})
	}
}

func TestAccumulatorLengthAndPayload(t *testing.T) {
	a := newAccumulator()
	pushAll(a, fixture.Bits([]byte(SignaturePlain)))

	// 20 bits: two full bytes plus a trailing nibble that is dropped.
	assert.Equal(t, phasePayload, pushAll(a, fixture.Bits([]byte{0, 0, 0, 20})))
	assert.Equal(t, uint32(20), a.payloadBits)

	assert.Equal(t, phasePayload, pushAll(a, fixture.Bits([]byte{'h', 'i'})))
	assert.Nil(t, a.payload(), "no payload before done")
	assert.Equal(t, phaseDone, pushAll(a, []byte{1, 0, 1, 0}))
	assert.Equal(t, []byte("hi"), a.payload())

	// Further bits are ignored.
	assert.Equal(t, phaseDone, a.push(1))
	assert.Equal(t, []byte("hi"), a.payload())
}

func TestAccumulatorZeroLength(t *testing.T) {
	a := newAccumulator()
	pushAll(a, fixture.Bits([]byte(SignatureCompressed)))
	assert.Equal(t, phaseDone, pushAll(a, fixture.Bits([]byte{0, 0, 0, 0})))
	assert.Empty(t, a.payload())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "signature", phaseSignature.String())
	assert.Equal(t, "payload", phasePayload.String())
	assert.Equal(t, "invalid", phase(42).String())
}
