package stealth

import "encoding/binary"

const (
	// SignaturePlain marks an uncompressed payload.
	SignaturePlain = "stealth_pnginfo"
	// SignatureCompressed marks a gzip-compressed payload.
	SignatureCompressed = "stealth_pngcomp"

	signatureBits = len(SignaturePlain) * 8
	lengthBits    = 32
)

// phase is the accumulator state. The decoder advances one alpha bit at a
// time through signature, length and payload.
type phase int

const (
	phaseSignature phase = iota
	phaseLength
	phasePayload
	phaseDone
	phaseRejected
)

func (p phase) String() string {
	switch p {
	case phaseSignature:
		return "signature"
	case phaseLength:
		return "length"
	case phasePayload:
		return "payload"
	case phaseDone:
		return "done"
	case phaseRejected:
		return "rejected"
	}
	return "invalid"
}

// accumulator packs bits MSB-first into bytes and switches phase each time
// the current phase has received the number of bits it needs.
type accumulator struct {
	phase      phase
	compressed bool
	// payloadBits is the declared payload length, in bits.
	payloadBits uint32

	buf   []byte
	cur   byte
	nbits int
	got   int64
	need  int64
}

func newAccumulator() *accumulator {
	return &accumulator{
		phase: phaseSignature,
		need:  int64(signatureBits),
		buf:   make([]byte, 0, signatureBits/8),
	}
}

// push appends one bit and returns the phase after it.
func (a *accumulator) push(bit byte) phase {
	if a.phase == phaseDone || a.phase == phaseRejected {
		return a.phase
	}
	a.cur = a.cur<<1 | bit&1
	a.nbits++
	a.got++
	if a.nbits == 8 {
		a.buf = append(a.buf, a.cur)
		a.cur, a.nbits = 0, 0
	}
	if a.got == a.need {
		a.advance()
	}
	return a.phase
}

func (a *accumulator) advance() {
	switch a.phase {
	case phaseSignature:
		switch string(a.buf) {
		case SignaturePlain:
			a.compressed = false
		case SignatureCompressed:
			a.compressed = true
		default:
			a.phase = phaseRejected
			return
		}
		a.reset(phaseLength, lengthBits)
	case phaseLength:
		a.payloadBits = binary.BigEndian.Uint32(a.buf)
		a.reset(phasePayload, int64(a.payloadBits))
		if a.payloadBits == 0 {
			a.phase = phaseDone
		}
	case phasePayload:
		// A trailing group of fewer than 8 bits never reached buf.
		a.cur, a.nbits = 0, 0
		a.phase = phaseDone
	}
}

func (a *accumulator) reset(next phase, need int64) {
	a.phase = next
	a.need = need
	a.got = 0
	a.cur, a.nbits = 0, 0
	a.buf = nil
}

// payload returns the collected payload bytes once the phase is done.
func (a *accumulator) payload() []byte {
	if a.phase != phaseDone {
		return nil
	}
	return a.buf
}
