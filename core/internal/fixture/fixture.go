// Package fixture builds synthetic images for tests: PNG chunk streams,
// stealth alpha payloads and minimal EXIF containers.
package fixture

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Chunk is one PNG chunk.
type Chunk struct {
	Type string
	Data []byte
}

// PNG returns a signature followed by chunks and a closing IEND.
func PNG(chunks ...Chunk) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature)
	for _, c := range append(chunks, Chunk{Type: "IEND"}) {
		WriteChunk(&buf, c)
	}
	return buf.Bytes()
}

// WriteChunk appends c with its length prefix and CRC.
func WriteChunk(buf *bytes.Buffer, c Chunk) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(c.Data)))
	buf.Write(lenBuf[:])
	buf.WriteString(c.Type)
	buf.Write(c.Data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(c.Type))
	crc.Write(c.Data)
	binary.BigEndian.PutUint32(lenBuf[:], crc.Sum32())
	buf.Write(lenBuf[:])
}

// Text returns a tEXt chunk.
func Text(keyword, value string) Chunk {
	return Chunk{Type: "tEXt", Data: []byte(keyword + "\x00" + value)}
}

// IText returns an uncompressed iTXt chunk with empty language tags.
func IText(keyword, value string) Chunk {
	return Chunk{Type: "iTXt", Data: []byte(keyword + "\x00\x00\x00en\x00" + keyword + "\x00" + value)}
}

// ZText returns a zTXt chunk.
func ZText(keyword, value string) Chunk {
	var z bytes.Buffer
	w := zlib.NewWriter(&z)
	w.Write([]byte(value))
	w.Close()
	return Chunk{Type: "zTXt", Data: append([]byte(keyword+"\x00\x00"), z.Bytes()...)}
}

// Gzip compresses data.
func Gzip(data []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// StealthBits lays out signature, 32-bit bit length and payload as a
// bit sequence, one bit per element, MSB first.
func StealthBits(signature string, payload []byte) []byte {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(payload)*8))
	return Bits(append(append([]byte(signature), length[:]...), payload...))
}

// Bits expands data into one element per bit, MSB first.
func Bits(data []byte) []byte {
	out := make([]byte, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			out = append(out, (b>>uint(i))&1)
		}
	}
	return out
}

// StealthImage returns a square NRGBA image whose alpha LSBs carry bits in
// column-major order. Pixels past the end of bits stay opaque.
func StealthImage(bits []byte) *image.NRGBA {
	side := int(math.Ceil(math.Sqrt(float64(len(bits))))) + 1
	return EmbedAlpha(bits, side, side)
}

// EmbedAlpha writes bits into the alpha LSBs of a w×h image, x outer and
// y inner.
func EmbedAlpha(bits []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	i := 0
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			a := uint8(255)
			if i < len(bits) {
				a = 254 | bits[i]
			}
			img.SetNRGBA(x, y, color.NRGBA{R: 128, G: 64, B: 32, A: a})
			i++
		}
	}
	return img
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// TIFFUserComment returns a little-endian TIFF block with an IFD0 pointing
// to an EXIF IFD that holds a single UserComment tag.
func TIFFUserComment(comment []byte) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	put16 := func(v uint16) { binary.Write(&buf, le, v) }
	put32 := func(v uint32) { binary.Write(&buf, le, v) }

	const ifd0 = 8
	const exifIFD = ifd0 + 2 + 12 + 4
	const data = exifIFD + 2 + 12 + 4

	buf.WriteString("II")
	put16(0x2A)
	put32(ifd0)

	put16(1)
	put16(0x8769) // ExifIFDPointer
	put16(4)      // LONG
	put32(1)
	put32(exifIFD)
	put32(0)

	put16(1)
	put16(0x9286) // UserComment
	put16(7)      // UNDEFINED
	put32(uint32(len(comment)))
	put32(data)
	put32(0)

	buf.Write(comment)
	return buf.Bytes()
}

// JPEGWithEXIF wraps a TIFF block in SOI, an APP1 Exif segment and EOI.
func JPEGWithEXIF(tiff []byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	binary.Write(&buf, binary.BigEndian, uint16(2+6+len(tiff)))
	buf.WriteString("Exif\x00\x00")
	buf.Write(tiff)
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

// WebPWithEXIF returns a RIFF/WEBP container holding only an EXIF chunk.
func WebPWithEXIF(exifChunk []byte) []byte {
	var body bytes.Buffer
	body.WriteString("WEBP")
	body.WriteString("EXIF")
	binary.Write(&body, binary.LittleEndian, uint32(len(exifChunk)))
	body.Write(exifChunk)
	if len(exifChunk)%2 != 0 {
		body.WriteByte(0)
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(body.Len()))
	buf.Write(body.Bytes())
	return buf.Bytes()
}
