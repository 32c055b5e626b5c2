package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/text/encoding/unicode"

	"github.com/ankit-chaubey/aimeta-surgery/core"
	"github.com/ankit-chaubey/aimeta-surgery/core/dialect"
)

var errNoEXIF = errors.New("no EXIF data")

// parseEXIF reads the generation parameters A1111-style tools store in the
// EXIF UserComment of JPEG and WebP files.
func parseEXIF(data []byte, format core.FormatID) (*core.GenMetadata, error) {
	comment, err := userComment(data, format)
	if err != nil {
		return nil, err
	}
	if comment == "" {
		return nil, nil
	}
	return dialect.Parse(comment, core.SourceEXIFComment), nil
}

func userComment(data []byte, format core.FormatID) (string, error) {
	var r io.Reader
	switch format {
	case core.FmtJPEG:
		r = bytes.NewReader(data)
	case core.FmtWebP:
		chunk := findRIFFChunk(data, "EXIF")
		if chunk == nil {
			return "", errNoEXIF
		}
		r = bytes.NewReader(bytes.TrimPrefix(chunk, []byte("Exif\x00\x00")))
	default:
		return "", fmt.Errorf("%w in %s", errNoEXIF, format)
	}

	// A non-nil x with an error still holds the tags parsed so far.
	x, err := exif.Decode(r)
	if x == nil {
		return "", fmt.Errorf("decoding EXIF: %w", err)
	}
	tag, err := x.Get(exif.UserComment)
	if err != nil {
		return "", err
	}
	return decodeUserComment(tag.Val), nil
}

// ─── UserComment ─────────────────────────────────────────────────────────────

// decodeUserComment strips the 8-byte character code prefix of a
// UserComment value and decodes the text after it.
func decodeUserComment(val []byte) string {
	if len(val) < 8 {
		return string(bytes.TrimRight(val, "\x00"))
	}
	code, body := val[:8], val[8:]
	switch {
	case bytes.HasPrefix(code, []byte("ASCII")):
		return string(bytes.TrimRight(body, "\x00"))
	case bytes.HasPrefix(code, []byte("UNICODE")):
		return decodeUTF16(body)
	case bytes.Equal(code, make([]byte, 8)):
		return string(bytes.TrimRight(body, "\x00"))
	}
	return string(bytes.TrimRight(val, "\x00"))
}

// decodeUTF16 decodes a BOM-less UTF-16 body, guessing the byte order from
// the first code unit. A BOM, when present, wins.
func decodeUTF16(body []byte) string {
	endian := unicode.LittleEndian
	if len(body) >= 2 && body[0] == 0 && body[1] != 0 {
		endian = unicode.BigEndian
	}
	out, err := unicode.UTF16(endian, unicode.UseBOM).NewDecoder().Bytes(body)
	if err != nil {
		return ""
	}
	return string(bytes.TrimRight(out, "\x00"))
}

// ─── WebP ────────────────────────────────────────────────────────────────────

// findRIFFChunk returns the body of the first RIFF chunk with the given id.
func findRIFFChunk(data []byte, id string) []byte {
	offset := 12 // skip RIFF header
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		offset += 8
		if chunkSize < 0 || offset+chunkSize > len(data) {
			return nil
		}
		if chunkID == id {
			return data[offset : offset+chunkSize]
		}
		offset += chunkSize
		if chunkSize%2 != 0 {
			offset++ // padding
		}
	}
	return nil
}
