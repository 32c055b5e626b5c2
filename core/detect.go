package core

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
)

// FormatID enumerates the recognised raster containers.
type FormatID string

const (
	FmtPNG  FormatID = "png"
	FmtWebP FormatID = "webp"
	FmtJPEG FormatID = "jpeg"

	FmtUnknown FormatID = "unknown"
)

// ErrUnknownFormat is returned by DetectFormat when neither magic bytes nor
// the extension identify the file.
var ErrUnknownFormat = errors.New("unknown image format")

// PNGSignature is the 8-byte PNG file signature.
var PNGSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// extMap maps lowercase extensions to format IDs.
var extMap = map[string]FormatID{
	".png":  FmtPNG,
	".webp": FmtWebP,
	".jpg":  FmtJPEG,
	".jpeg": FmtJPEG,
}

// Sniff classifies b by its magic prefix. Anything unrecognised is
// reported as PNG; callers route on it but must check HasPNGSignature
// before trusting the chunk stream.
func Sniff(b []byte) FormatID {
	if id := detectMagic(b); id != FmtUnknown {
		return id
	}
	return FmtPNG
}

// HasPNGSignature reports whether b starts with the PNG signature.
func HasPNGSignature(b []byte) bool {
	return bytes.HasPrefix(b, PNGSignature)
}

// IsImageExt reports whether path has an extension this tool reads.
func IsImageExt(path string) bool {
	_, ok := extMap[strings.ToLower(extOf(path))]
	return ok
}

// DetectFormat returns the FormatID for the given file, first by reading
// magic bytes and falling back to extension.
func DetectFormat(path string) (FormatID, error) {
	f, err := os.Open(path)
	if err != nil {
		return FmtUnknown, err
	}
	defer f.Close()

	buf := make([]byte, 16)
	n, err := io.ReadFull(f, buf)
	if err != nil && n == 0 {
		return FmtUnknown, err
	}

	if id := detectMagic(buf[:n]); id != FmtUnknown {
		return id, nil
	}
	if id, ok := extMap[strings.ToLower(extOf(path))]; ok {
		return id, nil
	}
	return FmtUnknown, ErrUnknownFormat
}

func extOf(path string) string {
	dot := strings.LastIndex(path, ".")
	if dot < 0 || strings.ContainsAny(path[dot:], `/\`) {
		return ""
	}
	return path[dot:]
}

func detectMagic(b []byte) FormatID {
	switch {
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	case HasPNGSignature(b):
		return FmtPNG
	// WebP: RIFF????WEBP
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return FmtWebP
	// JPEG: FF D8 FF
	case len(b) >= 3 && b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF:
		return FmtJPEG
	}
	return FmtUnknown
}
