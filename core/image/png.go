package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/ankit-chaubey/aimeta-surgery/core"
	"github.com/ankit-chaubey/aimeta-surgery/core/dialect"
)

// maxZTXt caps the inflated size of a single zTXt chunk.
const maxZTXt = 16 << 20

var errZTXtTooLarge = errors.New("zTXt chunk inflates past limit")

type chunkKind int

const (
	chunkText chunkKind = iota
	chunkCompressedText
)

// pngChunk is a decoded text-bearing chunk. It only lives for one scan.
type pngChunk struct {
	kind    chunkKind
	keyword string
	value   string
}

// walkPNGChunks calls fn for every complete chunk after the signature. It
// stops after IEND or when the next chunk does not fit in data. CRCs are
// not checked, and a missing trailing CRC is tolerated.
func walkPNGChunks(data []byte, fn func(typ string, body []byte)) {
	offset := int64(len(core.PNGSignature))
	size := int64(len(data))
	for offset+8 <= size {
		length := int64(binary.BigEndian.Uint32(data[offset : offset+4]))
		typ := string(data[offset+4 : offset+8])
		end := offset + 8 + length
		if end > size {
			return
		}
		fn(typ, data[offset+8:end])
		if typ == "IEND" {
			return
		}
		offset = end + 4 // skip CRC
	}
}

// decodeTextChunk splits tEXt, iTXt and zTXt bodies into keyword and value.
func decodeTextChunk(typ string, body []byte) (pngChunk, bool) {
	null := bytes.IndexByte(body, 0)
	if null <= 0 {
		return pngChunk{}, false
	}
	c := pngChunk{kind: chunkText, keyword: string(body[:null])}

	switch typ {
	case "tEXt":
		// Format: keyword\0value
		c.value = string(body[null+1:])
	case "iTXt":
		// Format: keyword\0flag method\0language\0translated\0text
		// The text is whatever follows the last NUL.
		last := bytes.LastIndexByte(body, 0)
		c.value = string(body[last+1:])
	case "zTXt":
		// Format: keyword\0method zlib-data
		if null+2 > len(body) || body[null+1] != 0 {
			return pngChunk{}, false
		}
		text, err := inflateZTXt(body[null+2:], maxZTXt)
		if err != nil {
			return pngChunk{}, false
		}
		c.kind = chunkCompressedText
		c.value = string(text)
	default:
		return pngChunk{}, false
	}
	return c, true
}

// inflateZTXt rejects streams that inflate past limit bytes.
func inflateZTXt(data []byte, limit int64) ([]byte, error) {
	z, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer z.Close()
	out, err := io.ReadAll(io.LimitReader(z, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, errZTXtTooLarge
	}
	return out, nil
}

// scanPNG extracts metadata from the text chunks of a PNG stream.
//
// "Comment" and "parameters" chunks carry the parameters, JSON first and
// the text dialect as fallback; the last one that yields a record wins.
// The last "Source" chunk names the model, whatever its position relative
// to the parameter chunk.
func scanPNG(data []byte) *core.GenMetadata {
	var result *core.GenMetadata
	var model string

	walkPNGChunks(data, func(typ string, body []byte) {
		c, ok := decodeTextChunk(typ, body)
		if !ok {
			return
		}
		switch c.keyword {
		case "Comment", "parameters":
			if m := dialect.Parse(c.value, core.SourceTextChunk); m != nil {
				result = m
			}
		case "Source":
			model = c.value
		}
	})

	if result != nil && model != "" {
		result.Model = &model
	}
	return result
}
