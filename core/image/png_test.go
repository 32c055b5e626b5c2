package image

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/aimeta-surgery/core"
	"github.com/ankit-chaubey/aimeta-surgery/core/internal/fixture"
)

func TestWalkPNGChunks(t *testing.T) {
	data := fixture.PNG(
		fixture.Chunk{Type: "IHDR", Data: make([]byte, 13)},
		fixture.Text("Title", "x"),
		fixture.Chunk{Type: "IDAT", Data: []byte{1, 2, 3}},
	)
	// Anything after IEND is ignored.
	data = append(data, fixture.PNG(fixture.Text("Comment", "{}"))[8:]...)

	var types []string
	walkPNGChunks(data, func(typ string, body []byte) {
		types = append(types, typ)
	})
	assert.Equal(t, []string{"IHDR", "tEXt", "IDAT", "IEND"}, types)
}

func TestWalkPNGChunksTruncated(t *testing.T) {
	data := fixture.PNG(fixture.Text("Comment", `{"prompt": "a"}`), fixture.Text("Source", "m"))

	tests := []struct {
		name string
		cut  int
		want []string
	}{
		{"signature only", 8, nil},
		{"partial header", 12, nil},
		{"first body cut", 20, nil},
		{"first crc missing", 8 + 8 + len(`Comment`) + 1 + len(`{"prompt": "a"}`), []string{"tEXt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var types []string
			walkPNGChunks(data[:tt.cut], func(typ string, body []byte) {
				types = append(types, typ)
			})
			assert.Equal(t, tt.want, types)
		})
	}
}

func TestDecodeTextChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   fixture.Chunk
		ok      bool
		keyword string
		value   string
		kind    chunkKind
	}{
		{"tEXt", fixture.Text("Comment", "hello"), true, "Comment", "hello", chunkText},
		{"tEXt empty value", fixture.Text("Source", ""), true, "Source", "", chunkText},
		{"iTXt", fixture.IText("parameters", "Steps: 20"), true, "parameters", "Steps: 20", chunkText},
		{"zTXt", fixture.ZText("Comment", `{"steps": 28}`), true, "Comment", `{"steps": 28}`, chunkCompressedText},
		{"no keyword", fixture.Chunk{Type: "tEXt", Data: []byte("\x00value")}, false, "", "", chunkText},
		{"no separator", fixture.Chunk{Type: "tEXt", Data: []byte("Comment")}, false, "", "", chunkText},
		{"zTXt bad method", fixture.Chunk{Type: "zTXt", Data: []byte("Comment\x00\x01abc")}, false, "", "", chunkText},
		{"zTXt bad stream", fixture.Chunk{Type: "zTXt", Data: []byte("Comment\x00\x00abc")}, false, "", "", chunkText},
		{"not text", fixture.Chunk{Type: "IDAT", Data: []byte("a\x00b")}, false, "", "", chunkText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := decodeTextChunk(tt.chunk.Type, tt.chunk.Data)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.keyword, c.keyword)
			assert.Equal(t, tt.value, c.value)
			assert.Equal(t, tt.kind, c.kind)
		})
	}
}

func TestInflateZTXtLimit(t *testing.T) {
	body := fixture.ZText("Comment", "0123456789").Data[len("Comment\x00\x00"):]

	out, err := inflateZTXt(body, 10)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(out))

	_, err = inflateZTXt(body, 9)
	assert.ErrorIs(t, err, errZTXtTooLarge)
}

func TestScanPNG(t *testing.T) {
	t.Run("no text chunks", func(t *testing.T) {
		data := fixture.PNG(fixture.Chunk{Type: "IHDR", Data: make([]byte, 13)})
		assert.Nil(t, scanPNG(data))
	})

	t.Run("irrelevant keywords", func(t *testing.T) {
		data := fixture.PNG(fixture.Text("Title", "x"), fixture.Text("Software", "NovelAI"), fixture.Text("Source", "m"))
		assert.Nil(t, scanPNG(data))
	})

	t.Run("last comment wins", func(t *testing.T) {
		data := fixture.PNG(
			fixture.Text("Comment", `{"prompt": "first"}`),
			fixture.Text("parameters", `{"prompt": "second"}`),
		)
		m := scanPNG(data)
		require.NotNil(t, m)
		assert.Equal(t, "second", *m.Prompt)
	})

	t.Run("unparseable later comment keeps earlier result", func(t *testing.T) {
		data := fixture.PNG(
			fixture.Text("Comment", `{"prompt": "first"}`),
			fixture.Text("Comment", `nothing useful`),
		)
		m := scanPNG(data)
		require.NotNil(t, m)
		assert.Equal(t, "first", *m.Prompt)
	})

	t.Run("source before comment", func(t *testing.T) {
		data := fixture.PNG(
			fixture.Text("Source", "nai-diffusion-4-5-full"),
			fixture.Text("Comment", `{"prompt": "a"}`),
		)
		m := scanPNG(data)
		require.NotNil(t, m)
		require.NotNil(t, m.Model)
		assert.Equal(t, "nai-diffusion-4-5-full", *m.Model)
	})

	t.Run("last source wins", func(t *testing.T) {
		data := fixture.PNG(
			fixture.Text("Source", "old"),
			fixture.Text("Comment", `{"prompt": "a"}`),
			fixture.IText("Source", "new"),
		)
		m := scanPNG(data)
		require.NotNil(t, m)
		assert.Equal(t, "new", *m.Model)
	})

	t.Run("text dialect in parameters", func(t *testing.T) {
		data := fixture.PNG(fixture.Text("parameters", "a cat\nNegative prompt: dog\nSteps: 20, Seed: 5"))
		m := scanPNG(data)
		require.NotNil(t, m)
		assert.Equal(t, core.SourceTextChunk, m.Source)
		assert.Equal(t, "a cat", *m.Prompt)
		assert.Equal(t, "dog", *m.NegativePrompt)
		assert.Nil(t, m.Raw)
	})

	t.Run("compressed comment", func(t *testing.T) {
		data := fixture.PNG(fixture.ZText("Comment", `{"prompt": "zipped", "steps": 28}`))
		m := scanPNG(data)
		require.NotNil(t, m)
		assert.Equal(t, "zipped", *m.Prompt)
	})

	t.Run("oversized compressed comment is ignored", func(t *testing.T) {
		value := `{"prompt": "` + strings.Repeat("x", maxZTXt) + `"}`
		data := fixture.PNG(
			fixture.Text("Comment", `{"prompt": "small"}`),
			fixture.ZText("Comment", value),
		)
		m := scanPNG(data)
		require.NotNil(t, m)
		assert.Equal(t, "small", *m.Prompt)
	})

	t.Run("crc is not checked", func(t *testing.T) {
		data := fixture.PNG(fixture.Text("Comment", `{"prompt": "a"}`))
		crcAt := 8 + 8 + len("Comment\x00{\"prompt\": \"a\"}")
		copy(data[crcAt:], []byte{0, 0, 0, 0})
		assert.NotNil(t, scanPNG(data))
	})

	t.Run("oversized length stops the scan", func(t *testing.T) {
		var buf bytes.Buffer
		buf.Write(core.PNGSignature)
		buf.Write([]byte{0x7F, 0xFF, 0xFF, 0xFF})
		buf.WriteString("tEXt")
		buf.WriteString("Comment\x00{}")
		assert.Nil(t, scanPNG(buf.Bytes()))
	})
}
