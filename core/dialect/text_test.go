package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/aimeta-surgery/core"
)

func TestParseTextFull(t *testing.T) {
	m := ParseText("1girl, standing\nNegative prompt: lowres, bad anatomy\nSteps: 28, Sampler: Euler a, CFG scale: 7, Seed: 42, Size: 512x768", core.SourceTextChunk)
	require.NotNil(t, m)

	assert.Equal(t, ptr("1girl, standing"), m.Prompt)
	assert.Equal(t, ptr("lowres, bad anatomy"), m.NegativePrompt)
	assert.Equal(t, ptr(28), m.Steps)
	assert.Equal(t, ptr("Euler a"), m.Sampler)
	assert.Equal(t, ptr(7.0), m.CFGScale)
	assert.Equal(t, ptr(int64(42)), m.Seed)
	assert.Equal(t, ptr(512), m.Width)
	assert.Equal(t, ptr(768), m.Height)
	assert.Equal(t, core.SourceTextChunk, m.Source)
	assert.Nil(t, m.Model)
	assert.Nil(t, m.Raw)
}

func TestParseTextMultiline(t *testing.T) {
	block := "masterpiece,\n1girl\nNegative prompt: lowres,\nbad hands\nSteps: 20, Model: foo, Size: 640x960"
	m := ParseText(block, core.SourceEXIFComment)
	require.NotNil(t, m)

	assert.Equal(t, ptr("masterpiece,\n1girl"), m.Prompt)
	assert.Equal(t, ptr("lowres,\nbad hands"), m.NegativePrompt)
	assert.Equal(t, ptr(20), m.Steps)
	assert.Nil(t, m.Model, "the Model key is not read")
	assert.Equal(t, ptr(640), m.Width)
}

func TestParseTextMarkers(t *testing.T) {
	tests := []struct {
		name     string
		block    string
		isNil    bool
		prompt   *string
		negative *string
		steps    *int
	}{
		{
			name:  "no markers",
			block: "just a caption\nwith two lines",
			isNil: true,
		},
		{
			name:  "empty",
			block: "",
			isNil: true,
		},
		{
			name:   "params only",
			block:  "a cat\nSteps: 12",
			prompt: ptr("a cat"),
			steps:  ptr(12),
		},
		{
			name:  "params on first line",
			block: "Steps: 12, Seed: 3",
			steps: ptr(12),
		},
		{
			name:   "negative without params keeps prompt only",
			block:  "a cat\nNegative prompt: dog",
			prompt: ptr("a cat"),
		},
		{
			name:     "CRLF line endings",
			block:    "a cat\r\nNegative prompt: dog\r\nSteps: 5\r\n",
			prompt:   ptr("a cat"),
			negative: ptr("dog"),
			steps:    ptr(5),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ParseText(tt.block, core.SourceTextChunk)
			if tt.isNil {
				assert.Nil(t, m)
				return
			}
			require.NotNil(t, m)
			assert.Equal(t, tt.prompt, m.Prompt)
			assert.Equal(t, tt.negative, m.NegativePrompt)
			assert.Equal(t, tt.steps, m.Steps)
		})
	}
}

func TestParseTextBadValuesIgnored(t *testing.T) {
	m := ParseText("Steps: many, CFG scale: high, Size: big, Seed: 9", core.SourceTextChunk)
	require.NotNil(t, m)

	assert.Nil(t, m.Steps)
	assert.Nil(t, m.CFGScale)
	assert.Nil(t, m.Width)
	assert.Nil(t, m.Height)
	assert.Equal(t, ptr(int64(9)), m.Seed)
}

func TestParsePrefersJSON(t *testing.T) {
	m := Parse(`{"prompt": "json prompt", "steps": 28}`, core.SourceTextChunk)
	require.NotNil(t, m)
	assert.Equal(t, ptr("json prompt"), m.Prompt)
	assert.NotNil(t, m.Raw)

	m = Parse("text prompt\nSteps: 28", core.SourceTextChunk)
	require.NotNil(t, m)
	assert.Equal(t, ptr("text prompt"), m.Prompt)
	assert.Nil(t, m.Raw)

	assert.Nil(t, Parse("nothing here", core.SourceTextChunk))
	assert.Nil(t, Parse("42", core.SourceTextChunk), "non-object JSON falls back to text and finds nothing")
}
