// Package core defines the shared types, format sniffing, configuration and
// output rendering for AI Metadata Surgery.
package core

import "unicode/utf8"

// Source tags where a GenMetadata record was recovered from.
type Source string

const (
	SourceTextChunk    Source = "text_chunk"    // PNG tEXt / iTXt / zTXt chunk
	SourceStealthAlpha Source = "stealth_alpha" // LSBs of the alpha channel
	SourceEXIFComment  Source = "exif_comment"  // EXIF UserComment (JPEG, WebP)
)

// ReferenceInfo is one entry of a vibe-transfer or character-reference list.
type ReferenceInfo struct {
	Strength             float64 `json:"strength" yaml:"strength"`
	InformationExtracted float64 `json:"informationExtracted" yaml:"informationExtracted"`
}

// GenMetadata is the normalized generation record extracted from one image.
// Optional scalar fields are nil when the source did not set them.
type GenMetadata struct {
	Prompt         *string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	NegativePrompt *string `json:"negativePrompt,omitempty" yaml:"negativePrompt,omitempty"`
	Model          *string `json:"model,omitempty" yaml:"model,omitempty"`

	Steps      *int     `json:"steps,omitempty" yaml:"steps,omitempty"`
	CFGScale   *float64 `json:"cfgScale,omitempty" yaml:"cfgScale,omitempty"`
	CFGRescale *float64 `json:"cfgRescale,omitempty" yaml:"cfgRescale,omitempty"`
	Seed       *int64   `json:"seed,omitempty" yaml:"seed,omitempty"`
	Sampler    *string  `json:"sampler,omitempty" yaml:"sampler,omitempty"`
	Scheduler  *string  `json:"scheduler,omitempty" yaml:"scheduler,omitempty"`

	SMEA          *bool `json:"smea,omitempty" yaml:"smea,omitempty"`
	SMEADyn       *bool `json:"smeaDyn,omitempty" yaml:"smeaDyn,omitempty"`
	Variety       *bool `json:"variety,omitempty" yaml:"variety,omitempty"`
	QualityToggle *bool `json:"qualityToggle,omitempty" yaml:"qualityToggle,omitempty"`
	UCPreset      *int  `json:"ucPreset,omitempty" yaml:"ucPreset,omitempty"`

	Width  *int `json:"width,omitempty" yaml:"width,omitempty"`
	Height *int `json:"height,omitempty" yaml:"height,omitempty"`

	// Opaque caption structures, passed through as decoded.
	V4Prompt         any `json:"v4Prompt,omitempty" yaml:"v4Prompt,omitempty"`
	V4NegativePrompt any `json:"v4NegativePrompt,omitempty" yaml:"v4NegativePrompt,omitempty"`

	HasVibeTransfer        bool            `json:"hasVibeTransfer,omitempty" yaml:"hasVibeTransfer,omitempty"`
	VibeTransferInfo       []ReferenceInfo `json:"vibeTransferInfo,omitempty" yaml:"vibeTransferInfo,omitempty"`
	HasCharacterReference  bool            `json:"hasCharacterReference,omitempty" yaml:"hasCharacterReference,omitempty"`
	CharacterReferenceInfo []ReferenceInfo `json:"characterReferenceInfo,omitempty" yaml:"characterReferenceInfo,omitempty"`

	Source Source `json:"source" yaml:"source"`

	// Raw is the decoded structured payload. Nil for the text dialect.
	Raw map[string]any `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// Summary returns a short string of key fields for quick display.
func (m *GenMetadata) Summary() string {
	if m.Prompt != nil {
		p := *m.Prompt
		if utf8.RuneCountInString(p) > 60 {
			p = string([]rune(p)[:57]) + "..."
		}
		return string(m.Source) + ": " + p
	}
	return string(m.Source)
}

// Raster is a decoded image: tightly packed RGBA, 4 bytes per pixel,
// row-major from the top-left corner. Alpha is not premultiplied.
type Raster struct {
	Width  int
	Height int
	Pix    []byte
}

// Alpha returns the alpha byte of the pixel at (x, y).
func (r *Raster) Alpha(x, y int) byte {
	return r.Pix[(y*r.Width+x)*4+3]
}

// Valid reports whether Pix holds Width*Height pixels.
func (r *Raster) Valid() bool {
	return r != nil && r.Width > 0 && r.Height > 0 && len(r.Pix) >= r.Width*r.Height*4
}

var ucPresetLabels = map[int]string{
	0: "Heavy",
	1: "Light",
	2: "Human Focus",
	3: "None",
}

// UCPresetLabel returns the display label for an undesired-content preset,
// or "" for an unknown value.
func UCPresetLabel(preset int) string {
	return ucPresetLabels[preset]
}
