// Package dialect turns the two generation-parameter encodings into
// core.GenMetadata: the JSON object written by NovelAI-style generators and
// the line-oriented "Steps: 28, Sampler: ..." block written by A1111-style
// tools.
package dialect

import (
	"errors"
	"fmt"
	"math"

	jsoniter "github.com/json-iterator/go"

	"github.com/ankit-chaubey/aimeta-surgery/core"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotObject is returned by ParseObject for valid JSON that is not an object.
var ErrNotObject = errors.New("payload is not a JSON object")

// ParseObject decodes text as a JSON object with loosely typed values.
// Numbers decode as float64.
func ParseObject(text string) (map[string]any, error) {
	var v any
	if err := json.UnmarshalFromString(text, &v); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

// ─── Field table ─────────────────────────────────────────────────────────────

type setter func(m *core.GenMetadata, v any)

// Each rule sets its field only when the source value is present and
// truthy: non-empty strings and non-zero numbers. A seed of 0 is therefore
// dropped, matching the generators' own readers.
var fieldRules = []struct {
	key string
	set setter
}{
	{"prompt", text(func(m *core.GenMetadata) **string { return &m.Prompt })},
	{"steps", number(func(m *core.GenMetadata) **int { return &m.Steps })},
	{"scale", number(func(m *core.GenMetadata) **float64 { return &m.CFGScale })},
	{"cfg_rescale", number(func(m *core.GenMetadata) **float64 { return &m.CFGRescale })},
	{"seed", number(func(m *core.GenMetadata) **int64 { return &m.Seed })},
	{"sampler", text(func(m *core.GenMetadata) **string { return &m.Sampler })},
	{"noise_schedule", text(func(m *core.GenMetadata) **string { return &m.Scheduler })},
	{"sm", flag(func(m *core.GenMetadata) **bool { return &m.SMEA })},
	{"sm_dyn", flag(func(m *core.GenMetadata) **bool { return &m.SMEADyn })},
	{"width", number(func(m *core.GenMetadata) **int { return &m.Width })},
	{"height", number(func(m *core.GenMetadata) **int { return &m.Height })},
	{"qualityToggle", flag(func(m *core.GenMetadata) **bool { return &m.QualityToggle })},
	{"ucPreset", number(func(m *core.GenMetadata) **int { return &m.UCPreset })},
}

func text(field func(*core.GenMetadata) **string) setter {
	return func(m *core.GenMetadata, v any) {
		if s, ok := v.(string); ok && s != "" {
			*field(m) = &s
		}
	}
}

func number[T int | int64 | float64](field func(*core.GenMetadata) **T) setter {
	return func(m *core.GenMetadata, v any) {
		f, ok := toFloat(v)
		if !ok || f == 0 || math.IsNaN(f) {
			return
		}
		n, ok := convert[T](f)
		if !ok {
			return
		}
		*field(m) = &n
	}
}

// convert narrows f to T. Integer fields accept only whole values in range.
func convert[T int | int64 | float64](f float64) (T, bool) {
	var zero T
	switch any(zero).(type) {
	case int:
		if f != math.Trunc(f) || f < math.MinInt || f >= -math.MinInt {
			return zero, false
		}
	case int64:
		if f != math.Trunc(f) || f < math.MinInt64 || f >= -math.MinInt64 {
			return zero, false
		}
	}
	return T(f), true
}

// Booleans are recorded whenever present, false included.
func flag(field func(*core.GenMetadata) **bool) setter {
	return func(m *core.GenMetadata, v any) {
		if b, ok := v.(bool); ok {
			*field(m) = &b
		}
	}
}

// ─── Normalize ───────────────────────────────────────────────────────────────

// negativeKeys are tried in order after the v4 caption.
var negativeKeys = []string{"uc", "negative_prompt", "undesired_content"}

// Normalize maps a structured payload onto a GenMetadata tagged with src.
// It never fails: absent or wrongly typed keys leave their field unset.
func Normalize(raw map[string]any, src core.Source) *core.GenMetadata {
	m := &core.GenMetadata{Source: src, Raw: raw}

	for _, rule := range fieldRules {
		if v, ok := raw[rule.key]; ok && v != nil {
			rule.set(m, v)
		}
	}

	if m.Prompt == nil {
		if s, ok := lookupString(raw, "v4_prompt", "caption", "base_caption"); ok {
			m.Prompt = &s
		}
	}

	if v, ok := raw["skip_cfg_above_sigma"]; ok && v != nil {
		variety := true
		m.Variety = &variety
	}

	if s, ok := lookupString(raw, "v4_negative_prompt", "caption", "base_caption"); ok {
		m.NegativePrompt = &s
	} else {
		for _, key := range negativeKeys {
			if s, ok := raw[key].(string); ok && s != "" {
				m.NegativePrompt = &s
				break
			}
		}
	}

	if v := raw["v4_prompt"]; v != nil {
		m.V4Prompt = v
	}
	if v := raw["v4_negative_prompt"]; v != nil {
		m.V4NegativePrompt = v
	}

	if info := referenceInfo(raw["reference_strength_multiple"], raw["reference_information_extracted_multiple"]); info != nil {
		m.HasVibeTransfer = true
		m.VibeTransferInfo = info
	}
	if info := referenceInfo(raw["director_reference_strengths"], raw["director_reference_secondary_strengths"]); info != nil {
		m.HasCharacterReference = true
		m.CharacterReferenceInfo = info
	}
	return m
}

// referenceInfo pairs each strength with the matching secondary value.
// Secondary entries that are missing or null default to 1.0.
func referenceInfo(strengths, secondary any) []core.ReferenceInfo {
	list, ok := strengths.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	extra, _ := secondary.([]any)

	out := make([]core.ReferenceInfo, len(list))
	for i, v := range list {
		out[i].Strength, _ = toFloat(v)
		out[i].InformationExtracted = 1.0
		if i < len(extra) {
			if f, ok := toFloat(extra[i]); ok {
				out[i].InformationExtracted = f
			}
		}
	}
	return out
}

// lookupString walks nested objects and returns a non-empty string leaf.
func lookupString(obj map[string]any, path ...string) (string, bool) {
	var cur any = obj
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur = m[key]
	}
	s, ok := cur.(string)
	return s, ok && s != ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case jsoniter.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
