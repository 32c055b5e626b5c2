package dialect

import (
	"strconv"
	"strings"

	"github.com/ankit-chaubey/aimeta-surgery/core"
)

const negativePrefix = "Negative prompt:"

// ParseText reads the line-oriented parameter block:
//
//	<prompt lines>
//	Negative prompt: <negative lines>
//	Steps: 28, Sampler: Euler a, CFG scale: 7, Seed: 42, Size: 512x768
//
// It returns nil when neither a "Negative prompt:" nor a "Steps:" line is
// present. Raw stays nil; this dialect has no structured payload.
func ParseText(block string, src core.Source) *core.GenMetadata {
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}

	negStart, paramsStart := -1, -1
	for i, l := range lines {
		if negStart < 0 && strings.HasPrefix(l, negativePrefix) {
			negStart = i
		}
		if strings.HasPrefix(l, "Steps:") {
			paramsStart = i
			break
		}
	}
	if negStart < 0 && paramsStart < 0 {
		return nil
	}

	m := &core.GenMetadata{Source: src}

	promptEnd := paramsStart
	if negStart >= 0 {
		promptEnd = negStart
	}
	if promptEnd > 0 {
		p := strings.Join(lines[:promptEnd], "\n")
		m.Prompt = &p
	}

	if negStart >= 0 && paramsStart > negStart {
		neg := make([]string, paramsStart-negStart)
		copy(neg, lines[negStart:paramsStart])
		neg[0] = strings.TrimPrefix(neg[0], negativePrefix+" ")
		neg[0] = strings.TrimPrefix(neg[0], negativePrefix)
		n := strings.Join(neg, "\n")
		m.NegativePrompt = &n
	}

	if paramsStart >= 0 {
		applyParams(m, lines[paramsStart])
	}
	return m
}

// applyParams reads the recognised "key: value" pairs of a parameter line.
func applyParams(m *core.GenMetadata, line string) {
	for _, pair := range strings.Split(line, ", ") {
		key, value, ok := strings.Cut(pair, ": ")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Steps":
			if n, err := strconv.Atoi(value); err == nil {
				m.Steps = &n
			}
		case "Sampler":
			s := value
			m.Sampler = &s
		case "CFG scale":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				m.CFGScale = &f
			}
		case "Seed":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				m.Seed = &n
			}
		case "Size":
			w, h, ok := strings.Cut(value, "x")
			if !ok {
				continue
			}
			if wi, err := strconv.Atoi(w); err == nil {
				m.Width = &wi
			}
			if hi, err := strconv.Atoi(h); err == nil {
				m.Height = &hi
			}
		}
	}
}

// Parse tries the structured dialect first and falls back to the text
// dialect. It returns nil when neither recognises the value.
func Parse(value string, src core.Source) *core.GenMetadata {
	if raw, err := ParseObject(value); err == nil {
		return Normalize(raw, src)
	}
	return ParseText(value, src)
}
