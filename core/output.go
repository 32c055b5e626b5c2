package core

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Printer handles all display output for the CLI.
type Printer struct {
	Format  string // text, json or yaml
	Verbose bool   // include the raw payload in text mode
	Writer  io.Writer
}

// NewPrinter creates a Printer writing to stdout.
func NewPrinter(format string, verbose bool) *Printer {
	return &Printer{Format: format, Verbose: verbose, Writer: os.Stdout}
}

// fileRecord is the serialized form of one file's result.
type fileRecord struct {
	File     string       `json:"file" yaml:"file"`
	Metadata *GenMetadata `json:"metadata" yaml:"metadata"`
	Error    string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// PrintMetadata renders the result for one file. m may be nil.
func (p *Printer) PrintMetadata(path string, m *GenMetadata) error {
	switch p.Format {
	case OutputJSON:
		return p.printJSON(fileRecord{File: path, Metadata: m})
	case OutputYAML:
		return p.printYAML(fileRecord{File: path, Metadata: m})
	}
	p.printText(path, m)
	return nil
}

// PrintBatch renders many results: a single array in JSON/YAML mode, one
// summary line per file in text mode.
func (p *Printer) PrintBatch(paths []string, metas []*GenMetadata, errs []error) error {
	if p.Format == OutputText {
		for i, path := range paths {
			switch {
			case errs[i] != nil:
				fmt.Fprintf(p.Writer, "%s\t✗ %v\n", path, errs[i])
			case metas[i] == nil:
				fmt.Fprintf(p.Writer, "%s\t-\n", path)
			default:
				fmt.Fprintf(p.Writer, "%s\t%s\n", path, metas[i].Summary())
			}
		}
		return nil
	}

	records := make([]fileRecord, len(paths))
	for i, path := range paths {
		records[i] = fileRecord{File: path, Metadata: metas[i]}
		if errs[i] != nil {
			records[i].Error = errs[i].Error()
		}
	}
	if p.Format == OutputYAML {
		return p.printYAML(records)
	}
	return p.printJSON(records)
}

func (p *Printer) printText(path string, m *GenMetadata) {
	fmt.Fprintf(p.Writer, "File  : %s\n", path)
	if m == nil {
		fmt.Fprintln(p.Writer, "(no generation metadata found)")
		return
	}
	fmt.Fprintf(p.Writer, "Source: %s\n\n", m.Source)

	row := func(key, val string) {
		fmt.Fprintf(p.Writer, "  %-24s %s\n", key+":", val)
	}

	fmt.Fprintln(p.Writer, "── Prompt ──")
	if m.Prompt != nil {
		row("Prompt", *m.Prompt)
	}
	if m.NegativePrompt != nil {
		row("Negative prompt", *m.NegativePrompt)
	}
	if m.Model != nil {
		row("Model", *m.Model)
	}
	fmt.Fprintln(p.Writer)

	fmt.Fprintln(p.Writer, "── Sampling ──")
	optInt(row, "Steps", m.Steps)
	optFloat(row, "CFG scale", m.CFGScale)
	optFloat(row, "CFG rescale", m.CFGRescale)
	if m.Seed != nil {
		row("Seed", strconv.FormatInt(*m.Seed, 10))
	}
	optString(row, "Sampler", m.Sampler)
	optString(row, "Scheduler", m.Scheduler)
	if m.Width != nil && m.Height != nil {
		row("Size", fmt.Sprintf("%dx%d", *m.Width, *m.Height))
	}
	optBool(row, "SMEA", m.SMEA)
	optBool(row, "SMEA DYN", m.SMEADyn)
	optBool(row, "Variety", m.Variety)
	optBool(row, "Quality toggle", m.QualityToggle)
	if m.UCPreset != nil {
		label := UCPresetLabel(*m.UCPreset)
		if label == "" {
			label = strconv.Itoa(*m.UCPreset)
		}
		row("UC preset", label)
	}
	fmt.Fprintln(p.Writer)

	if m.HasVibeTransfer || m.HasCharacterReference {
		fmt.Fprintln(p.Writer, "── References ──")
		if m.HasVibeTransfer {
			row("Vibe transfer", formatRefs(m.VibeTransferInfo))
		}
		if m.HasCharacterReference {
			row("Character reference", formatRefs(m.CharacterReferenceInfo))
		}
		fmt.Fprintln(p.Writer)
	}

	if p.Verbose && m.Raw != nil {
		// jsoniter rejects a non-empty prefix, so the margin is added here.
		b, err := json.MarshalIndent(m.Raw, "", "  ")
		if err == nil {
			fmt.Fprintln(p.Writer, "── Raw ──")
			fmt.Fprintf(p.Writer, "  %s\n\n", strings.ReplaceAll(string(b), "\n", "\n  "))
		}
	}
}

func (p *Printer) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.Writer, string(b))
	return err
}

func (p *Printer) printYAML(v any) error {
	enc := yaml.NewEncoder(p.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func formatRefs(refs []ReferenceInfo) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = fmt.Sprintf("%g/%g", r.Strength, r.InformationExtracted)
	}
	return strings.Join(parts, ", ")
}

func optString(row func(string, string), key string, v *string) {
	if v != nil {
		row(key, *v)
	}
}

func optInt(row func(string, string), key string, v *int) {
	if v != nil {
		row(key, strconv.Itoa(*v))
	}
}

func optFloat(row func(string, string), key string, v *float64) {
	if v != nil {
		row(key, strconv.FormatFloat(*v, 'g', -1, 64))
	}
}

func optBool(row func(string, string), key string, v *bool) {
	if v != nil {
		row(key, strconv.FormatBool(*v))
	}
}

// PrintError prints an error to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, "✗ Error: "+msg)
}
