// Package image extracts AI generation metadata from PNG, WebP and JPEG
// files.
//
// Carriers are tried cheapest first: PNG text chunks, then the stealth
// alpha-channel payload, then the EXIF UserComment of JPEG and WebP files.
// The first carrier that yields a record wins.
package image

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ankit-chaubey/aimeta-surgery/core"
	"github.com/ankit-chaubey/aimeta-surgery/core/stealth"
)

// ──────────────────────────────────────────────────────────────────────────────
// Extractor
// ──────────────────────────────────────────────────────────────────────────────

// Options configures an Extractor. The zero value enables every carrier
// with the default codecs.
type Options struct {
	// Raster decodes images for the stealth carrier. Default stealth.ImageDecoder.
	Raster stealth.RasterDecoder
	// Inflater decompresses stealth payloads. Default stealth.GzipInflater.
	Inflater stealth.Inflater

	DisableStealth bool
	DisableEXIF    bool

	Logger *zap.Logger
}

// Extractor holds no per-call state and is safe for concurrent use.
type Extractor struct {
	raster  stealth.RasterDecoder
	stealth *stealth.Decoder
	exif    bool
	log     *zap.Logger
}

// New returns an Extractor for opts.
func New(opts Options) *Extractor {
	e := &Extractor{
		raster: opts.Raster,
		exif:   !opts.DisableEXIF,
		log:    opts.Logger,
	}
	if e.raster == nil {
		e.raster = stealth.ImageDecoder{}
	}
	if !opts.DisableStealth {
		e.stealth = &stealth.Decoder{Inflater: opts.Inflater}
		if e.stealth.Inflater == nil {
			e.stealth.Inflater = stealth.GzipInflater{}
		}
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// NewFromConfig returns an Extractor for the carriers enabled in cfg.
func NewFromConfig(cfg core.Config, log *zap.Logger) *Extractor {
	return New(Options{
		Inflater:       stealth.GzipInflater{MaxBytes: cfg.MaxInflatedBytes},
		DisableStealth: !cfg.Stealth,
		DisableEXIF:    !cfg.EXIF,
		Logger:         log,
	})
}

// Parse returns the generation metadata embedded in data, or nil when none
// is found. It never fails: malformed input and internal faults both
// produce nil.
func (e *Extractor) Parse(ctx context.Context, data []byte) (m *core.GenMetadata) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("recovered from extraction fault", zap.Any("panic", r))
			m = nil
		}
	}()

	format := core.Sniff(data)
	log := e.log.With(zap.String("format", string(format)), zap.Int("bytes", len(data)))

	if format == core.FmtPNG && core.HasPNGSignature(data) {
		if m := scanPNG(data); m != nil {
			log.Debug("metadata found", zap.String("source", string(m.Source)))
			return m
		}
		log.Debug("no text chunk metadata")
	}

	if e.stealth != nil {
		m, err := e.parseStealth(ctx, data)
		if err == nil {
			log.Debug("metadata found", zap.String("source", string(m.Source)))
			return m
		}
		log.Debug("no stealth metadata", zap.Error(err))
	}

	if e.exif && (format == core.FmtJPEG || format == core.FmtWebP) {
		m, err := parseEXIF(data, format)
		if err != nil {
			log.Debug("no EXIF metadata", zap.Error(err))
			return nil
		}
		if m != nil {
			log.Debug("metadata found", zap.String("source", string(m.Source)))
		}
		return m
	}
	return nil
}

func (e *Extractor) parseStealth(ctx context.Context, data []byte) (*core.GenMetadata, error) {
	raster, err := e.raster.DecodeRaster(ctx, data)
	if err != nil {
		return nil, err
	}
	if !raster.Valid() {
		return nil, stealth.ErrNoRaster
	}
	return e.stealth.Decode(raster)
}

// ParseReader reads r to the end and parses its content. Only read errors
// are returned.
func (e *Extractor) ParseReader(ctx context.Context, r io.Reader) (*core.GenMetadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return e.Parse(ctx, data), nil
}

// ParseFile opens path and parses its content.
func (e *Extractor) ParseFile(ctx context.Context, path string) (*core.GenMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return e.ParseReader(ctx, f)
}
