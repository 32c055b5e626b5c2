package stealth

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/ankit-chaubey/aimeta-surgery/core"
)

// RasterDecoder turns an encoded image into a decoded pixel buffer.
// Implementations may block; they should honour ctx.
type RasterDecoder interface {
	DecodeRaster(ctx context.Context, data []byte) (*core.Raster, error)
}

// ImageDecoder decodes PNG, JPEG and WebP with the image package codecs.
type ImageDecoder struct{}

// DecodeRaster implements RasterDecoder.
func (ImageDecoder) DecodeRaster(ctx context.Context, data []byte) (*core.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoRaster, err)
	}
	return RasterFromImage(img), nil
}

// RasterFromImage converts img to tightly packed, non-premultiplied RGBA.
// An *image.NRGBA with a zero origin and no row padding is used as is.
func RasterFromImage(img image.Image) *core.Raster {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	nrgba, ok := img.(*image.NRGBA)
	if !ok || b.Min != (image.Point{}) || nrgba.Stride != 4*w {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		nrgba = dst
	}
	return &core.Raster{Width: w, Height: h, Pix: nrgba.Pix[:4*w*h]}
}
