// Package imaging normalizes input photos before they are sent to the
// generation API and encodes the returned image for storage.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrDecode reports that input bytes are not a decodable image.
var ErrDecode = errors.New("imaging: undecodable image data")

// Prepared is an input image normalized for the API call: flattened to RGB
// over white, downscaled to the ceiling, re-encoded as PNG.
type Prepared struct {
	PNG    []byte
	Width  int
	Height int
}

// MIMEType returns the wire content type of the prepared bytes.
func (p *Prepared) MIMEType() string { return "image/png" }

// LongSide returns the longer of the prepared dimensions.
func (p *Prepared) LongSide() int {
	if p.Width > p.Height {
		return p.Width
	}
	return p.Height
}

// Prepare decodes raw image bytes and normalizes them for transmission.
// Images whose longest side exceeds ceiling are downscaled proportionally;
// smaller images keep their dimensions. Upscaling never happens.
func Prepare(data []byte, ceiling int) (*Prepared, error) {
	src, err := decode(data)
	if err != nil {
		return nil, err
	}

	flat := FlattenRGB(src)
	scaled := Downscale(flat, ceiling)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("imaging: encode prepared image: %w", err)
	}
	bounds := scaled.Bounds()
	return &Prepared{
		PNG:    buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// Dimensions decodes only the image header and reports its size.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}

func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// FlattenRGB composites the image over a white background, discarding alpha.
// Grayscale, palette, and RGBA inputs all come out as opaque RGB pixels.
func FlattenRGB(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	return dst
}

// Downscale resizes the image proportionally so its longest side equals
// ceiling. Images already within the ceiling are returned unchanged.
func Downscale(src image.Image, ceiling int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	long := w
	if h > long {
		long = h
	}
	if ceiling <= 0 || long <= ceiling {
		return src
	}

	ratio := float64(ceiling) / float64(long)
	newW := int(float64(w) * ratio)
	newH := int(float64(h) * ratio)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	return dst
}
