package imaging

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"
)

// Output is a generated image encoded for storage.
type Output struct {
	Data   []byte
	Width  int
	Height int
}

// EncodeOutput decodes the bytes returned by the generation API and re-encodes
// them in the requested format. When maxSize is positive and the generated
// image is larger, it is downscaled so its longest side equals maxSize;
// smaller images are never upscaled, even when maxSize asks for more.
// JPEG output is flattened over white first since the format carries no alpha.
func EncodeOutput(data []byte, format string, quality, maxSize int) (*Output, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}

	img = Downscale(img, maxSize)

	var buf bytes.Buffer
	switch format {
	case "jpeg", "jpg":
		if quality < 1 || quality > 100 {
			return nil, fmt.Errorf("imaging: jpeg quality %d out of range 1-100", quality)
		}
		if err := jpeg.Encode(&buf, FlattenRGB(img), &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("imaging: encode jpeg: %w", err)
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("imaging: encode png: %w", err)
		}
	default:
		return nil, fmt.Errorf("imaging: unsupported output format %q", format)
	}

	bounds := img.Bounds()
	return &Output{
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// MinShortSide is the smallest short-side dimension considered usable output.
const MinShortSide = 512

// CheckQuality verifies that saved output bytes decode and are not degenerate.
// Failures here are diagnostics for the caller to log, not generation failures.
func CheckQuality(data []byte) (ok bool, detail string) {
	w, h, err := Dimensions(data)
	if err != nil {
		return false, fmt.Sprintf("output not decodable: %v", err)
	}
	short := w
	if h < short {
		short = h
	}
	if short < MinShortSide {
		return false, fmt.Sprintf("output too small: %dx%d (minimum short side %dpx)", w, h, MinShortSide)
	}
	return true, fmt.Sprintf("output validated: %dx%d", w, h)
}
