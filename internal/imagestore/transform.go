package imagestore

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // registers the GIF decoder
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

// jpegQuality is used whenever a JPEG has to be re-encoded.
const jpegQuality = 80

// maxPixels bounds width*height read from the header, checked before any
// full decode.
const maxPixels = 40_000_000

// ErrTooManyPixels is returned for images whose dimensions exceed maxPixels.
var ErrTooManyPixels = errors.New("image dimensions too large")

// encoded is the result of applying the transformation policy to an image.
type encoded struct {
	data        []byte
	width       int
	height      int
	format      string // "jpeg", "png" or "gif"
	contentType string
	ext         string
}

// transform applies the storage policy: images wider than maxWidth are
// scaled down preserving aspect ratio and re-encoded in their own format.
// GIFs are kept byte-for-byte so animations survive. A maxWidth <= 0
// disables resizing.
func transform(data []byte, maxWidth int) (*encoded, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	out := &encoded{data: data, width: cfg.Width, height: cfg.Height, format: format}
	switch format {
	case "jpeg":
		out.contentType, out.ext = "image/jpeg", "jpg"
	case "png":
		out.contentType, out.ext = "image/png", "png"
	case "gif":
		out.contentType, out.ext = "image/gif", "gif"
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}

	if maxWidth <= 0 || cfg.Width <= maxWidth {
		return out, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	height := int(math.Round(float64(cfg.Height) * float64(maxWidth) / float64(cfg.Width)))
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if format == "jpeg" {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	} else {
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}

	out.data = buf.Bytes()
	out.width, out.height = maxWidth, height
	return out, nil
}
