// Package imaging compresses slide images with libvips through bimg.
package imaging

import (
	"errors"
	"fmt"

	"github.com/h2non/bimg"
)

var ErrUnsupported = errors.New("unsupported image type")

// qualitySteps are tried in order until the output fits MaxBytes.
var qualitySteps = []int{85, 75, 65, 55, 45}

// Compressor fits images inside MaxDimension and re-encodes them until they
// are at most MaxBytes, settling for the smallest attempt otherwise.
type Compressor struct {
	MaxDimension int
	MaxBytes     int
}

func NewCompressor(maxDimension, maxBytes int) Compressor {
	return Compressor{MaxDimension: maxDimension, MaxBytes: maxBytes}
}

func (c Compressor) Compress(data []byte, contentType string) ([]byte, string, error) {
	var target bimg.ImageType
	switch contentType {
	case "image/jpeg":
		target = bimg.JPEG
	case "image/webp":
		target = bimg.WEBP
	case "image/png":
		target = bimg.PNG
	case "image/gif":
		// animated gifs lose their frames through vips
		return data, contentType, nil
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupported, contentType)
	}

	img := bimg.NewImage(data)
	size, err := img.Size()
	if err != nil {
		return nil, "", fmt.Errorf("reading image size: %w", err)
	}

	opts := bimg.Options{
		Type:          target,
		StripMetadata: true,
	}
	if size.Width > c.MaxDimension || size.Height > c.MaxDimension {
		if size.Width >= size.Height {
			opts.Width = c.MaxDimension
		} else {
			opts.Height = c.MaxDimension
		}
	}

	if target == bimg.PNG {
		opts.Compression = 9
		out, err := bimg.NewImage(data).Process(opts)
		if err != nil {
			return nil, "", fmt.Errorf("compressing png: %w", err)
		}
		if len(out) <= c.MaxBytes {
			return out, contentType, nil
		}
		// photos saved as png rarely fit; fall through to jpeg
		opts.Type = bimg.JPEG
		opts.Compression = 0
		opts.Background = bimg.Color{R: 255, G: 255, B: 255}
		contentType = "image/jpeg"
	}

	var smallest []byte
	for _, q := range qualitySteps {
		opts.Quality = q
		out, err := bimg.NewImage(data).Process(opts)
		if err != nil {
			return nil, "", fmt.Errorf("compressing at quality %d: %w", q, err)
		}
		if smallest == nil || len(out) < len(smallest) {
			smallest = out
		}
		if len(out) <= c.MaxBytes {
			break
		}
	}
	return smallest, contentType, nil
}
