package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/ds124wfegd/course-import/internal/entity"
)

// Transcoder converts arbitrary input image bytes into a single normalized output format.
type Transcoder interface {
	Transcode(ctx context.Context, input entity.ImageInput) (*entity.ProcessedImage, error)
}

type Options struct {
	Format    string // jpeg или png
	Quality   int
	MaxWidth  int
	MaxHeight int
	MaxBytes  int64
}

type imageProcessor struct {
	format    imaging.Format
	quality   int
	maxWidth  int
	maxHeight int
	maxBytes  int64
}

func NewImageProcessor(opts Options) Transcoder {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 85
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 1600
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = 1600
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 10 * 1024 * 1024
	}
	return &imageProcessor{
		format:    parseFormat(opts.Format),
		quality:   opts.Quality,
		maxWidth:  opts.MaxWidth,
		maxHeight: opts.MaxHeight,
		maxBytes:  opts.MaxBytes,
	}
}

func (p *imageProcessor) Transcode(ctx context.Context, input entity.ImageInput) (*entity.ProcessedImage, error) {
	if len(input.Buffer) == 0 {
		return nil, entity.ErrEmptyImage
	}
	if int64(len(input.Buffer)) > p.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", entity.ErrImageTooLarge, len(input.Buffer))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(input.Buffer), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%s): %v", entity.ErrUnsupportedFormat, input.Name, input.Type, err)
	}

	img = p.fit(img)

	format := p.format
	if input.TargetFormat != "" {
		format = parseFormat(input.TargetFormat)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %v", err)
	}

	return &entity.ProcessedImage{
		Buffer:   buf.Bytes(),
		FileName: outputName(input.Name, format),
		MimeType: mimeType(format),
		Size:     buf.Len(),
	}, nil
}

// fit downscales to the configured bounds keeping the aspect ratio, smaller images are left alone
func (p *imageProcessor) fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= p.maxWidth && b.Dy() <= p.maxHeight {
		return img
	}
	return imaging.Fit(img, p.maxWidth, p.maxHeight, imaging.Lanczos)
}

func parseFormat(name string) imaging.Format {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "png":
		return imaging.PNG
	default:
		return imaging.JPEG
	}
}

func mimeType(format imaging.Format) string {
	if format == imaging.PNG {
		return "image/png"
	}
	return "image/jpeg"
}

func outputName(name string, format imaging.Format) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." || base == "/" {
		base = "imported"
	}
	if format == imaging.PNG {
		return base + ".png"
	}
	return base + ".jpg"
}
