// Package raster is the default codec.Encoder.
//
// Sources in any registered format (PNG, JPEG, GIF, WebP, TIFF, BMP) are
// decoded, normalized to 8-bit non-premultiplied RGBA and stored as a CBOR
// envelope with compressed pixels and a BLAKE3 checksum. The canonical form
// is lossless with respect to the decoded pixels, so every export is a
// single decode away from the source.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/marmos91/dittophotos/pkg/codec"
	"github.com/marmos91/dittophotos/pkg/media"
	"github.com/zeebo/blake3"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Options tunes the codec.
type Options struct {
	// Compression is one of CompressionZstd (default), CompressionLZ4 or
	// CompressionNone.
	Compression string

	// Level is the zstd level (1-22). Zero selects the library default.
	Level int

	// JPEGQuality is used when exporting to JPEG. Defaults to 90.
	JPEGQuality int

	// MaxPixels bounds width*height of accepted sources. Defaults to 100M.
	MaxPixels int
}

const (
	defaultJPEGQuality = 90
	defaultMaxPixels   = 100_000_000
)

// Codec implements codec.Encoder.
type Codec struct {
	opts Options
	comp *compressor
}

var _ codec.Encoder = (*Codec)(nil)

// New builds a codec. Call Close to release the compressor state.
func New(opts Options) (*Codec, error) {
	if opts.Compression == "" {
		opts.Compression = CompressionZstd
	}
	switch opts.Compression {
	case CompressionZstd, CompressionLZ4, CompressionNone:
	default:
		return nil, fmt.Errorf("unknown compression %q", opts.Compression)
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = defaultJPEGQuality
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = defaultMaxPixels
	}

	comp, err := newCompressor(opts.Level)
	if err != nil {
		return nil, err
	}

	return &Codec{opts: opts, comp: comp}, nil
}

func (c *Codec) Close() error {
	c.comp.close()
	return nil
}

func (c *Codec) Format() media.Format {
	return media.FormatCanonical
}

// Encode decodes raw as an image and returns its canonical encoding.
func (c *Codec) Encode(ctx context.Context, raw []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, sourceFormat, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", codec.ErrUnrecognizedSource, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", codec.ErrUnrecognizedSource, cfg.Width, cfg.Height)
	}
	if cfg.Width*cfg.Height > c.opts.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", codec.ErrTooLarge, cfg.Width, cfg.Height, c.opts.MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %s source: %w", sourceFormat, err)
	}

	nrgba := toNRGBA(img)
	sum := blake3.Sum256(nrgba.Pix)

	pixels, method, err := c.comp.compress(c.opts.Compression, nrgba.Pix)
	if err != nil {
		return nil, err
	}

	return marshalEnvelope(&envelope{
		Magic:       magic,
		Version:     version,
		Width:       nrgba.Rect.Dx(),
		Height:      nrgba.Rect.Dy(),
		Compression: method,
		RawSize:     len(nrgba.Pix),
		Checksum:    sum[:],
		Pixels:      pixels,
		Source:      sourceFormat,
	})
}

// Decode materializes canonical into target.
func (c *Codec) Decode(ctx context.Context, canonical []byte, target media.Format) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if target == media.FormatCanonical {
		return bytes.Clone(canonical), nil
	}

	img, err := c.DecodeImage(canonical)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch target {
	case media.FormatPNG:
		err = png.Encode(&buf, img)
	case media.FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.opts.JPEGQuality})
	case media.FormatGIF:
		err = gif.Encode(&buf, img, &gif.Options{NumColors: 256})
	case media.FormatTIFF:
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case media.FormatBMP:
		err = bmp.Encode(&buf, img)
	default:
		return nil, fmt.Errorf("target %q: %w", target, media.ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", target, err)
	}

	return buf.Bytes(), nil
}

// DecodeImage parses canonical bytes back into pixels, verifying the
// checksum.
func (c *Codec) DecodeImage(canonical []byte) (*image.NRGBA, error) {
	env, err := unmarshalEnvelope(canonical, c.opts.MaxPixels)
	if err != nil {
		return nil, err
	}

	pix, err := c.comp.decompress(env.Compression, env.Pixels, env.RawSize)
	if err != nil {
		return nil, err
	}
	if len(pix) != env.RawSize {
		return nil, fmt.Errorf("%w: got %d pixel bytes, want %d", codec.ErrCorrupt, len(pix), env.RawSize)
	}
	if sum := blake3.Sum256(pix); !bytes.Equal(sum[:], env.Checksum) {
		return nil, fmt.Errorf("%w: checksum mismatch", codec.ErrCorrupt)
	}

	return &image.NRGBA{
		Pix:    pix,
		Stride: 4 * env.Width,
		Rect:   image.Rect(0, 0, env.Width, env.Height),
	}, nil
}

// toNRGBA returns img as a tightly packed NRGBA image anchored at the origin.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() && len(n.Pix) == 4*b.Dx()*b.Dy() {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
