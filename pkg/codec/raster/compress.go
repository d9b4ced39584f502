package raster

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/marmos91/dittophotos/pkg/codec"
	"github.com/pierrec/lz4/v4"
)

// Compression names accepted in Options and stored in the envelope.
const (
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
	CompressionNone = "none"
)

var errIncompressible = errors.New("data is incompressible")

type compressor struct {
	zenc *zstd.Encoder
	zdec *zstd.Decoder
}

func newCompressor(level int) (*compressor, error) {
	zlevel := zstd.SpeedDefault
	if level > 0 {
		zlevel = zstd.EncoderLevelFromZstd(level)
	}

	// A single encoder goroutine keeps the block layout, and therefore the
	// output bytes, independent of scheduling.
	zenc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zlevel),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}

	zdec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		_ = zenc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &compressor{zenc: zenc, zdec: zdec}, nil
}

func (c *compressor) close() {
	_ = c.zenc.Close()
	c.zdec.Close()
}

// compress returns the compressed pixels and the method actually used.
// LZ4 falls back to storing the pixels as-is when they do not shrink.
func (c *compressor) compress(method string, pixels []byte) ([]byte, string, error) {
	switch method {
	case CompressionZstd:
		return c.zenc.EncodeAll(pixels, make([]byte, 0, len(pixels)/2)), CompressionZstd, nil
	case CompressionLZ4:
		out, err := compressLZ4(pixels)
		if errors.Is(err, errIncompressible) {
			return pixels, CompressionNone, nil
		}
		if err != nil {
			return nil, "", err
		}
		return out, CompressionLZ4, nil
	case CompressionNone:
		return pixels, CompressionNone, nil
	default:
		return nil, "", fmt.Errorf("unknown compression %q", method)
	}
}

func (c *compressor) decompress(method string, data []byte, rawSize int) ([]byte, error) {
	switch method {
	case CompressionZstd:
		out, err := c.zdec.DecodeAll(data, make([]byte, 0, rawSize))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", codec.ErrCorrupt, err)
		}
		return out, nil
	case CompressionLZ4:
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", codec.ErrCorrupt, err)
		}
		return out[:n], nil
	case CompressionNone:
		return data, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %q", codec.ErrCorrupt, method)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return dst[:written], nil
}
