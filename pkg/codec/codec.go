// Package codec defines the Encoder service: the boundary between arbitrary
// source images and the single canonical on-disk encoding.
//
// The rest of the system treats canonical bytes as opaque. Only an Encoder
// knows how to produce them and how to turn them back into a displayable or
// exportable format.
package codec

import (
	"context"
	"errors"

	"github.com/marmos91/dittophotos/pkg/media"
)

var (
	// ErrUnrecognizedSource is returned by Encode when the source bytes are
	// not an image in any registered format.
	ErrUnrecognizedSource = errors.New("unrecognized source image")

	// ErrTooLarge is returned by Encode when the source exceeds the
	// configured pixel budget.
	ErrTooLarge = errors.New("image too large")

	// ErrCorrupt is returned by Decode when canonical bytes fail validation.
	ErrCorrupt = errors.New("corrupt canonical data")
)

// Encoder converts between source images and the canonical encoding.
//
// Implementations must be safe for concurrent use and deterministic:
// encoding equal input twice yields byte-identical output.
type Encoder interface {
	// Encode converts raw source bytes into the canonical encoding.
	Encode(ctx context.Context, raw []byte) ([]byte, error)

	// Decode converts canonical bytes into target. Decoding into the
	// canonical format returns a copy of the input.
	Decode(ctx context.Context, canonical []byte, target media.Format) ([]byte, error)

	// Format returns the canonical format produced by Encode.
	Format() media.Format
}
