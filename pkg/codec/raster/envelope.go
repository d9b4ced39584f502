package raster

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/marmos91/dittophotos/pkg/codec"
)

const (
	magic   = "DPIC"
	version = 1
)

// envelope is the on-disk layout of a canonical item.
//
// Integer keys keep the encoding compact; core deterministic mode sorts
// them so that equal images always serialize to equal bytes.
type envelope struct {
	Magic       string `cbor:"1,keyasint"`
	Version     uint   `cbor:"2,keyasint"`
	Width       int    `cbor:"3,keyasint"`
	Height      int    `cbor:"4,keyasint"`
	Compression string `cbor:"5,keyasint"`
	RawSize     int    `cbor:"6,keyasint"`
	Checksum    []byte `cbor:"7,keyasint"`
	Pixels      []byte `cbor:"8,keyasint"`
	Source      string `cbor:"9,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("raster: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("raster: CBOR decoder initialization failed: " + err.Error())
	}
}

func marshalEnvelope(e *envelope) ([]byte, error) {
	return encMode.Marshal(e)
}

// unmarshalEnvelope parses data and checks its geometry before any pixel
// buffer is sized from it.
func unmarshalEnvelope(data []byte, maxPixels int) (*envelope, error) {
	var e envelope
	if err := decMode.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %w", codec.ErrCorrupt, err)
	}
	if e.Magic != magic {
		return nil, fmt.Errorf("%w: bad magic %q", codec.ErrCorrupt, e.Magic)
	}
	if e.Version != version {
		return nil, fmt.Errorf("%w: unsupported version %d", codec.ErrCorrupt, e.Version)
	}
	if e.Width <= 0 || e.Height <= 0 {
		return nil, fmt.Errorf("%w: empty geometry %dx%d", codec.ErrCorrupt, e.Width, e.Height)
	}
	if e.Width > maxPixels/e.Height {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", codec.ErrTooLarge, e.Width, e.Height, maxPixels)
	}
	if e.RawSize != 4*e.Width*e.Height {
		return nil, fmt.Errorf("%w: inconsistent geometry %dx%d (%d bytes)", codec.ErrCorrupt, e.Width, e.Height, e.RawSize)
	}
	return &e, nil
}
