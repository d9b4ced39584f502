package media

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentID(t *testing.T) {
	t.Run("NewIsValidAndUnique", func(t *testing.T) {
		seen := make(map[ContentID]bool)
		for range 100 {
			id := NewContentID()
			require.NoError(t, id.Validate())
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	})

	t.Run("ParseRejectsNonCanonical", func(t *testing.T) {
		id := NewContentID()
		for _, s := range []string{
			"",
			"../../etc/passwd",
			strings.ToUpper(string(id)),
			"{" + string(id) + "}",
			"urn:uuid:" + string(id),
			strings.ReplaceAll(string(id), "-", ""),
		} {
			_, err := ParseContentID(s)
			assert.ErrorIs(t, err, ErrInvalidContentID, "input %q", s)
		}
	})

	t.Run("ParseAcceptsCanonical", func(t *testing.T) {
		id := NewContentID()
		parsed, err := ParseContentID(string(id))
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"png", FormatPNG},
		{"PNG", FormatPNG},
		{".jpg", FormatJPEG},
		{"jpeg", FormatJPEG},
		{"tif", FormatTIFF},
		{"dpic", FormatCanonical},
		{" bmp ", FormatBMP},
		{"gif", FormatGIF},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFormat("avif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("/tmp/out/photo.JPG")
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, f)

	_, err = FormatFromPath("/tmp/out/photo")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatExtensionAndMIME(t *testing.T) {
	assert.Equal(t, ".jpg", FormatJPEG.Extension())
	assert.Equal(t, ".dpic", FormatCanonical.Extension())
	assert.Equal(t, "image/png", FormatPNG.MIMEType())
	assert.Equal(t, "application/x-dpic", FormatCanonical.MIMEType())
}

func TestError(t *testing.T) {
	cause := os.ErrPermission
	err := E(ErrPersist, "put", cause).WithID("abc").WithPath("/data/x.dpic")

	assert.ErrorIs(t, err, ErrPersist)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, "put abc /data/x.dpic: persist error: permission denied", err.Error())
	assert.Equal(t, "PersistError", KindOf(err))

	wrapped := fmt.Errorf("batch: %w", err)
	var me *Error
	require.True(t, errors.As(wrapped, &me))
	assert.Equal(t, ContentID("abc"), me.ID)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "", KindOf(nil))
	assert.Equal(t, "IOError", KindOf(errors.New("boom")))
	assert.Equal(t, "NotFound", KindOf(fmt.Errorf("x: %w", ErrNotFound)))

	// The outer kind wins over kinds reachable through the cause.
	err := E(ErrIO, "view", fmt.Errorf("content: %w", ErrNotFound))
	assert.Equal(t, "IOError", KindOf(err))
	assert.ErrorIs(t, err, ErrNotFound)
}
