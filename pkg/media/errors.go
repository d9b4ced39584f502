package media

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every failure surfaced by the library carries exactly one of
// these, checkable with errors.Is.
var (
	// ErrSourceRead indicates a source file could not be read during ingest.
	ErrSourceRead = errors.New("source read error")

	// ErrEncode indicates the encoder rejected the source bytes.
	ErrEncode = errors.New("encode error")

	// ErrDecode indicates a stored item could not be converted to the
	// requested output format.
	ErrDecode = errors.New("decode error")

	// ErrPersist indicates the content store could not write the encoded item.
	ErrPersist = errors.New("persist error")

	// ErrIndexCommit indicates the manifest rejected a new entry after the
	// item was stored.
	ErrIndexCommit = errors.New("index commit error")

	// ErrIO covers file system failures outside the ingest steps: export
	// destinations, view handle creation, deletion.
	ErrIO = errors.New("i/o error")

	// ErrNotFound indicates the identifier is unknown to the catalog or store.
	ErrNotFound = errors.New("not found")

	// ErrIndexOutOfRange indicates a catalog position outside [0, count).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidContentID indicates a malformed identifier.
	ErrInvalidContentID = errors.New("invalid content id")

	// ErrUnsupportedFormat indicates an unknown export or source format.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

var kindNames = []struct {
	kind error
	name string
}{
	{ErrSourceRead, "SourceReadError"},
	{ErrEncode, "EncodeError"},
	{ErrDecode, "DecodeError"},
	{ErrPersist, "PersistError"},
	{ErrIndexCommit, "IndexCommitError"},
	{ErrNotFound, "NotFound"},
	{ErrIndexOutOfRange, "IndexOutOfRange"},
	{ErrInvalidContentID, "InvalidContentID"},
	{ErrUnsupportedFormat, "UnsupportedFormat"},
	{ErrIO, "IOError"},
}

// Error is the structured error returned by library operations.
//
// Both the kind and the underlying cause are reachable through errors.Is and
// errors.As:
//
//	err := lib.Export(ctx, id, media.FormatPNG, dst)
//	if errors.Is(err, media.ErrNotFound) { ... }
type Error struct {
	Kind error
	Op   string
	ID   ContentID
	Path string
	Err  error
}

// E builds an *Error. Empty fields are omitted from the message.
func E(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithID returns e annotated with the item identifier.
func (e *Error) WithID(id ContentID) *Error {
	e.ID = id
	return e
}

// WithPath returns e annotated with a file path.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	if e.ID != "" {
		fmt.Fprintf(&b, "%s ", e.ID)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, "%s ", e.Path)
	}
	if b.Len() > 0 {
		s := strings.TrimSuffix(b.String(), " ")
		b.Reset()
		b.WriteString(s)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		if e.Kind != nil {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the reporting name of err's kind. The outermost *Error
// wins; otherwise the first kind found in the chain is used, and errors
// carrying no kind at all report as "IOError".
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != nil {
		for _, k := range kindNames {
			if e.Kind == k.kind {
				return k.name
			}
		}
	}
	for _, k := range kindNames {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return "IOError"
}
