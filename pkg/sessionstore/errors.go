package sessionstore

import (
	"errors"
	"fmt"
)

var (
	// ErrTooShort is matched by decode errors for inputs shorter than the header.
	ErrTooShort = errors.New("session store: container too short")
	// ErrBadMagic is matched by decode errors for inputs without the container signature.
	ErrBadMagic = errors.New("session store: bad magic")
	// ErrDecompressFailed is matched by every decode error raised after the header was accepted.
	ErrDecompressFailed = errors.New("session store: decompression failed")
	// ErrDestinationTooSmall is matched when the payload decompresses to more
	// bytes than the header declares.
	ErrDestinationTooSmall = errors.New("session store: declared size too small")
	// ErrParseFailed is matched by parse errors.
	ErrParseFailed = errors.New("session store: document is not valid JSON")
)

// DecodeErrorKind identifies which stage of container decoding failed.
type DecodeErrorKind string

const (
	KindTooShort            DecodeErrorKind = "too_short"
	KindBadMagic            DecodeErrorKind = "bad_magic"
	KindOversized           DecodeErrorKind = "oversized"
	KindDestinationTooSmall DecodeErrorKind = "destination_too_small"
	KindCorrupt             DecodeErrorKind = "corrupt"
)

// DecodeError is returned by Decode when the container cannot be unpacked.
type DecodeError struct {
	Kind    DecodeErrorKind
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode session store (%s): %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("decode session store (%s): %s", e.Kind, e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is lets callers match a DecodeError against the package sentinels.
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrTooShort:
		return e.Kind == KindTooShort
	case ErrBadMagic:
		return e.Kind == KindBadMagic
	case ErrDestinationTooSmall:
		return e.Kind == KindDestinationTooSmall
	case ErrDecompressFailed:
		return e.Kind == KindOversized || e.Kind == KindDestinationTooSmall || e.Kind == KindCorrupt
	}
	return false
}

// ParseError is returned when the decompressed document is not valid JSON.
type ParseError struct {
	Size int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse session store: %d bytes of invalid JSON", e.Size)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailed
}

// IOError wraps a failure to read the session-store file itself.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read session store %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err came from decoding or parsing a file that
// was read successfully. Such failures may be torn writes; I/O errors are not.
func IsRetryable(err error) bool {
	var decodeErr *DecodeError
	var parseErr *ParseError
	return errors.As(err, &decodeErr) || errors.As(err, &parseErr)
}
