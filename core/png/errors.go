package png

import (
	"errors"
	"fmt"
)

// Sentinel errors for the chunk and container codecs.
var (
	// ErrIncomplete indicates a buffer too short to hold a chunk.
	ErrIncomplete = errors.New("chunk did not contain all the required data")
	// ErrInvalidLengthField indicates a declared length that does not match the payload.
	ErrInvalidLengthField = errors.New("invalid length field")
	// ErrInvalidChunkType indicates a malformed four-byte type code.
	ErrInvalidChunkType = errors.New("invalid chunk type")
	// ErrInvalidChecksum indicates a stored CRC that does not match the computed one.
	ErrInvalidChecksum = errors.New("parsed checksum didn't match calculated checksum")
	// ErrInvalidSignature indicates the stream does not start with the PNG signature.
	ErrInvalidSignature = errors.New("not a PNG file: invalid signature")
	// ErrChunkNotFound indicates no chunk of the requested type exists.
	ErrChunkNotFound = errors.New("no chunk with that type found")
	// ErrInvalidUTF8 indicates a payload that is not valid UTF-8 text.
	ErrInvalidUTF8 = errors.New("chunk data is not valid UTF-8")
)

// ChunkTypeErrorKind distinguishes the two ways a type code can be malformed.
type ChunkTypeErrorKind int

const (
	// InvalidLength means the type code was not exactly four bytes.
	InvalidLength ChunkTypeErrorKind = iota
	// InvalidByte means the type code contained a byte outside [A-Za-z].
	InvalidByte
)

// ChunkTypeError reports a malformed chunk type code.
type ChunkTypeError struct {
	Kind   ChunkTypeErrorKind
	Length int  // set for InvalidLength
	Byte   byte // set for InvalidByte
}

func (e *ChunkTypeError) Error() string {
	if e.Kind == InvalidLength {
		return fmt.Sprintf("expected a length of 4 bytes but got %d instead", e.Length)
	}
	return fmt.Sprintf("found an invalid byte %d, only [A-Za-z] allowed", e.Byte)
}

func (e *ChunkTypeError) Unwrap() error {
	return ErrInvalidChunkType
}

// LengthFieldError reports a declared length that disagrees with the
// number of payload bytes actually present.
type LengthFieldError struct {
	Expected uint32 // derived from the buffer size
	Found    uint32 // read from the length field
}

func (e *LengthFieldError) Error() string {
	return fmt.Sprintf("invalid length field (expected %d, found %d)", e.Expected, e.Found)
}

func (e *LengthFieldError) Unwrap() error {
	return ErrInvalidLengthField
}

// ChecksumError reports a CRC mismatch.
type ChecksumError struct {
	Expected uint32 // computed over type and payload
	Found    uint32 // read from the stream
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s (expected %#08x, found %#08x)", ErrInvalidChecksum, e.Expected, e.Found)
}

func (e *ChecksumError) Unwrap() error {
	return ErrInvalidChecksum
}

// NotFoundError reports a lookup or removal against an absent chunk type.
type NotFoundError struct {
	Type ChunkType
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrChunkNotFound, e.Type)
}

func (e *NotFoundError) Unwrap() error {
	return ErrChunkNotFound
}

// ChunkError locates a chunk failure inside a PNG stream.
type ChunkError struct {
	Index  int // zero-based position in the chunk sequence
	Offset int // byte offset of the chunk from the start of the stream
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d at offset %d: %v", e.Index, e.Offset, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}
