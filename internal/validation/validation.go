// Package validation checks user-supplied paths and file contents before
// pngme reads or rewrites them.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/JxBP/pngme/core/png"
)

// Limits on untrusted input (CWE-400).
const (
	// MaxFileSize is the largest file pngme will load into memory (256 MB).
	MaxFileSize = 256 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrFileTooLarge     = errors.New("file too large")
	ErrUnexpectedType   = errors.New("unexpected file type")
)

// ValidatePath rejects empty paths, overlong paths and paths containing
// NUL or other control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	return nil
}

// ValidateFileSize rejects sizes above MaxFileSize.
func ValidateFileSize(size int64) error {
	if size > MaxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, size, MaxFileSize)
	}
	return nil
}

// FileType is a file format recognised by its magic bytes.
type FileType string

const (
	FileTypePNG     FileType = "png"
	FileTypeXZ      FileType = "xz"
	FileTypeSQLite  FileType = "sqlite"
	FileTypeUnknown FileType = "unknown"
)

// magicBytes defines the signatures DetectFileType looks for.
var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypePNG, png.Signature[:]},
	{FileTypeXZ, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}},
	{FileTypeSQLite, []byte("SQLite format 3\x00")},
}

// maxMagicLen is the number of bytes DetectFileType reads.
const maxMagicLen = 16

// DetectFileType reads the first bytes of r and reports the format they
// announce. Short or unrecognised input yields FileTypeUnknown.
func DetectFileType(r io.Reader) (FileType, error) {
	buf := make([]byte, maxMagicLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FileTypeUnknown, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	buf = buf[:n]

	for _, m := range magicBytes {
		if bytes.HasPrefix(buf, m.magic) {
			return m.fileType, nil
		}
	}
	return FileTypeUnknown, nil
}

// ExpectFileType fails with ErrUnexpectedType unless r starts with the
// magic bytes of want.
func ExpectFileType(r io.Reader, want FileType) error {
	got, err := DetectFileType(r)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: expected %s, detected %s", ErrUnexpectedType, want, got)
	}
	return nil
}
