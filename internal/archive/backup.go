// Package archive keeps xz-compressed copies of PNG files before pngme
// rewrites them in place.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/JxBP/pngme/internal/validation"
)

// BackupExt is appended to the original file name.
const BackupExt = ".xz"

// Injectable functions for testing
var (
	xzNewWriter = xz.NewWriter
	xzNewReader = xz.NewReader
	osRename    = os.Rename
)

// BackupPath returns the backup location for path.
func BackupPath(path string) string {
	return path + BackupExt
}

// WriteBackup compresses data to BackupPath(path) and returns that path.
// An existing backup is replaced atomically.
func WriteBackup(path string, data []byte) (string, error) {
	backupPath := BackupPath(path)

	var buf bytes.Buffer
	w, err := xzNewWriter(&buf)
	if err != nil {
		return "", fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to compress backup: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish xz stream: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(backupPath), ".backup-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(buf.Bytes()); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to close backup: %w", err)
	}
	if err := osRename(tempPath, backupPath); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename backup: %w", err)
	}
	return backupPath, nil
}

// ReadBackup decompresses a backup written by WriteBackup. The
// decompressed size is capped at validation.MaxFileSize.
func ReadBackup(backupPath string) ([]byte, error) {
	f, err := os.Open(backupPath)
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()

	if err := validation.ExpectFileType(f, validation.FileTypeXZ); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind backup: %w", err)
	}

	xzr, err := xzNewReader(f)
	if err != nil {
		return nil, fmt.Errorf("xz reader: %w", err)
	}

	data, err := io.ReadAll(io.LimitReader(xzr, validation.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompress backup: %w", err)
	}
	if err := validation.ValidateFileSize(int64(len(data))); err != nil {
		return nil, err
	}
	return data, nil
}
