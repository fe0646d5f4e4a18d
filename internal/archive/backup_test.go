package archive

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/JxBP/pngme/internal/validation"
)

func TestBackupRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "png bytes", data: append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{7}, 300)...)},
		{name: "empty", data: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "image.png")

			backupPath, err := WriteBackup(path, tt.data)
			if err != nil {
				t.Fatalf("WriteBackup() error = %v", err)
			}
			if backupPath != path+".xz" {
				t.Errorf("backup path = %s, want %s.xz", backupPath, path)
			}

			got, err := ReadBackup(backupPath)
			if err != nil {
				t.Fatalf("ReadBackup() error = %v", err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Errorf("ReadBackup() = %d bytes, want %d", len(got), len(tt.data))
			}
		})
	}
}

func TestWriteBackupIsXZ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	backupPath, err := WriteBackup(path, []byte("payload"))
	if err != nil {
		t.Fatalf("WriteBackup() error = %v", err)
	}

	f, err := os.Open(backupPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := validation.ExpectFileType(f, validation.FileTypeXZ); err != nil {
		t.Errorf("backup is not an xz stream: %v", err)
	}
}

func TestWriteBackupReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	if _, err := WriteBackup(path, []byte("old")); err != nil {
		t.Fatal(err)
	}
	if _, err := WriteBackup(path, []byte("new")); err != nil {
		t.Fatal(err)
	}
	got, err := ReadBackup(BackupPath(path))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Errorf("ReadBackup() = %q, want %q", got, "new")
	}
}

func TestReadBackupErrors(t *testing.T) {
	dir := t.TempDir()

	notXZ := filepath.Join(dir, "plain.xz")
	if err := os.WriteFile(notXZ, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadBackup(notXZ); !errors.Is(err, validation.ErrUnexpectedType) {
		t.Errorf("ReadBackup(plain) error = %v, want ErrUnexpectedType", err)
	}

	if _, err := ReadBackup(filepath.Join(dir, "missing.xz")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadBackup(missing) error = %v, want ErrNotExist", err)
	}
}

func TestWriteBackupWriterError(t *testing.T) {
	orig := xzNewWriter
	xzNewWriter = func(io.Writer) (*xz.Writer, error) { return nil, errors.New("no writer") }
	defer func() { xzNewWriter = orig }()

	if _, err := WriteBackup(filepath.Join(t.TempDir(), "a.png"), []byte("x")); err == nil {
		t.Error("WriteBackup() should fail when the xz writer cannot be created")
	}
}

func TestWriteBackupRenameError(t *testing.T) {
	orig := osRename
	osRename = func(string, string) error { return errors.New("rename failed") }
	defer func() { osRename = orig }()

	dir := t.TempDir()
	if _, err := WriteBackup(filepath.Join(dir, "a.png"), []byte("x")); err == nil {
		t.Fatal("WriteBackup() should fail when rename fails")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("directory not cleaned up: %d entries left", len(entries))
	}
}
