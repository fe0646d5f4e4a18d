// Package cas stores chunk payloads by content hash.
//
// Every blob is addressed by its SHA-256 digest. A BLAKE3 digest is
// recorded alongside as a pointer file so a payload can be found by
// either hash. Exported payloads can later be re-embedded with
// `pngme encode --blob`.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/zeebo/blake3"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// ErrBlobNotFound is returned when no blob matches a reference.
var ErrBlobNotFound = errors.New("blob not found")

// ErrInvalidHash is returned when a reference is not a 64-character lowercase hex digest.
var ErrInvalidHash = errors.New("invalid hash format")

// hashPattern matches a lowercase 256-bit hex digest.
var hashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// blake3Prefix marks a reference as a BLAKE3 digest rather than SHA-256.
const blake3Prefix = "blake3:"

// Digest holds both content hashes of a stored blob.
type Digest struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
	Size   int    `json:"size"`
}

// Store is a content-addressed blob directory.
//
// Layout:
//
//	<root>/blobs/sha256/<first2>/<sha256>
//	<root>/blobs/blake3/<first2>/<blake3>   (contains the sha256 hex)
type Store struct {
	root string
}

// NewStore opens or creates a store rooted at root.
func NewStore(root string) (*Store, error) {
	for _, algo := range []string{"sha256", "blake3"} {
		if err := os.MkdirAll(filepath.Join(root, "blobs", algo), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", algo, err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Put stores data and returns its digests. Storing the same content twice
// is a no-op.
func (s *Store) Put(data []byte) (*Digest, error) {
	d := &Digest{SHA256: SHA256Hex(data), BLAKE3: Blake3Hex(data), Size: len(data)}

	if err := s.writeOnce(s.path("sha256", d.SHA256), data); err != nil {
		return nil, fmt.Errorf("failed to store blob: %w", err)
	}
	if err := s.writeOnce(s.path("blake3", d.BLAKE3), []byte(d.SHA256)); err != nil {
		return nil, fmt.Errorf("failed to create BLAKE3 pointer: %w", err)
	}
	return d, nil
}

// Get returns the blob for ref, which is either a SHA-256 hex digest or
// "blake3:" followed by a BLAKE3 hex digest.
func (s *Store) Get(ref string) ([]byte, error) {
	sum, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path("sha256", sum))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// Has reports whether ref names a stored blob.
func (s *Store) Has(ref string) bool {
	sum, err := s.Resolve(ref)
	if err != nil {
		return false
	}
	_, err = os.Stat(s.path("sha256", sum))
	return err == nil
}

// Resolve maps ref to the SHA-256 digest the blob is filed under.
func (s *Store) Resolve(ref string) (string, error) {
	b3, isBlake3 := strings.CutPrefix(ref, blake3Prefix)
	if !isBlake3 {
		if !hashPattern.MatchString(ref) {
			return "", ErrInvalidHash
		}
		return ref, nil
	}

	if !hashPattern.MatchString(b3) {
		return "", ErrInvalidHash
	}
	pointer, err := os.ReadFile(s.path("blake3", b3))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrBlobNotFound
		}
		return "", fmt.Errorf("failed to read pointer: %w", err)
	}
	sum := strings.TrimSpace(string(pointer))
	if !hashPattern.MatchString(sum) {
		return "", fmt.Errorf("corrupt BLAKE3 pointer %s: %w", b3, ErrInvalidHash)
	}
	return sum, nil
}

// path returns <root>/blobs/<algo>/<first2>/<sum>.
func (s *Store) path(algo, sum string) string {
	return filepath.Join(s.root, "blobs", algo, sum[:2], sum)
}

// writeOnce writes data to path atomically unless path already exists.
func (s *Store) writeOnce(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create prefix directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, ".blob-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Rename to final path (atomic on POSIX)
	if err := osRename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// SHA256Hex computes the SHA-256 digest of data without storing it.
func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Blake3Hex computes the BLAKE3-256 digest of data without storing it.
func Blake3Hex(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Blake3Ref formats a BLAKE3 digest as a reference accepted by Get.
func Blake3Ref(sum string) string {
	return blake3Prefix + sum
}
