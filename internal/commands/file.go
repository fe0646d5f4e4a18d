package commands

import (
	"context"
	"io"
	"os"

	"github.com/JxBP/pngme/core/cas"
	"github.com/JxBP/pngme/core/errors"
	"github.com/JxBP/pngme/core/png"
	"github.com/JxBP/pngme/internal/archive"
	"github.com/JxBP/pngme/internal/logging"
	"github.com/JxBP/pngme/internal/validation"
)

// Injectable functions for testing
var (
	osReadFile  = os.ReadFile
	osWriteFile = os.WriteFile
	osStat      = os.Stat
)

// readFile validates path and returns the raw file contents.
func readFile(ctx context.Context, path string) ([]byte, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, errors.NewValidation("path", path, err)
	}
	info, err := osStat(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if err := validation.ValidateFileSize(info.Size()); err != nil {
		return nil, errors.NewValidation("file size", path, err)
	}
	data, err := osReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	logging.FileEvent(ctx, "read", path, len(data))
	return data, nil
}

// Load reads and parses the PNG at path.
func Load(ctx context.Context, path string) (*png.Png, error) {
	p, _, err := load(ctx, path)
	return p, err
}

func load(ctx context.Context, path string) (*png.Png, []byte, error) {
	data, err := readFile(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	p, err := png.Parse(data)
	if err != nil {
		return nil, nil, errors.NewParse("PNG", path, err)
	}
	logging.DebugContext(ctx, "parsed png", "path", path, "chunks", p.Len())
	return p, data, nil
}

// Save writes p to path, replacing any existing file.
func Save(ctx context.Context, path string, p *png.Png) error {
	if err := validation.ValidatePath(path); err != nil {
		return errors.NewValidation("path", path, err)
	}
	data := p.Bytes()
	if err := osWriteFile(path, data, 0644); err != nil {
		return errors.NewIO("write", path, err)
	}
	logging.FileEvent(ctx, "write", path, len(data), "chunks", p.Len())
	return nil
}

// backup keeps an xz copy of original next to path.
func backup(ctx context.Context, path string, original []byte) error {
	backupPath, err := archive.WriteBackup(path, original)
	if err != nil {
		return errors.NewIO("back up", path, err)
	}
	logging.FileEvent(ctx, "backup", backupPath, len(original))
	return nil
}

// EncodeRequest describes an encode operation on a file.
type EncodeRequest struct {
	Path    string
	Output  string // empty means overwrite Path
	Type    png.ChunkType
	Payload []byte
	Backup  bool // keep Path.xz when overwriting in place
}

// EncodeFile appends a chunk to the PNG at req.Path and writes the result.
func EncodeFile(ctx context.Context, req EncodeRequest) error {
	p, original, err := load(ctx, req.Path)
	if err != nil {
		return err
	}

	Encode(p, req.Type, req.Payload)
	logging.ChunkEvent(ctx, "append", req.Type.String(), uint32(len(req.Payload)))

	out := req.Output
	if out == "" {
		out = req.Path
	}
	if req.Backup && out == req.Path {
		if err := backup(ctx, req.Path, original); err != nil {
			return err
		}
	}
	return Save(ctx, out, p)
}

// DecodeFile returns the text of the first chunk of type t in the PNG at path.
func DecodeFile(ctx context.Context, path string, t png.ChunkType) (string, error) {
	p, err := Load(ctx, path)
	if err != nil {
		return "", err
	}
	text, err := Decode(p, t)
	if err != nil {
		if errors.Is(err, png.ErrChunkNotFound) {
			return "", errors.NewNotFound("chunk", t.String(), path, err)
		}
		return "", errors.Wrap(err, path)
	}
	logging.ChunkEvent(ctx, "decode", t.String(), uint32(len(text)))
	return text, nil
}

// RemoveFile removes the first chunk of type t from the PNG at path and
// rewrites the file.
func RemoveFile(ctx context.Context, path string, t png.ChunkType, keepBackup bool) (*png.Chunk, error) {
	p, original, err := load(ctx, path)
	if err != nil {
		return nil, err
	}
	removed, err := Remove(p, t)
	if err != nil {
		return nil, errors.NewNotFound("chunk", t.String(), path, err)
	}
	logging.ChunkEvent(ctx, "remove", t.String(), removed.Length())

	if keepBackup {
		if err := backup(ctx, path, original); err != nil {
			return nil, err
		}
	}
	if err := Save(ctx, path, p); err != nil {
		return nil, err
	}
	return removed, nil
}

// PrintFile renders the chunks of the PNG at path to w.
func PrintFile(ctx context.Context, w io.Writer, path string, opts RenderOptions) error {
	p, err := Load(ctx, path)
	if err != nil {
		return err
	}
	return Render(w, p, opts)
}

// ExportFile copies the payload of every chunk of type t into store and
// returns their digests in file order.
func ExportFile(ctx context.Context, path string, t png.ChunkType, store *cas.Store) ([]*cas.Digest, error) {
	p, err := Load(ctx, path)
	if err != nil {
		return nil, err
	}

	var digests []*cas.Digest
	for _, c := range p.Chunks() {
		if c.Type() != t {
			continue
		}
		d, err := store.Put(c.Data())
		if err != nil {
			return nil, errors.NewIO("store payload", store.Root(), err)
		}
		logging.ChunkEvent(ctx, "export", t.String(), c.Length(), "sha256", d.SHA256)
		digests = append(digests, d)
	}
	if len(digests) == 0 {
		return nil, errors.NewNotFound("chunk", t.String(), path, &png.NotFoundError{Type: t})
	}
	return digests, nil
}

// LoadBlob fetches a payload previously exported to store.
func LoadBlob(store *cas.Store, ref string) ([]byte, error) {
	data, err := store.Get(ref)
	if err != nil {
		if errors.Is(err, cas.ErrBlobNotFound) {
			return nil, errors.NewNotFound("blob", ref, store.Root(), err)
		}
		return nil, errors.NewValidation("blob", ref, err)
	}
	return data, nil
}

// RestoreFile decompresses an xz backup and writes it to path after
// checking that it still parses as a PNG.
func RestoreFile(ctx context.Context, backupPath, path string) error {
	if err := validation.ValidatePath(backupPath); err != nil {
		return errors.NewValidation("backup path", backupPath, err)
	}
	data, err := archive.ReadBackup(backupPath)
	if err != nil {
		return errors.NewIO("read backup", backupPath, err)
	}
	p, err := png.Parse(data)
	if err != nil {
		return errors.NewParse("PNG", backupPath, err)
	}
	return Save(ctx, path, p)
}
