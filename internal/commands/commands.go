// Package commands implements pngme's user-facing operations on top of
// core/png.
//
// Encode, Decode, Remove and Render work on an in-memory *png.Png. The
// *File variants add loading, saving, optional xz backups and logging.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/JxBP/pngme/core/cas"
	"github.com/JxBP/pngme/core/filter"
	"github.com/JxBP/pngme/core/png"
)

// Encode appends a chunk of type t carrying payload and returns p.
func Encode(p *png.Png, t png.ChunkType, payload []byte) *png.Png {
	p.Append(png.NewChunk(t, payload))
	return p
}

// Decode returns the text of the first chunk of type t. It fails with a
// *png.NotFoundError when there is none and with png.ErrInvalidUTF8 when
// the payload is not text.
func Decode(p *png.Png, t png.ChunkType) (string, error) {
	chunk, ok := p.ChunkByType(t)
	if !ok {
		return "", &png.NotFoundError{Type: t}
	}
	text, err := chunk.DataAsString()
	if err != nil {
		return "", fmt.Errorf("failed to read embedded data in chunk %s: %w", t, err)
	}
	return text, nil
}

// Remove deletes the first chunk of type t and returns it.
func Remove(p *png.Png, t png.ChunkType) (*png.Chunk, error) {
	return p.RemoveChunk(t)
}

// RenderOptions controls the chunk listing.
type RenderOptions struct {
	// Filter limits the listing; nil lists every chunk.
	Filter *filter.Filter
	// Properties adds the critical/public/safe-to-copy flags of each type.
	Properties bool
	// Digest adds the BLAKE3 digest of each payload.
	Digest bool
}

// Render writes one line per chunk: its position, then length, type, text
// (or a placeholder for binary data) and CRC.
func Render(w io.Writer, p *png.Png, opts RenderOptions) error {
	for i, c := range p.Chunks() {
		if !opts.Filter.Match(c) {
			continue
		}
		line := fmt.Sprintf("%3d %s", i, c)
		if opts.Properties {
			line += " [" + properties(c.Type()) + "]"
		}
		if opts.Digest {
			line += " " + cas.Blake3Ref(cas.Blake3Hex(c.Data()))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func properties(t png.ChunkType) string {
	flags := make([]string, 0, 4)
	if t.IsCritical() {
		flags = append(flags, "critical")
	} else {
		flags = append(flags, "ancillary")
	}
	if t.IsPublic() {
		flags = append(flags, "public")
	} else {
		flags = append(flags, "private")
	}
	if !t.IsReservedBitValid() {
		flags = append(flags, "reserved-bit-set")
	}
	if t.IsSafeToCopy() {
		flags = append(flags, "safe-to-copy")
	} else {
		flags = append(flags, "unsafe-to-copy")
	}
	return strings.Join(flags, " ")
}
