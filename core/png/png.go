// Package png reads and writes the chunk structure of PNG files.
//
// It does not decode image data. A PNG is treated as the fixed eight-byte
// signature followed by an ordered sequence of chunks, each carrying a
// four-letter type code, an opaque payload and a CRC-32 over both. Chunks
// can be looked up, appended and removed by type, and the file can be
// re-encoded byte for byte.
package png

import (
	"encoding/binary"
	"strings"
)

// Signature is the eight-byte header every PNG stream starts with
// (ISO/IEC 15948, section 5.2).
var Signature = [8]byte{137, 80, 78, 71, 13, 10, 26, 10}

// Png is an ordered sequence of chunks. Order is significant: several
// chunks may share a type, and lookups return the first one.
type Png struct {
	chunks []*Chunk
}

// New returns a Png holding the given chunks in order.
func New(chunks ...*Chunk) *Png {
	p := &Png{chunks: make([]*Chunk, 0, len(chunks))}
	p.chunks = append(p.chunks, chunks...)
	return p
}

// Parse decodes a complete PNG stream. The signature is checked first,
// then chunks are read until the input is exhausted. The first malformed
// chunk aborts parsing; the returned error is a *ChunkError carrying its
// position.
func Parse(b []byte) (*Png, error) {
	if len(b) < len(Signature) || [8]byte(b[:len(Signature)]) != Signature {
		return nil, ErrInvalidSignature
	}

	p := &Png{}
	offset := len(Signature)
	for offset < len(b) {
		end := frameEnd(b, offset)
		chunk, err := ParseChunk(b[offset:end])
		if err != nil {
			return nil, &ChunkError{Index: len(p.chunks), Offset: offset, Err: err}
		}
		p.chunks = append(p.chunks, chunk)
		offset = end
	}
	return p, nil
}

// frameEnd returns the end of the chunk starting at offset as declared by
// its length field, clamped to the buffer so a truncated chunk still
// reaches ParseChunk and fails there.
func frameEnd(b []byte, offset int) int {
	rest := len(b) - offset
	if rest < chunkOverhead {
		return len(b)
	}
	declared := uint64(binary.BigEndian.Uint32(b[offset:]))
	if declared > uint64(rest-chunkOverhead) {
		return len(b)
	}
	return offset + chunkOverhead + int(declared)
}

// Bytes encodes the signature followed by every chunk in order.
func (p *Png) Bytes() []byte {
	size := len(Signature)
	for _, c := range p.chunks {
		size += chunkOverhead + len(c.data)
	}
	out := make([]byte, 0, size)
	out = append(out, Signature[:]...)
	for _, c := range p.chunks {
		out = c.AppendBytes(out)
	}
	return out
}

// Append adds a chunk at the end. Chunks of an existing type are not replaced.
func (p *Png) Append(c *Chunk) {
	p.chunks = append(p.chunks, c)
}

// ChunkByType returns the first chunk of the given type.
func (p *Png) ChunkByType(t ChunkType) (*Chunk, bool) {
	i := p.index(t)
	if i < 0 {
		return nil, false
	}
	return p.chunks[i], true
}

// RemoveChunk removes and returns the first chunk of the given type.
// It returns a *NotFoundError when there is none.
func (p *Png) RemoveChunk(t ChunkType) (*Chunk, error) {
	i := p.index(t)
	if i < 0 {
		return nil, &NotFoundError{Type: t}
	}
	removed := p.chunks[i]
	p.chunks = append(p.chunks[:i], p.chunks[i+1:]...)
	return removed, nil
}

// Chunks returns the chunks in stored order. The slice is a copy; the
// chunks themselves are immutable.
func (p *Png) Chunks() []*Chunk {
	out := make([]*Chunk, len(p.chunks))
	copy(out, p.chunks)
	return out
}

// Len returns the number of chunks.
func (p *Png) Len() int {
	return len(p.chunks)
}

func (p *Png) String() string {
	var sb strings.Builder
	for i, c := range p.chunks {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(c.String())
	}
	return sb.String()
}

func (p *Png) index(t ChunkType) int {
	for i, c := range p.chunks {
		if c.chunkType == t {
			return i
		}
	}
	return -1
}
