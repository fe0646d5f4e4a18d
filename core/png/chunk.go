package png

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"unicode/utf8"
)

// Chunk layout sizes in bytes.
const (
	lengthFieldSize = 4
	typeFieldSize   = 4
	crcFieldSize    = 4

	// chunkOverhead is everything in a chunk except its payload. It is also
	// the size of the smallest possible chunk.
	chunkOverhead = lengthFieldSize + typeFieldSize + crcFieldSize
)

// invalidUTF8Placeholder stands in for payloads that are not text.
const invalidUTF8Placeholder = "<Invalid UTF-8>"

// Chunk is a single length-prefixed, checksummed PNG record.
// Length and CRC are derived from the type and payload and cannot be set
// independently.
type Chunk struct {
	length    uint32
	chunkType ChunkType
	data      []byte
	crc       uint32
}

// NewChunk builds a chunk of the given type around a copy of data.
func NewChunk(t ChunkType, data []byte) *Chunk {
	owned := make([]byte, len(data))
	copy(owned, data)
	return &Chunk{
		length:    uint32(len(owned)),
		chunkType: t,
		data:      owned,
		crc:       checksum(t, owned),
	}
}

// ParseChunk decodes exactly one chunk from b. The declared length must
// account for every byte of b and the stored CRC must match.
func ParseChunk(b []byte) (*Chunk, error) {
	if len(b) < chunkOverhead {
		return nil, ErrIncomplete
	}

	length := binary.BigEndian.Uint32(b[:lengthFieldSize])
	if actual := uint32(len(b) - chunkOverhead); length != actual {
		return nil, &LengthFieldError{Expected: actual, Found: length}
	}

	var code [4]byte
	copy(code[:], b[lengthFieldSize:lengthFieldSize+typeFieldSize])
	chunkType, err := ParseChunkType(code)
	if err != nil {
		return nil, fmt.Errorf("chunk type: %w", err)
	}

	data := b[lengthFieldSize+typeFieldSize : len(b)-crcFieldSize]
	stored := binary.BigEndian.Uint32(b[len(b)-crcFieldSize:])

	chunk := NewChunk(chunkType, data)
	if chunk.crc != stored {
		return nil, &ChecksumError{Expected: chunk.crc, Found: stored}
	}
	return chunk, nil
}

// Length returns the payload length in bytes.
func (c *Chunk) Length() uint32 {
	return c.length
}

// Type returns the chunk type code.
func (c *Chunk) Type() ChunkType {
	return c.chunkType
}

// Data returns a copy of the payload.
func (c *Chunk) Data() []byte {
	out := make([]byte, len(c.data))
	copy(out, c.data)
	return out
}

// CRC returns the CRC-32 of the type code and payload.
func (c *Chunk) CRC() uint32 {
	return c.crc
}

// DataAsString returns the payload as text. It fails with ErrInvalidUTF8
// when the payload is not valid UTF-8.
func (c *Chunk) DataAsString() (string, error) {
	if !utf8.Valid(c.data) {
		return "", ErrInvalidUTF8
	}
	return string(c.data), nil
}

// Bytes encodes the chunk as length, type, payload and CRC.
func (c *Chunk) Bytes() []byte {
	return c.AppendBytes(make([]byte, 0, chunkOverhead+len(c.data)))
}

// AppendBytes appends the encoded chunk to dst and returns the extended slice.
func (c *Chunk) AppendBytes(dst []byte) []byte {
	code := c.chunkType.Bytes()
	dst = binary.BigEndian.AppendUint32(dst, c.length)
	dst = append(dst, code[:]...)
	dst = append(dst, c.data...)
	return binary.BigEndian.AppendUint32(dst, c.crc)
}

// Equal reports whether two chunks have the same type and payload.
// Length and CRC follow from those two.
func (c *Chunk) Equal(other *Chunk) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.chunkType == other.chunkType && string(c.data) == string(other.data)
}

func (c *Chunk) String() string {
	text, err := c.DataAsString()
	if err != nil {
		text = invalidUTF8Placeholder
	}
	return fmt.Sprintf("{ length: %4d, type: %s, data: %s, crc: %10d }",
		c.length, c.chunkType, text, c.crc)
}

// checksum computes the CRC-32 (ISO-HDLC) over the type code followed by data.
func checksum(t ChunkType, data []byte) uint32 {
	code := t.Bytes()
	crc := crc32.Update(0, crc32.IEEETable, code[:])
	return crc32.Update(crc, crc32.IEEETable, data)
}
