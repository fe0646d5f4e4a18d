package png

// propertyBit is bit 5 of each type byte, the ASCII case bit.
const propertyBit = 1 << 5

// ChunkType is a four-letter PNG chunk type code such as "IHDR" or "tEXt".
// The case of each letter encodes a property of the chunk.
//
// ChunkType is comparable and immutable; the zero value is not a valid type.
type ChunkType struct {
	code [4]byte
}

// ParseChunkType validates b and returns it as a ChunkType. Bytes are
// checked left to right and the first one outside [A-Za-z] is reported.
func ParseChunkType(b [4]byte) (ChunkType, error) {
	for _, c := range b {
		if !isASCIILetter(c) {
			return ChunkType{}, &ChunkTypeError{Kind: InvalidByte, Byte: c}
		}
	}
	return ChunkType{code: b}, nil
}

// ChunkTypeFromString parses a four-byte string such as "RuSt".
func ChunkTypeFromString(s string) (ChunkType, error) {
	if len(s) != 4 {
		return ChunkType{}, &ChunkTypeError{Kind: InvalidLength, Length: len(s)}
	}
	var b [4]byte
	copy(b[:], s)
	return ParseChunkType(b)
}

// MustChunkType is like ChunkTypeFromString but panics on error.
// Intended for package-level variables and tests.
func MustChunkType(s string) ChunkType {
	t, err := ChunkTypeFromString(s)
	if err != nil {
		panic("png: " + err.Error())
	}
	return t
}

// Bytes returns the raw four bytes of the type code.
func (t ChunkType) Bytes() [4]byte {
	return t.code
}

// String returns the type code as ASCII text.
func (t ChunkType) String() string {
	return string(t.code[:])
}

// IsCritical reports whether decoders must understand the chunk (uppercase first letter).
func (t ChunkType) IsCritical() bool {
	return t.code[0]&propertyBit == 0
}

// IsPublic reports whether the type is registered by the PNG specification
// (uppercase second letter).
func (t ChunkType) IsPublic() bool {
	return t.code[1]&propertyBit == 0
}

// IsReservedBitValid reports whether the reserved third-letter bit is clear.
func (t ChunkType) IsReservedBitValid() bool {
	return t.code[2]&propertyBit == 0
}

// IsSafeToCopy reports whether editors may copy the chunk without
// understanding it (lowercase fourth letter).
func (t ChunkType) IsSafeToCopy() bool {
	return t.code[3]&propertyBit != 0
}

// IsValid reports whether the type code conforms to the current PNG version,
// which for a parsed type only depends on the reserved bit.
func (t ChunkType) IsValid() bool {
	return t.IsReservedBitValid()
}

// MarshalText implements encoding.TextMarshaler.
func (t ChunkType) MarshalText() ([]byte, error) {
	return t.code[:], nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ChunkType) UnmarshalText(text []byte) error {
	parsed, err := ChunkTypeFromString(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func isASCIILetter(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}
