package png

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

const (
	testMessage = "This is where your secret message will be!"
	testCRC     = uint32(2882656334)
)

// rawChunk assembles chunk bytes field by field so tests can corrupt any of them.
func rawChunk(length uint32, chunkType string, data []byte, crc uint32) []byte {
	var b []byte
	b = binary.BigEndian.AppendUint32(b, length)
	b = append(b, chunkType...)
	b = append(b, data...)
	return binary.BigEndian.AppendUint32(b, crc)
}

func testingChunk(t *testing.T) *Chunk {
	t.Helper()
	chunk, err := ParseChunk(rawChunk(42, "RuSt", []byte(testMessage), testCRC))
	if err != nil {
		t.Fatalf("ParseChunk() error = %v", err)
	}
	return chunk
}

func TestNewChunk(t *testing.T) {
	chunk := NewChunk(MustChunkType("RuSt"), []byte(testMessage))
	if chunk.Length() != 42 {
		t.Errorf("Length() = %d, want 42", chunk.Length())
	}
	if chunk.CRC() != testCRC {
		t.Errorf("CRC() = %d, want %d", chunk.CRC(), testCRC)
	}
}

func TestNewChunkCopiesData(t *testing.T) {
	data := []byte("mutable")
	chunk := NewChunk(MustChunkType("ruSt"), data)
	data[0] = 'X'
	if got := string(chunk.Data()); got != "mutable" {
		t.Errorf("Data() = %q after caller mutation, want %q", got, "mutable")
	}

	out := chunk.Data()
	out[0] = 'Y'
	if got := string(chunk.Data()); got != "mutable" {
		t.Errorf("Data() = %q after mutating returned slice, want %q", got, "mutable")
	}
}

func TestChunkCRCDeterministic(t *testing.T) {
	ct := MustChunkType("tEXt")
	payloads := [][]byte{nil, {}, []byte("a"), []byte(testMessage), bytes.Repeat([]byte{0xff}, 4096)}
	for _, p := range payloads {
		a := NewChunk(ct, p)
		b := NewChunk(ct, append([]byte(nil), p...))
		if a.CRC() != b.CRC() {
			t.Errorf("CRC differs for identical input of %d bytes: %d vs %d", len(p), a.CRC(), b.CRC())
		}
		if a.Length() != uint32(len(p)) {
			t.Errorf("Length() = %d, want %d", a.Length(), len(p))
		}
	}

	if NewChunk(MustChunkType("tEXt"), []byte("x")).CRC() == NewChunk(MustChunkType("tEXT"), []byte("x")).CRC() {
		t.Error("CRC should cover the type code")
	}
}

func TestParseChunk_Valid(t *testing.T) {
	chunk := testingChunk(t)

	if chunk.Length() != 42 {
		t.Errorf("Length() = %d, want 42", chunk.Length())
	}
	if got := chunk.Type().String(); got != "RuSt" {
		t.Errorf("Type() = %q, want %q", got, "RuSt")
	}
	text, err := chunk.DataAsString()
	if err != nil {
		t.Fatalf("DataAsString() error = %v", err)
	}
	if text != testMessage {
		t.Errorf("DataAsString() = %q, want %q", text, testMessage)
	}
	if chunk.CRC() != testCRC {
		t.Errorf("CRC() = %d, want %d", chunk.CRC(), testCRC)
	}
}

func TestParseChunk_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr error
		check   func(t *testing.T, err error)
	}{
		{
			name:    "empty",
			input:   []byte{},
			wantErr: ErrIncomplete,
		},
		{
			name:    "eleven bytes",
			input:   rawChunk(0, "RuSt", nil, 0)[:11],
			wantErr: ErrIncomplete,
		},
		{
			name:    "length too big",
			input:   rawChunk(9999, "RuSt", []byte(testMessage), testCRC),
			wantErr: ErrInvalidLengthField,
			check: func(t *testing.T, err error) {
				var lenErr *LengthFieldError
				if !errors.As(err, &lenErr) {
					t.Fatalf("error = %v, want *LengthFieldError", err)
				}
				if *lenErr != (LengthFieldError{Expected: 42, Found: 9999}) {
					t.Errorf("LengthFieldError = %+v, want {Expected:42 Found:9999}", *lenErr)
				}
			},
		},
		{
			name:    "length too small",
			input:   rawChunk(1, "RuSt", []byte(testMessage), testCRC),
			wantErr: ErrInvalidLengthField,
		},
		{
			name:    "bad type byte",
			input:   rawChunk(42, "Ru1t", []byte(testMessage), testCRC),
			wantErr: ErrInvalidChunkType,
			check: func(t *testing.T, err error) {
				var typeErr *ChunkTypeError
				if !errors.As(err, &typeErr) || typeErr.Kind != InvalidByte || typeErr.Byte != '1' {
					t.Errorf("error = %v, want InvalidByte('1')", err)
				}
			},
		},
		{
			name:    "checksum off by one",
			input:   rawChunk(42, "RuSt", []byte(testMessage), testCRC-1),
			wantErr: ErrInvalidChecksum,
			check: func(t *testing.T, err error) {
				var crcErr *ChecksumError
				if !errors.As(err, &crcErr) {
					t.Fatalf("error = %v, want *ChecksumError", err)
				}
				if crcErr.Expected != testCRC || crcErr.Found != testCRC-1 {
					t.Errorf("ChecksumError = %+v", *crcErr)
				}
			},
		},
		{
			name:    "length checked before type",
			input:   rawChunk(7, "1234", []byte(testMessage), testCRC),
			wantErr: ErrInvalidLengthField,
		},
		{
			name:    "type checked before checksum",
			input:   rawChunk(42, "Ru t", []byte(testMessage), 0),
			wantErr: ErrInvalidChunkType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk, err := ParseChunk(tt.input)
			if chunk != nil {
				t.Errorf("ParseChunk() returned chunk %v alongside error", chunk)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseChunk() error = %v, want %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestParseChunkShortInputs(t *testing.T) {
	full := rawChunk(0, "IEND", nil, NewChunk(MustChunkType("IEND"), nil).CRC())
	for n := 0; n < len(full); n++ {
		if _, err := ParseChunk(full[:n]); !errors.Is(err, ErrIncomplete) {
			t.Errorf("ParseChunk(%d bytes) error = %v, want ErrIncomplete", n, err)
		}
	}
	if _, err := ParseChunk(full); err != nil {
		t.Errorf("ParseChunk(IEND) error = %v", err)
	}
}

func TestChunkRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		code string
		data []byte
	}{
		{name: "text", code: "RuSt", data: []byte(testMessage)},
		{name: "empty", code: "IEND", data: nil},
		{name: "binary", code: "zzZz", data: []byte{0, 1, 2, 0xfe, 0xff}},
		{name: "large", code: "IDAT", data: bytes.Repeat([]byte("chunk"), 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := NewChunk(MustChunkType(tt.code), tt.data)
			encoded := orig.Bytes()
			if len(encoded) != chunkOverhead+len(tt.data) {
				t.Errorf("len(Bytes()) = %d, want %d", len(encoded), chunkOverhead+len(tt.data))
			}

			parsed, err := ParseChunk(encoded)
			if err != nil {
				t.Fatalf("ParseChunk() error = %v", err)
			}
			if !parsed.Equal(orig) {
				t.Errorf("round trip mismatch: got %v, want %v", parsed, orig)
			}
			if parsed.Length() != orig.Length() || parsed.CRC() != orig.CRC() {
				t.Errorf("length/crc = %d/%d, want %d/%d", parsed.Length(), parsed.CRC(), orig.Length(), orig.CRC())
			}
			if !bytes.Equal(parsed.Bytes(), encoded) {
				t.Error("re-encoding a parsed chunk changed its bytes")
			}
		})
	}
}

func TestChunkBytesLayout(t *testing.T) {
	chunk := NewChunk(MustChunkType("RuSt"), []byte(testMessage))
	want := rawChunk(42, "RuSt", []byte(testMessage), testCRC)
	if !bytes.Equal(chunk.Bytes(), want) {
		t.Errorf("Bytes() = %x, want %x", chunk.Bytes(), want)
	}
}

func TestDataAsStringInvalidUTF8(t *testing.T) {
	chunk := NewChunk(MustChunkType("RuSt"), []byte{0xff, 0xfe, 'h', 'i'})
	if _, err := chunk.DataAsString(); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("DataAsString() error = %v, want ErrInvalidUTF8", err)
	}
	if !strings.Contains(chunk.String(), invalidUTF8Placeholder) {
		t.Errorf("String() = %q, want placeholder %q", chunk.String(), invalidUTF8Placeholder)
	}
}

func TestChunkString(t *testing.T) {
	got := testingChunk(t).String()
	want := "{ length:   42, type: RuSt, data: " + testMessage + ", crc: 2882656334 }"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestChunkEqual(t *testing.T) {
	a := NewChunk(MustChunkType("RuSt"), []byte("x"))
	tests := []struct {
		name  string
		other *Chunk
		want  bool
	}{
		{name: "same content", other: NewChunk(MustChunkType("RuSt"), []byte("x")), want: true},
		{name: "different type", other: NewChunk(MustChunkType("ruSt"), []byte("x")), want: false},
		{name: "different data", other: NewChunk(MustChunkType("RuSt"), []byte("y")), want: false},
		{name: "nil", other: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Equal(tt.other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}
