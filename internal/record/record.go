package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Kind tags the variant of a Record.
type Kind uint8

const (
	KindSet    Kind = 1 // key now maps to value
	KindRemove Kind = 2 // key's mapping is deleted
)

func (k Kind) String() string {
	switch k {
	case KindSet:
		return "set"
	case KindRemove:
		return "remove"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Record is the atomic unit written to the log.
type Record struct {
	Kind  Kind
	Key   string
	Value string // always empty for KindRemove
}

// CRC (4) + Kind (1) + KeySize (4) + ValueSize (4) + HeaderCRC (4)
const HeaderSizeBytes = 17

// headerCRCOffset is where the checksum of kind, key size and value size
// starts. It lets a decoder trust the sizes before reading the body.
const headerCRCOffset = 13

const (
	MaxKeySize   = math.MaxUint32
	MaxValueSize = math.MaxUint32
)

var (
	// ErrTruncated is returned when the bytes at the cursor end before the
	// frame they announce is complete.
	ErrTruncated = fmt.Errorf("record: truncated frame: %w", io.ErrUnexpectedEOF)
	// ErrCorrupt is returned for a complete frame that fails validation.
	ErrCorrupt  = errors.New("record: corrupt frame")
	ErrTooLarge = errors.New("record: key or value too large")
)

func Set(key, value string) Record {
	return Record{Kind: KindSet, Key: key, Value: value}
}

func Remove(key string) Record {
	return Record{Kind: KindRemove, Key: key}
}

// Size returns the number of bytes Encode produces for r.
func Size(r Record) int {
	return HeaderSizeBytes + len(r.Key) + len(r.Value)
}

// Encode serializes a record into its self-framing wire format.
//
// The record is encoded as:
//
//	<crc:uint32><kind:uint8><key_size:uint32><value_size:uint32><header_crc:uint32><key><value>
//
// All integer fields are little-endian. header_crc covers kind, key_size and
// value_size; crc covers every byte after it.
// Encoding is deterministic: equal records always produce equal bytes.
func Encode(r Record) ([]byte, error) {
	switch r.Kind {
	case KindSet:
	case KindRemove:
		if r.Value != "" {
			return nil, fmt.Errorf("%w: remove record for %q carries a value", ErrCorrupt, r.Key)
		}
	default:
		return nil, fmt.Errorf("%w: unknown %v", ErrCorrupt, r.Kind)
	}
	if uint64(len(r.Key)) > MaxKeySize || uint64(len(r.Value)) > MaxValueSize {
		return nil, ErrTooLarge
	}

	buf := make([]byte, Size(r))
	buf[4] = byte(r.Kind)
	binary.LittleEndian.PutUint32(buf[5:9], uint32(len(r.Key)))
	binary.LittleEndian.PutUint32(buf[9:13], uint32(len(r.Value)))
	binary.LittleEndian.PutUint32(buf[headerCRCOffset:HeaderSizeBytes], CalculateCRC(buf[4:headerCRCOffset]))
	copy(buf[HeaderSizeBytes:], r.Key)
	copy(buf[HeaderSizeBytes+len(r.Key):], r.Value)
	binary.LittleEndian.PutUint32(buf[0:4], CalculateCRC(buf[4:]))

	return buf, nil
}

// Decode reads exactly one record from r and reports how many bytes it
// consumed.
//
// Decode returns io.EOF, and nothing else, when r is exhausted before the
// first byte of a frame: this is the normal end of a log scan. A header
// that is cut short, or a valid header whose body runs past the end of r,
// yields an error wrapping ErrTruncated. Sizes are only trusted once the
// header checksum matches, so a damaged size field yields ErrCorrupt, as
// does a bad body checksum or an unknown kind.
func Decode(r io.Reader) (Record, int, error) {
	var header [HeaderSizeBytes]byte

	n, err := io.ReadFull(r, header[:])
	if err != nil {
		if err == io.EOF {
			return Record{}, 0, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return Record{}, n, fmt.Errorf("%w: header has %d of %d bytes", ErrTruncated, n, HeaderSizeBytes)
		}
		return Record{}, n, err
	}

	headerCRC := binary.LittleEndian.Uint32(header[headerCRCOffset:HeaderSizeBytes])
	if !ValidateCRC(headerCRC, header[4:headerCRCOffset]) {
		return Record{}, n, fmt.Errorf("%w: header checksum mismatch", ErrCorrupt)
	}

	crc := binary.LittleEndian.Uint32(header[0:4])
	kind := Kind(header[4])
	keySize := binary.LittleEndian.Uint32(header[5:9])
	valueSize := binary.LittleEndian.Uint32(header[9:13])

	if kind != KindSet && kind != KindRemove {
		return Record{}, n, fmt.Errorf("%w: unknown %v", ErrCorrupt, kind)
	}
	if kind == KindRemove && valueSize != 0 {
		return Record{}, n, fmt.Errorf("%w: remove frame with %d value bytes", ErrCorrupt, valueSize)
	}

	bodySize := uint64(keySize) + uint64(valueSize)
	if lr, ok := r.(interface{ Len() int }); ok && bodySize > uint64(lr.Len()) {
		return Record{}, n, fmt.Errorf("%w: body needs %d bytes, %d remain", ErrTruncated, bodySize, lr.Len())
	}

	body := make([]byte, bodySize)
	m, err := io.ReadFull(r, body)
	n += m
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Record{}, n, fmt.Errorf("%w: body has %d of %d bytes", ErrTruncated, m, len(body))
		}
		return Record{}, n, err
	}

	if !ValidateCRC(crc, header[4:], body) {
		return Record{}, n, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	return Record{
		Kind:  kind,
		Key:   string(body[:keySize]),
		Value: string(body[keySize:]),
	}, n, nil
}

// DecodeBytes decodes the record at the start of b.
func DecodeBytes(b []byte) (Record, int, error) {
	return Decode(bytes.NewReader(b))
}
