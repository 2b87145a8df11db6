package datafile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Optional file header, written once when a log is created.
//
//	+-----------------+-------------+-------------------+
//	| magic (4 bytes) | version (1) | reserved (3 zero) |
//	+-----------------+-------------+-------------------+
const HeaderSizeBytes = 8

// FormatVersion is the only header version this package reads and writes.
const FormatVersion = 1

var magic = []byte{0x6b, 0x76, 0x73, 0xa7}

var (
	ErrBadMagic            = errors.New("datafile: bad magic byte sequence")
	ErrIncompatibleVersion = errors.New("datafile: incompatible format version")
	ErrUnexpectedHeader    = errors.New("datafile: file has a format header")
)

func encodeHeader() []byte {
	h := make([]byte, HeaderSizeBytes)
	copy(h, magic)
	h[4] = FormatVersion
	return h
}

func validateHeader(h []byte) error {
	if len(h) < HeaderSizeBytes || !bytes.Equal(h[:len(magic)], magic) {
		return ErrBadMagic
	}
	if h[4] != FormatVersion {
		return fmt.Errorf("%w: file has version %d, supported is %d", ErrIncompatibleVersion, h[4], FormatVersion)
	}
	return nil
}

// hasHeader reports whether h starts with a format header of any version.
func hasHeader(h []byte) bool {
	return len(h) >= HeaderSizeBytes && bytes.Equal(h[:len(magic)], magic) &&
		h[5] == 0 && h[6] == 0 && h[7] == 0
}

// createWithHeader makes a new log at path that holds only the header.
// The header is written to a temporary file in the same directory and
// renamed into place, so path either does not exist or has a full header.
func createWithHeader(path string) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(encodeHeader()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	renamed = true

	// nice to have, not required
	if d, _ := os.Open(dir); d != nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
