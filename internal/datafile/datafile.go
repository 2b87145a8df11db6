// Package datafile implements the append-only log that backs a store.
//
// A Datafile owns one file on disk. It can append bytes at the end and
// return the byte range they landed in, and it can read back any byte
// range. It knows nothing about keys.
package datafile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/0xRadioAc7iv/go-kvs/internal/record"
	"github.com/0xRadioAc7iv/go-kvs/internal/utils"
)

// fsync is swapped out by tests.
var fsync = (*os.File).Sync

var (
	ErrInvalidRange = errors.New("datafile: invalid byte range")
	ErrClosed       = errors.New("datafile: is closed")
)

// Options configure how a Datafile is opened.
type Options struct {
	// Header makes the file start with a magic/version header. A new file
	// gets one; an existing file must have a valid one.
	Header bool

	// SyncWrites fsyncs the file after every append.
	SyncWrites bool
}

// Datafile is an append-only log file. It is not safe for concurrent use.
type Datafile struct {
	f          *os.File
	path       string
	size       int64
	dataOffset int64
	syncWrites bool
}

// Open opens the log at path, creating it if it does not exist.
//
// The file is opened in append mode, so every write lands at the true end
// of the file regardless of any read position.
func Open(path string, opts Options) (*Datafile, error) {
	if opts.Header && !utils.PathExists(path) {
		if err := createWithHeader(path); err != nil {
			return nil, fmt.Errorf("datafile: create %s: %w", path, err)
		}
	}

	// 0 (special bit - ignored), 6 (rw- - owner), 4 (r-- - user group), 4 (r-- - others)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	df := &Datafile{
		f:          f,
		path:       path,
		size:       info.Size(),
		syncWrites: opts.SyncWrites,
	}

	if opts.Header {
		err = df.initHeader()
	} else {
		err = df.rejectHeader()
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("datafile: %s: %w", path, err)
	}

	return df, nil
}

// rejectHeader keeps a log written with a header from being read as
// records, which would see the header as a torn frame.
func (df *Datafile) rejectHeader() error {
	if df.size < HeaderSizeBytes {
		return nil
	}
	h := make([]byte, HeaderSizeBytes)
	if _, err := df.f.ReadAt(h, 0); err != nil {
		return err
	}
	if hasHeader(h) {
		return ErrUnexpectedHeader
	}
	return nil
}

func (df *Datafile) initHeader() error {
	df.dataOffset = HeaderSizeBytes

	// An empty file left behind by some other tool is treated as new.
	if df.size == 0 {
		if _, _, err := df.AppendBytes(encodeHeader()); err != nil {
			return err
		}
		return df.f.Sync()
	}
	if df.size < HeaderSizeBytes {
		return ErrBadMagic
	}

	h := make([]byte, HeaderSizeBytes)
	if _, err := df.f.ReadAt(h, 0); err != nil {
		return err
	}
	return validateHeader(h)
}

// Append encodes rec and appends it, returning the byte range [start, end)
// the encoded record occupies.
func (df *Datafile) Append(rec record.Record) (start, end int64, err error) {
	encoded, err := record.Encode(rec)
	if err != nil {
		return 0, 0, err
	}
	return df.AppendBytes(encoded)
}

// AppendBytes appends p to the end of the file and returns the byte range
// it occupies. A failed write, or with SyncWrites a failed fsync, is rolled
// back so that a reported failure never leaves p in the file.
func (df *Datafile) AppendBytes(p []byte) (start, end int64, err error) {
	if df.f == nil {
		return 0, 0, ErrClosed
	}

	start = df.size
	n, err := df.f.Write(p)
	if err != nil {
		if n > 0 {
			df.rollback(start)
		}
		return 0, 0, err
	}
	df.size += int64(n)

	if df.syncWrites {
		if err := fsync(df.f); err != nil {
			df.rollback(start)
			return 0, 0, err
		}
	}

	return start, df.size, nil
}

// rollback cuts the file back to size. If that fails too, size is taken
// from the file so later appends still report true offsets.
func (df *Datafile) rollback(size int64) {
	if err := utils.TruncateAt(df.f, size); err != nil {
		df.resyncSize()
		return
	}
	df.size = size
}

func (df *Datafile) resyncSize() {
	if info, err := df.f.Stat(); err == nil {
		df.size = info.Size()
	}
}

// Read returns exactly end-start bytes starting at offset start.
func (df *Datafile) Read(start, end int64) ([]byte, error) {
	if df.f == nil {
		return nil, ErrClosed
	}
	if start < 0 || start > end || end > df.size {
		return nil, fmt.Errorf("%w: [%d, %d) in file of %d bytes", ErrInvalidRange, start, end, df.size)
	}

	buf := make([]byte, end-start)
	n, err := df.f.ReadAt(buf, start)
	if n == len(buf) {
		return buf, nil
	}
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("datafile: read [%d, %d) got %d bytes: %w", start, end, n, err)
}

// ReadAll returns the whole file, header included.
func (df *Datafile) ReadAll() ([]byte, error) {
	return df.Read(0, df.size)
}

// Truncate cuts the file back to size bytes. It is only meant for dropping
// a torn record at the tail before any new appends.
func (df *Datafile) Truncate(size int64) error {
	if df.f == nil {
		return ErrClosed
	}
	if size < df.dataOffset || size > df.size {
		return fmt.Errorf("%w: truncate to %d, data spans [%d, %d)", ErrInvalidRange, size, df.dataOffset, df.size)
	}
	if err := utils.TruncateAt(df.f, size); err != nil {
		return err
	}
	df.size = size
	return nil
}

// DataOffset is the offset of the first record: the header size, or 0.
func (df *Datafile) DataOffset() int64 { return df.dataOffset }

// Size is the current length of the file in bytes.
func (df *Datafile) Size() int64 { return df.size }

func (df *Datafile) Path() string { return df.path }

func (df *Datafile) Sync() error {
	if df.f == nil {
		return ErrClosed
	}
	return df.f.Sync()
}

// Close syncs and closes the file. Calling Close again is a no-op.
func (df *Datafile) Close() error {
	if df.f == nil {
		return nil
	}
	f := df.f
	df.f = nil

	errSync := f.Sync()
	errClose := f.Close()
	if errSync != nil {
		return errSync
	}
	return errClose
}
