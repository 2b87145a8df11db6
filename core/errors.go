package core

import (
	"errors"

	"github.com/0xRadioAc7iv/go-kvs/internal/datafile"
	"github.com/0xRadioAc7iv/go-kvs/internal/lock"
	"github.com/0xRadioAc7iv/go-kvs/internal/record"
)

var (
	// ErrKeyNotFound is returned by Remove when the key has no value.
	ErrKeyNotFound = errors.New("kvs: key not found")

	// ErrClosed is returned by every operation on a closed Store.
	ErrClosed = errors.New("kvs: store is closed")

	// ErrInconsistent means the index pointed at bytes that are not a Set
	// record for the requested key.
	ErrInconsistent = errors.New("kvs: index does not match log")

	// ErrLocked is returned by Open when another store holds the directory.
	ErrLocked = lock.ErrLocked
)

// Log integrity errors surfaced by Open and Get.
var (
	ErrCorrupt             = record.ErrCorrupt
	ErrTruncated           = record.ErrTruncated
	ErrBadMagic            = datafile.ErrBadMagic
	ErrIncompatibleVersion = datafile.ErrIncompatibleVersion
	ErrUnexpectedHeader    = datafile.ErrUnexpectedHeader
)
