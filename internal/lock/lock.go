// Package lock keeps two stores from opening the same directory at once.
package lock

import "errors"

// FileName is the name of the lock file created inside a locked directory.
const FileName = "LOCK"

// ErrLocked is returned when the directory is already held by another store.
var ErrLocked = errors.New("directory already in use by another kvs store")
