package core

// KeyDirEntry represents the in-memory index entry for a single key.
//
// It holds the byte range [Start, End) of the most recent Set record for
// the key in the log. Older records for the key may still exist in the log
// but are unreachable.
type KeyDirEntry struct {
	Start int64 // Offset of the first byte of the record
	End   int64 // Offset one past the last byte of the record
}

// Size is the length of the record on disk.
func (e KeyDirEntry) Size() int64 {
	return e.End - e.Start
}

// KeyDir is the in-memory index mapping keys to their latest Set record.
//
// It is a derived view of the log: replaying the log from the start
// always reproduces it, and it is never written to disk.
type KeyDir map[string]KeyDirEntry

// liveBytes is the number of log bytes still reachable through the index.
func (kd KeyDir) liveBytes() int64 {
	var n int64
	for _, e := range kd {
		n += e.Size()
	}
	return n
}
