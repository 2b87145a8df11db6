// Package core implements an embedded key-value store kept in a single
// append-only log file, with an in-memory index from each key to the byte
// range of its latest value.
//
// Every Set and Remove appends one self-framing record to the log; nothing
// is ever overwritten. The index is rebuilt on Open by replaying the log
// from the start, so the log is the only source of truth.
//
// Example:
//
//	store, err := core.Open("./data")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.Set("foo", "bar")
//	val, ok, err := store.Get("foo")
//	err = store.Remove("foo") // errors.Is(err, core.ErrKeyNotFound) if absent
package core
