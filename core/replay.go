package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/0xRadioAc7iv/go-kvs/internal/record"
)

type replayResult struct {
	records int   // complete records applied
	end     int64 // offset just past the last complete record

	// torn is set when the log ends in a record that was never fully
	// written. tornErr says why the final frame was rejected.
	torn    bool
	tornErr error
}

// replay applies every record in log, starting at offset base, to kd in
// log order: a Set points the key at the record, a Remove drops the key.
//
// The log is reported as having a torn tail, rather than an error, when it
// ends in a frame whose header is cut short, a frame with a valid header
// whose body runs past the end, a frame that fails its checksum and is the
// last thing in log, or a run of zero bytes. Any other bad frame is fatal.
func replay(log []byte, base int64, kd KeyDir) (replayResult, error) {
	res := replayResult{end: base}
	if base > int64(len(log)) {
		return res, fmt.Errorf("%w: log of %d bytes has no room for data at %d", ErrCorrupt, len(log), base)
	}

	cur := bytes.NewReader(log[base:])
	for {
		rec, n, err := record.Decode(cur)
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			last := res.end+int64(n) == int64(len(log))
			torn := errors.Is(err, record.ErrTruncated) ||
				(errors.Is(err, record.ErrCorrupt) && (last || allZero(log[res.end:])))
			if torn {
				res.torn = true
				res.tornErr = err
				return res, nil
			}
			return res, fmt.Errorf("replay at offset %d: %w", res.end, err)
		}

		start, end := res.end, res.end+int64(n)
		switch rec.Kind {
		case record.KindSet:
			kd[rec.Key] = KeyDirEntry{Start: start, End: end}
		case record.KindRemove:
			delete(kd, rec.Key)
		}

		res.records++
		res.end = end
	}
}

// allZero reports whether b holds nothing but zero bytes, as left behind by
// a file system that extended the file but never wrote the data.
func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
