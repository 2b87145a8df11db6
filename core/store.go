package core

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-kvs/internal/datafile"
	"github.com/0xRadioAc7iv/go-kvs/internal/lock"
	"github.com/0xRadioAc7iv/go-kvs/internal/record"
)

// Store is a key-value store kept in a single append-only log, with an
// in-memory index from each key to its latest record.
//
// A Store is not safe for concurrent use.
type Store struct {
	dir      string
	opts     *options
	log      *datafile.Datafile
	lockFile *os.File
	keyDir   KeyDir
	metrics  *metrics
	logger   *zap.Logger

	records   int   // complete records in the log
	liveBytes int64 // bytes of the records the index points at
}

// Stats describes the log and the index at one point in time.
type Stats struct {
	Keys       int   // keys with a value
	Records    int   // records in the log, live or not
	LogSize    int64 // size of the log file
	LiveBytes  int64 // bytes of the records the index points at
	StaleBytes int64 // bytes of superseded Set and all Remove records
}

// Open opens the store in dir, creating the directory and an empty log if
// they do not exist, and rebuilds the index by replaying the whole log.
func Open(dir string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	begin := time.Now()

	if err := os.MkdirAll(dir, directoryPerm); err != nil {
		return nil, fmt.Errorf("kvs: create directory: %w", err)
	}

	lf, err := lock.LockDirectory(dir)
	if err != nil {
		return nil, err
	}

	s := &Store{
		dir:      dir,
		opts:     o,
		lockFile: lf,
		keyDir:   make(KeyDir),
		logger:   o.logger,
	}

	if err := s.open(); err != nil {
		return nil, multierr.Append(err, s.release())
	}

	s.logger.Info("opened store",
		zap.String("path", s.log.Path()),
		zap.Int("records", s.records),
		zap.Int("keys", len(s.keyDir)),
		zap.Int64("size", s.log.Size()),
		zap.Duration("took", time.Since(begin)),
	)
	return s, nil
}

func (s *Store) open() error {
	m, err := newMetrics(s.opts.registerer)
	if err != nil {
		return fmt.Errorf("kvs: register metrics: %w", err)
	}
	s.metrics = m

	path := filepath.Join(s.dir, s.opts.fileName)
	s.log, err = datafile.Open(path, datafile.Options{
		Header:     s.opts.formatHeader,
		SyncWrites: s.opts.syncWrites,
	})
	if err != nil {
		return err
	}

	return s.recover()
}

// recover reads the log once and replays it into an empty index.
func (s *Store) recover() error {
	buf, err := s.log.ReadAll()
	if err != nil {
		return err
	}

	res, err := replay(buf, s.log.DataOffset(), s.keyDir)
	if err != nil {
		return fmt.Errorf("kvs: %s: %w", s.log.Path(), err)
	}

	if res.torn {
		if s.opts.strictRecovery {
			return fmt.Errorf("kvs: %s: incomplete record at offset %d: %w", s.log.Path(), res.end, res.tornErr)
		}

		s.logger.Warn("dropping incomplete record at end of log",
			zap.String("path", s.log.Path()),
			zap.Int64("offset", res.end),
			zap.Int64("bytes", s.log.Size()-res.end),
			zap.Error(res.tornErr),
		)
		if err := s.log.Truncate(res.end); err != nil {
			return fmt.Errorf("kvs: repair %s: %w", s.log.Path(), err)
		}
		s.metrics.tornTailRepairs.Inc()
	}

	s.records = res.records
	s.liveBytes = s.keyDir.liveBytes()
	s.metrics.replayedRecords.Add(float64(res.records))
	s.updateGauges()
	return nil
}

// Set stores value under key. A record is always appended, even when key
// already holds the same value; the previous record becomes stale.
func (s *Store) Set(key, value string) error {
	if s.log == nil {
		return ErrClosed
	}

	start, end, err := s.log.Append(record.Set(key, value))
	if err != nil {
		return err
	}

	if old, ok := s.keyDir[key]; ok {
		s.liveBytes -= old.Size()
	}
	entry := KeyDirEntry{Start: start, End: end}
	s.keyDir[key] = entry
	s.liveBytes += entry.Size()
	s.records++

	s.metrics.sets.Inc()
	s.updateGauges()
	s.logger.Debug("set", zap.String("key", key), zap.Int64("offset", start))
	return nil
}

// Get returns the value stored under key. ok is false when the key has no
// value; that is not an error.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	if s.log == nil {
		return "", false, ErrClosed
	}
	s.metrics.gets.Inc()

	entry, ok := s.keyDir[key]
	if !ok {
		s.metrics.getMisses.Inc()
		return "", false, nil
	}

	b, err := s.log.Read(entry.Start, entry.End)
	if err != nil {
		return "", false, err
	}

	rec, n, err := record.DecodeBytes(b)
	if err != nil {
		return "", false, fmt.Errorf("%w: key %q at [%d, %d): %w", ErrInconsistent, key, entry.Start, entry.End, err)
	}
	if rec.Kind != record.KindSet || rec.Key != key || int64(n) != entry.Size() {
		return "", false, fmt.Errorf("%w: key %q at [%d, %d) holds a %v record for %q",
			ErrInconsistent, key, entry.Start, entry.End, rec.Kind, rec.Key)
	}

	return rec.Value, true, nil
}

// Remove deletes key. It fails with ErrKeyNotFound, and writes nothing,
// when the key has no value. The Remove record is appended before the key
// leaves the index, so a failed append leaves the key in place.
func (s *Store) Remove(key string) error {
	if s.log == nil {
		return ErrClosed
	}

	entry, ok := s.keyDir[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}

	if _, _, err := s.log.Append(record.Remove(key)); err != nil {
		return err
	}

	delete(s.keyDir, key)
	s.liveBytes -= entry.Size()
	s.records++

	s.metrics.removes.Inc()
	s.updateGauges()
	s.logger.Debug("remove", zap.String("key", key))
	return nil
}

// Has reports whether key has a value, without touching the log.
func (s *Store) Has(key string) bool {
	_, ok := s.keyDir[key]
	return ok
}

// Len is the number of keys with a value.
func (s *Store) Len() int {
	return len(s.keyDir)
}

// Keys returns every key with a value, sorted.
func (s *Store) Keys() []string {
	return slices.Sorted(maps.Keys(s.keyDir))
}

func (s *Store) Stats() Stats {
	st := Stats{
		Keys:      len(s.keyDir),
		Records:   s.records,
		LiveBytes: s.liveBytes,
	}
	if s.log != nil {
		st.LogSize = s.log.Size()
		st.StaleBytes = st.LogSize - s.log.DataOffset() - s.liveBytes
	}
	return st
}

// Dir is the directory the store was opened in.
func (s *Store) Dir() string { return s.dir }

// Path is the path of the log file.
func (s *Store) Path() string { return filepath.Join(s.dir, s.opts.fileName) }

// Sync flushes the log to stable storage.
func (s *Store) Sync() error {
	if s.log == nil {
		return ErrClosed
	}
	return s.log.Sync()
}

// Close syncs and closes the log and releases the directory. Calling Close
// more than once is a no-op.
func (s *Store) Close() error {
	if s.lockFile == nil {
		return nil
	}
	err := s.release()
	s.logger.Info("closed store", zap.String("dir", s.dir), zap.Error(err))
	return err
}

func (s *Store) release() error {
	var err error
	if s.log != nil {
		err = multierr.Append(err, s.log.Close())
		s.log = nil
	}
	if s.metrics != nil {
		s.metrics.unregister()
	}
	if s.lockFile != nil {
		err = multierr.Append(err, lock.UnlockDirectory(s.lockFile))
		s.lockFile = nil
	}
	s.keyDir = make(KeyDir)
	s.liveBytes = 0
	return err
}

func (s *Store) updateGauges() {
	st := s.Stats()
	s.metrics.keys.Set(float64(st.Keys))
	s.metrics.logSize.Set(float64(st.LogSize))
	s.metrics.staleBytes.Set(float64(st.StaleBytes))
}
