package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0xRadioAc7iv/go-kvs/internal/record"
)

func encodeAll(t *testing.T, recs ...record.Record) []byte {
	t.Helper()

	var log []byte
	for _, r := range recs {
		b, err := record.Encode(r)
		require.NoError(t, err)
		log = append(log, b...)
	}
	return log
}

func TestReplayBuildsIndex(t *testing.T) {
	require := require.New(t)

	log := encodeAll(t,
		record.Set("a", "1"),
		record.Set("b", "2"),
		record.Set("a", "3"),
		record.Remove("b"),
	)

	kd := make(KeyDir)
	res, err := replay(log, 0, kd)
	require.NoError(err)
	require.False(res.torn)
	require.Equal(4, res.records)
	require.Equal(int64(len(log)), res.end)

	require.Len(kd, 1)
	a := kd["a"]
	setA1 := int64(record.Size(record.Set("a", "1")))
	setB := int64(record.Size(record.Set("b", "2")))
	require.Equal(setA1+setB, a.Start)
	require.Equal(int64(record.Size(record.Set("a", "3"))), a.Size())
	require.Equal(a.Size(), kd.liveBytes())
}

func TestReplayEmptyLog(t *testing.T) {
	kd := make(KeyDir)
	res, err := replay(nil, 0, kd)
	require.NoError(t, err)
	require.Zero(t, res.records)
	require.Empty(t, kd)
}

func TestReplayFromBase(t *testing.T) {
	require := require.New(t)

	prefix := []byte("HEADER!!")
	log := append(append([]byte{}, prefix...), encodeAll(t, record.Set("k", "v"))...)

	kd := make(KeyDir)
	res, err := replay(log, int64(len(prefix)), kd)
	require.NoError(err)
	require.Equal(1, res.records)
	require.Equal(int64(len(prefix)), kd["k"].Start)
	require.Equal(int64(len(log)), kd["k"].End)

	_, err = replay(prefix[:4], int64(len(prefix)), make(KeyDir))
	require.ErrorIs(err, record.ErrCorrupt)
}

func TestReplayReportsTornTail(t *testing.T) {
	require := require.New(t)

	full := encodeAll(t, record.Set("a", "1"), record.Set("b", "2"))
	first := int64(record.Size(record.Set("a", "1")))

	for cut := first + 1; cut < int64(len(full)); cut++ {
		kd := make(KeyDir)
		res, err := replay(full[:cut], 0, kd)
		require.NoError(err, "cut at %d", cut)
		require.True(res.torn, "cut at %d", cut)
		require.ErrorIs(res.tornErr, record.ErrTruncated)
		require.Equal(first, res.end)
		require.Equal(1, res.records)
		require.Contains(kd, "a")
		require.NotContains(kd, "b")
	}
}

func TestReplayCorruptSizeFieldIsFatal(t *testing.T) {
	require := require.New(t)

	log := encodeAll(t, record.Set("a", "1"), record.Set("b", "2"))
	log[5] ^= 0x40 // key size of the first record

	kd := make(KeyDir)
	res, err := replay(log, 0, kd)
	require.ErrorIs(err, record.ErrCorrupt)
	require.False(res.torn)
	require.Empty(kd)
}

func TestReplayCorruptLastHeaderIsTorn(t *testing.T) {
	require := require.New(t)

	log := encodeAll(t, record.Set("a", "1"), record.Remove(""))
	first := int64(record.Size(record.Set("a", "1")))
	log[first+5] ^= 0x01

	kd := make(KeyDir)
	res, err := replay(log, 0, kd)
	require.NoError(err)
	require.True(res.torn)
	require.ErrorIs(res.tornErr, record.ErrCorrupt)
	require.Equal(first, res.end)
}

func TestReplayZeroTail(t *testing.T) {
	require := require.New(t)

	full := encodeAll(t, record.Set("a", "1"))
	for _, zeros := range []int{1, record.HeaderSizeBytes, 100} {
		log := append(append([]byte{}, full...), make([]byte, zeros)...)

		kd := make(KeyDir)
		res, err := replay(log, 0, kd)
		require.NoError(err, "%d zero bytes", zeros)
		require.True(res.torn, "%d zero bytes", zeros)
		require.Equal(int64(len(full)), res.end)
		require.Contains(kd, "a")
	}

	// zeros followed by data are not a torn tail
	log := append(append(append([]byte{}, full...), make([]byte, 20)...), full...)
	_, err := replay(log, 0, make(KeyDir))
	require.ErrorIs(err, record.ErrCorrupt)
}

func TestStoreDetectsInconsistentIndex(t *testing.T) {
	require := require.New(t)

	s, err := Open(t.TempDir())
	require.NoError(err)
	defer s.Close()

	require.NoError(s.Set("a", "1"))
	require.NoError(s.Set("b", "2"))
	require.NoError(s.Remove("b"))
	removeStart := s.keyDir["a"].End + int64(record.Size(record.Set("b", "2")))

	// point "a" at the Remove record
	s.keyDir["a"] = KeyDirEntry{Start: removeStart, End: s.log.Size()}
	_, _, err = s.Get("a")
	require.ErrorIs(err, ErrInconsistent)

	// point "a" at the middle of a record
	s.keyDir["a"] = KeyDirEntry{Start: 2, End: s.log.Size()}
	_, _, err = s.Get("a")
	require.ErrorIs(err, ErrInconsistent)
	require.ErrorIs(err, ErrCorrupt)
}
