package walbase_test

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arvindsridhar/sebtree/internal/walbase"
)

func TestLogAppendAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")

	log, err := walbase.Open(path, nil)
	require.NoError(t, err)

	lsn1, err := log.Append(walbase.RecordUpdate, []byte("first"))
	require.NoError(t, err)
	lsn2, err := log.Append(walbase.RecordUpdate, []byte("second"))
	require.NoError(t, err)
	require.Equal(t, lsn1+1, lsn2)

	require.NoError(t, log.Flush())
	require.NoError(t, log.Close())

	var got []walbase.Record
	require.NoError(t, walbase.Replay(path, func(r walbase.Record) error {
		got = append(got, r)
		return nil
	}))

	require.Len(t, got, 2)
	require.Equal(t, "first", string(got[0].Payload))
	require.Equal(t, "second", string(got[1].Payload))
	require.Equal(t, lsn1, got[0].LSN)
	require.Equal(t, lsn2, got[1].LSN)
}

func TestLogReopenResumesLSN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")

	log, err := walbase.Open(path, nil)
	require.NoError(t, err)
	_, err = log.Append(walbase.RecordUpdate, []byte("a"))
	require.NoError(t, err)
	lsn, err := log.Append(walbase.RecordUpdate, []byte("b"))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	reopened, err := walbase.Open(path, nil)
	require.NoError(t, err)
	lsn3, err := reopened.Append(walbase.RecordUpdate, []byte("c"))
	require.NoError(t, err)
	require.Equal(t, lsn+1, lsn3)
	require.NoError(t, reopened.Close())
}

func TestReaderSlotIDsAreUnique(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wal")
	log, err := walbase.Open(path, nil)
	require.NoError(t, err)
	_, err = log.Append(walbase.RecordCheckpoint, nil)
	require.NoError(t, err)
	require.NoError(t, log.Flush())

	r1, err := log.NewReader()
	require.NoError(t, err)
	defer r1.Close()
	r2, err := log.NewReader()
	require.NoError(t, err)
	defer r2.Close()

	require.NotEqual(t, r1.SlotID(), r2.SlotID())

	_, err = r1.Next()
	require.NoError(t, err)
	_, err = r1.Next()
	require.ErrorIs(t, err, io.EOF)

	require.NoError(t, log.Close())
}
