package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "a", "b")
	require.NoError(t, lfs.MkdirAll(dir, 0o755))

	fpath := filepath.Join(dir, "test.txt")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	assert.Equal(t, fpath, f.Name())
	require.NoError(t, f.Close())

	moved := filepath.Join(dir, "moved.txt")
	require.NoError(t, lfs.Rename(fpath, moved))
	entries, err := lfs.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "moved.txt", entries[0].Name())

	require.NoError(t, lfs.Remove(moved))
	require.NoError(t, lfs.RemoveAll(filepath.Join(tmp, "a")))
	_, err = lfs.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFSWriteLimit(t *testing.T) {
	ffs := NewFaultyFS(nil)
	ffs.AddRule("limited", Fault{FailAfterBytes: 4})

	tmp := t.TempDir()
	f, err := ffs.OpenFile(filepath.Join(tmp, "limited.bin"), os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = f.Write([]byte("de"))
	assert.ErrorIs(t, err, ErrInjected)
	require.NoError(t, f.Close())

	other, err := ffs.OpenFile(filepath.Join(tmp, "other.bin"), os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = other.Write(make([]byte, 1024))
	assert.NoError(t, err)
	require.NoError(t, other.Close())
}

func TestFaultyFSOperations(t *testing.T) {
	custom := errors.New("disk on fire")
	ffs := NewFaultyFS(nil)
	ffs.AddRule("scratch", Fault{FailOnMkdir: true, FailAfterBytes: -1, Err: custom})
	ffs.AddRule("sealed", Fault{FailOnRemove: true, FailOnOpen: true, FailAfterBytes: -1})
	ffs.AddRule("flaky", Fault{FailOnSync: true, FailOnClose: true, FailAfterBytes: -1})

	tmp := t.TempDir()
	assert.ErrorIs(t, ffs.MkdirAll(filepath.Join(tmp, "scratch"), 0o755), custom)
	assert.NoError(t, ffs.MkdirAll(filepath.Join(tmp, "fine"), 0o755))

	_, err := ffs.OpenFile(filepath.Join(tmp, "sealed"), os.O_CREATE|os.O_WRONLY, 0o644)
	assert.ErrorIs(t, err, ErrInjected)
	assert.ErrorIs(t, ffs.RemoveAll(filepath.Join(tmp, "sealed")), ErrInjected)
	assert.ErrorIs(t, ffs.Remove(filepath.Join(tmp, "sealed")), ErrInjected)

	f, err := ffs.OpenFile(filepath.Join(tmp, "flaky"), os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	assert.ErrorIs(t, f.Sync(), ErrInjected)
	assert.ErrorIs(t, f.Close(), ErrInjected)
}
