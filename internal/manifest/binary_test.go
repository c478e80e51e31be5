package manifest

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	magic := Magic("OXTR")

	p := NewPayload(nil)
	p.WriteUint64(42)
	p.WriteUint32(7)
	p.WriteFloat64(-12.5)
	p.WriteString("tree")
	require.NoError(t, p.Err())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, magic, 1, p.Bytes()))

	payload, err := Read(bytes.NewReader(buf.Bytes()), magic, 1)
	require.NoError(t, err)

	r := NewPayload(payload)
	assert.Equal(t, uint64(42), r.ReadUint64())
	assert.Equal(t, uint32(7), r.ReadUint32())
	assert.Equal(t, -12.5, r.ReadFloat64())
	assert.Equal(t, "tree", r.ReadString())
	assert.Zero(t, r.Remaining())
	require.NoError(t, r.Err())

	// Reading past the end sticks.
	assert.Zero(t, r.ReadUint32())
	assert.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)
}

func TestFrameErrors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Magic("OXBB"), 1, []byte("payload")))
	data := buf.Bytes()

	_, err := Read(bytes.NewReader(data), Magic("OXTR"), 1)
	assert.ErrorIs(t, err, ErrMagic)

	_, err = Read(bytes.NewReader(data), Magic("OXBB"), 2)
	assert.ErrorIs(t, err, ErrVersion)

	corrupt := bytes.Clone(data)
	corrupt[len(corrupt)-1] ^= 0xff
	_, err = Read(bytes.NewReader(corrupt), Magic("OXBB"), 1)
	assert.ErrorIs(t, err, ErrChecksum)

	_, err = Read(bytes.NewReader(data[:len(data)-2]), Magic("OXBB"), 1)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
