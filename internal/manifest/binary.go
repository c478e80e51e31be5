package manifest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
)

const headerSize = 16

var (
	// ErrChecksum is returned when the payload does not match its checksum.
	ErrChecksum = errors.New("manifest: checksum mismatch")
	// ErrMagic is returned when a file carries a different magic.
	ErrMagic = errors.New("manifest: invalid magic")
	// ErrVersion is returned for unknown format versions.
	ErrVersion = errors.New("manifest: unsupported version")
)

// Write frames payload with magic, version and checksum.
func Write(w io.Writer, magic, version uint32, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("manifest: payload too large: %d", len(payload))
	}
	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], magic)
	binary.LittleEndian.PutUint32(header[4:8], version)
	binary.LittleEndian.PutUint32(header[8:12], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// Read verifies the framing and returns the payload.
func Read(r io.Reader, magic, version uint32) ([]byte, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	if got := binary.LittleEndian.Uint32(header[0:4]); got != magic {
		return nil, fmt.Errorf("%w: %x", ErrMagic, got)
	}
	if got := binary.LittleEndian.Uint32(header[4:8]); got != version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, got)
	}
	checksum := binary.LittleEndian.Uint32(header[8:12])
	length := binary.LittleEndian.Uint32(header[12:16])

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(payload) != checksum {
		return nil, ErrChecksum
	}
	return payload, nil
}

// Magic packs a four character tag into a uint32.
func Magic(tag string) uint32 {
	if len(tag) != 4 {
		panic("manifest: magic tag must be 4 bytes")
	}
	return binary.BigEndian.Uint32([]byte(tag))
}

// Payload is an append/consume buffer. The first error sticks; later
// reads return zero values.
type Payload struct {
	buf []byte
	pos int
	err error
}

// NewPayload returns a buffer for writing (b may be nil) or reading.
func NewPayload(b []byte) *Payload {
	return &Payload{buf: b}
}

// Bytes returns the written payload.
func (p *Payload) Bytes() []byte { return p.buf }

// Err returns the first error.
func (p *Payload) Err() error { return p.err }

// Remaining returns the unread byte count.
func (p *Payload) Remaining() int { return len(p.buf) - p.pos }

func (p *Payload) WriteUint64(v uint64) {
	if p.err == nil {
		p.buf = binary.LittleEndian.AppendUint64(p.buf, v)
	}
}

func (p *Payload) WriteUint32(v uint32) {
	if p.err == nil {
		p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
	}
}

func (p *Payload) WriteFloat64(v float64) {
	p.WriteUint64(math.Float64bits(v))
}

func (p *Payload) WriteString(s string) {
	if p.err != nil {
		return
	}
	if len(s) > math.MaxUint16 {
		p.err = fmt.Errorf("manifest: string too long: %d", len(s))
		return
	}
	p.buf = binary.LittleEndian.AppendUint16(p.buf, uint16(len(s)))
	p.buf = append(p.buf, s...)
}

func (p *Payload) need(n int) bool {
	if p.err != nil {
		return false
	}
	if p.pos+n > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return false
	}
	return true
}

func (p *Payload) ReadUint64() uint64 {
	if !p.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(p.buf[p.pos:])
	p.pos += 8
	return v
}

func (p *Payload) ReadUint32() uint32 {
	if !p.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(p.buf[p.pos:])
	p.pos += 4
	return v
}

func (p *Payload) ReadFloat64() float64 {
	return math.Float64frombits(p.ReadUint64())
}

func (p *Payload) ReadString() string {
	if !p.need(2) {
		return ""
	}
	l := int(binary.LittleEndian.Uint16(p.buf[p.pos:]))
	p.pos += 2
	if !p.need(l) {
		return ""
	}
	s := string(p.buf[p.pos : p.pos+l])
	p.pos += l
	return s
}
