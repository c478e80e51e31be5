package entityio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/paulmach/osm"
)

const (
	blockMagic   = "OXBK"
	blockVersion = 1

	flagMetadata = 1 << 0
)

type blockWriter struct {
	w   io.WriteCloser
	bw  *bufio.Writer
	cfg OutputConfig
	enc recordEncoder
	buf []byte
	out []byte
	err error
}

func newBlockWriter(w io.WriteCloser, cfg OutputConfig) (*blockWriter, error) {
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = defaultBlockSize
	}
	if cfg.BlockSize > maxBlockSize {
		return nil, fmt.Errorf("entityio: block size %d exceeds %d", cfg.BlockSize, maxBlockSize)
	}
	bw := bufio.NewWriter(w)
	hdr := []byte{blockMagic[0], blockMagic[1], blockMagic[2], blockMagic[3], blockVersion, byte(cfg.Compression), 0, 0}
	if cfg.WriteMetadata {
		hdr[6] |= flagMetadata
	}
	if _, err := bw.Write(hdr); err != nil {
		return nil, err
	}
	return &blockWriter{
		w:   w,
		bw:  bw,
		cfg: cfg,
		enc: recordEncoder{meta: cfg.WriteMetadata},
		buf: make([]byte, 0, cfg.BlockSize),
	}, nil
}

func (b *blockWriter) Write(o osm.Object) error {
	if b.err != nil {
		return b.err
	}
	b.buf, b.err = b.enc.append(b.buf, o)
	if b.err != nil {
		return b.err
	}
	// Records never span blocks.
	if len(b.buf) >= b.cfg.BlockSize {
		b.err = b.flush()
	}
	return b.err
}

func (b *blockWriter) flush() error {
	if len(b.buf) == 0 {
		return nil
	}
	var err error
	b.out, err = appendBlock(b.out[:0], b.buf, b.cfg.Compression)
	if err != nil {
		return err
	}
	b.buf = b.buf[:0]
	_, err = b.bw.Write(b.out)
	return err
}

func (b *blockWriter) Close() error {
	err := b.err
	if err == nil {
		err = b.flush()
	}
	if err == nil {
		err = b.bw.Flush()
	}
	if cerr := b.w.Close(); err == nil {
		err = cerr
	}
	b.err = errors.New("entityio: writer closed")
	return err
}

// blockScanner implements osm.Scanner over a FormatBlock stream.
type blockScanner struct {
	ctx         context.Context
	r           *bufio.Reader
	compression Compression
	dec         recordDecoder
	obj         osm.Object
	err         error
	done        bool
}

func newBlockScanner(ctx context.Context, r io.Reader) (*blockScanner, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	var hdr [8]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, fmt.Errorf("entityio: read block header: %w", err)
	}
	if string(hdr[:4]) != blockMagic {
		return nil, fmt.Errorf("entityio: bad block magic %q", hdr[:4])
	}
	if hdr[4] != blockVersion {
		return nil, fmt.Errorf("entityio: unsupported block version %d", hdr[4])
	}
	c := Compression(hdr[5])
	if c > CompressionZSTD {
		return nil, fmt.Errorf("entityio: unknown compression %d", hdr[5])
	}
	return &blockScanner{
		ctx:         ctx,
		r:           br,
		compression: c,
		dec:         recordDecoder{meta: hdr[6]&flagMetadata != 0},
	}, nil
}

func (s *blockScanner) Scan() bool {
	if s.err != nil || s.done {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}
	for !s.dec.more() {
		block, err := readBlock(s.r, s.compression)
		if errors.Is(err, io.EOF) {
			s.done = true
			return false
		}
		if err != nil {
			s.err = err
			return false
		}
		s.dec.reset(block)
	}
	s.obj, s.err = s.dec.next()
	return s.err == nil
}

func (s *blockScanner) Object() osm.Object { return s.obj }

func (s *blockScanner) Err() error { return s.err }

func (s *blockScanner) Close() error { return nil }
