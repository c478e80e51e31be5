package entityio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

const (
	defaultBlockSize = 128 << 10
	maxBlockSize     = 64 << 20
	blockHeaderSize  = 8
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// appendBlock frames data as [uncompressed u32][compressed u32][payload].
// compressed == 0 means the payload is stored raw, which is also chosen when
// compression saves less than 10%.
func appendBlock(dst, data []byte, c Compression) ([]byte, error) {
	var compressed []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	}

	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(data)))
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		dst = append(dst, hdr[:]...)
		return append(dst, data...), nil
	}
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(compressed)))
	dst = append(dst, hdr[:]...)
	return append(dst, compressed...), nil
}

// readBlock reads and decodes the next framed block. It returns io.EOF at
// a clean end of stream.
func readBlock(r io.Reader, c Compression) ([]byte, error) {
	var hdr [blockHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errors.New("entityio: truncated block header")
		}
		return nil, err
	}
	uncompressed := binary.LittleEndian.Uint32(hdr[0:])
	compressed := binary.LittleEndian.Uint32(hdr[4:])
	if uncompressed > maxBlockSize || compressed > maxBlockSize {
		return nil, fmt.Errorf("entityio: block size %d exceeds limit", max(uncompressed, compressed))
	}

	if compressed == 0 {
		data := make([]byte, uncompressed)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("entityio: truncated block: %w", err)
		}
		return data, nil
	}

	payload := make([]byte, compressed)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("entityio: truncated block: %w", err)
	}

	out := make([]byte, uncompressed)
	switch c {
	case CompressionZSTD:
		dec := getZstdDecoder()
		decoded, err := dec.DecodeAll(payload, out[:0])
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, err
		}
		out = decoded
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, err
		}
		out = out[:n]
	default:
		return nil, fmt.Errorf("entityio: compressed block in %s stream", c)
	}
	if uint32(len(out)) != uncompressed {
		return nil, errors.New("entityio: decompressed size mismatch")
	}
	return out, nil
}
