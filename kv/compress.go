package kv

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType defines the compression algorithm used.
type CompressionType uint8

const (
	// CompressionNone stores values unchanged behind the frame header.
	CompressionNone CompressionType = 0
	// CompressionLZ4 indicates LZ4 block compression (fast, good for hot lists).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD indicates ZSTD compression (better ratio, good for cold lists).
	CompressionZSTD CompressionType = 2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompressionType maps "none", "lz4" and "zstd" to a CompressionType.
func ParseCompressionType(s string) (CompressionType, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("kv: unknown compression %q", s)
	}
}

// ErrBadFrame is returned when a stored value is not a valid compressed frame.
var ErrBadFrame = errors.New("kv: invalid compressed frame")

// Frame format: [Type uint8][UncompressedSize uint64][Data...]
const frameHeaderSize = 9

// maxDecodedSize bounds the uncompressed size of a single value.
const maxDecodedSize = 1 << 32

// ZSTD encoder/decoder pools for efficiency
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
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSize))
	return dec
}

// Compressed wraps a Backend and compresses every value it stores.
// Values are framed with a small header naming the algorithm, so a store
// can switch algorithms without rewriting existing values. All values under
// the wrapped keys must have been written through a Compressed backend.
type Compressed struct {
	inner Backend
	typ   CompressionType
}

// NewCompressed wraps inner, compressing new values with typ.
func NewCompressed(inner Backend, typ CompressionType) *Compressed {
	return &Compressed{inner: inner, typ: typ}
}

// Get implements Backend.
func (c *Compressed) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	out, err := decodeFrame(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return out, nil
}

// Put implements Backend.
func (c *Compressed) Put(ctx context.Context, key string, value []byte) error {
	frame, err := encodeFrame(value, c.typ)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return c.inner.Put(ctx, key, frame)
}

// List implements Lister if the wrapped backend does.
func (c *Compressed) List(ctx context.Context, prefix string) ([]string, error) {
	keys, ok, err := List(ctx, c.inner, prefix)
	if !ok {
		return nil, ErrListUnsupported
	}
	return keys, err
}

// encodeFrame compresses data. If compression does not help, the value is
// stored uncompressed.
func encodeFrame(data []byte, typ CompressionType) ([]byte, error) {
	var compressed []byte
	switch typ {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n] // n == 0 means incompressible
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("kv: unsupported compression %s", typ)
	}

	if len(compressed) == 0 || len(compressed) >= len(data) {
		typ = CompressionNone
		compressed = data
	}

	frame := make([]byte, frameHeaderSize+len(compressed))
	frame[0] = byte(typ)
	binary.LittleEndian.PutUint64(frame[1:], uint64(len(data)))
	copy(frame[frameHeaderSize:], compressed)
	return frame, nil
}

func decodeFrame(frame []byte) ([]byte, error) {
	if len(frame) < frameHeaderSize {
		return nil, ErrBadFrame
	}
	typ := CompressionType(frame[0])
	size := binary.LittleEndian.Uint64(frame[1:])
	payload := frame[frameHeaderSize:]

	switch typ {
	case CompressionNone:
		if uint64(len(payload)) != size {
			return nil, ErrBadFrame
		}
		return payload, nil

	case CompressionLZ4:
		// LZ4 cannot expand by more than ~255x; larger sizes are corrupt headers.
		if size > uint64(len(payload))*255+16 {
			return nil, ErrBadFrame
		}
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadFrame, err)
		}
		if uint64(n) != size {
			return nil, ErrBadFrame
		}
		return out, nil

	case CompressionZSTD:
		if size > maxDecodedSize {
			return nil, ErrBadFrame
		}
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		out, err := dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadFrame, err)
		}
		if uint64(len(out)) != size {
			return nil, ErrBadFrame
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrBadFrame, frame[0])
	}
}
