package checkpoint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
	"sync"

	"github.com/hupe1980/streamcluster/codec"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression defines the compression algorithm used for the payload.
type Compression uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name as printed by String.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// ErrCorrupt is returned for blobs that are not valid checkpoints.
var ErrCorrupt = errors.New("corrupt checkpoint")

const (
	magic         = "SCKP"
	formatVersion = 1

	// maxPayloadSize bounds the allocation made for a decoded payload.
	maxPayloadSize = 1 << 30
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Header describes an encoded checkpoint.
//
// Format:
//
//	[magic "SCKP"][version u8][compression u8][codec len u8][codec name]
//	[payload len u32][payload crc32c u32][data...]
//
// The length and checksum refer to the uncompressed payload.
type Header struct {
	Version     uint8
	Compression Compression
	Codec       string
	Size        uint32
	Checksum    uint32
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}

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

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxPayloadSize))
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Encode marshals v with c and wraps it into a checkpoint blob.
// Payloads that do not shrink are stored uncompressed.
func Encode(v any, c codec.Codec, compression Compression) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	name := c.Name()
	if len(name) > 255 {
		return nil, fmt.Errorf("codec name %q too long", name)
	}

	payload, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal with %s: %w", name, err)
	}
	if len(payload) > maxPayloadSize {
		return nil, fmt.Errorf("payload of %d bytes exceeds %d", len(payload), maxPayloadSize)
	}

	data, compression, err := compress(payload, compression)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(magic)+3+len(name)+8+len(data))
	out = append(out, magic...)
	out = append(out, formatVersion, byte(compression), byte(len(name)))
	out = append(out, name...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	out = binary.LittleEndian.AppendUint32(out, crc32.Checksum(payload, castagnoli))
	return append(out, data...), nil
}

// ReadHeader parses the header of a checkpoint blob and returns it with the
// offset of the (possibly compressed) payload.
func ReadHeader(data []byte) (Header, int, error) {
	if len(data) < len(magic)+3 || string(data[:len(magic)]) != magic {
		return Header{}, 0, corruptf("bad magic")
	}
	off := len(magic)

	h := Header{
		Version:     data[off],
		Compression: Compression(data[off+1]),
	}
	if h.Version != formatVersion {
		return Header{}, 0, corruptf("unsupported version %d", h.Version)
	}
	nameLen := int(data[off+2])
	off += 3

	if len(data) < off+nameLen+8 {
		return Header{}, 0, corruptf("truncated header")
	}
	h.Codec = string(data[off : off+nameLen])
	off += nameLen

	h.Size = binary.LittleEndian.Uint32(data[off:])
	h.Checksum = binary.LittleEndian.Uint32(data[off+4:])
	off += 8

	if h.Size > maxPayloadSize {
		return Header{}, 0, corruptf("payload size %d", h.Size)
	}
	return h, off, nil
}

// Decode unwraps a checkpoint blob and unmarshals its payload into v with
// the codec named in the header.
func Decode(data []byte, v any) (Header, error) {
	h, off, err := ReadHeader(data)
	if err != nil {
		return Header{}, err
	}

	c, ok := codec.ByName(h.Codec)
	if !ok {
		return Header{}, corruptf("unknown codec %q", h.Codec)
	}

	payload, err := decompress(data[off:], h.Compression, h.Size)
	if err != nil {
		return Header{}, err
	}
	if crc32.Checksum(payload, castagnoli) != h.Checksum {
		return Header{}, corruptf("checksum mismatch")
	}

	if err := c.Unmarshal(payload, v); err != nil {
		return Header{}, fmt.Errorf("%w: unmarshal with %s: %v", ErrCorrupt, h.Codec, err)
	}
	return h, nil
}

func compress(payload []byte, compression Compression) ([]byte, Compression, error) {
	if len(payload) == 0 {
		return payload, CompressionNone, nil
	}

	var compressed []byte
	switch compression {
	case CompressionNone:
		return payload, CompressionNone, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(payload)))
		n, err := lz4.CompressBlock(payload, buf, nil)
		if err != nil {
			return nil, 0, err
		}
		compressed = buf[:n] // n == 0: incompressible
	case CompressionZSTD:
		enc := getZstdEncoder()
		defer putZstdEncoder(enc)
		compressed = enc.EncodeAll(payload, nil)
	default:
		return nil, 0, fmt.Errorf("unknown compression %d", compression)
	}

	if len(compressed) == 0 || len(compressed) >= len(payload) {
		return payload, CompressionNone, nil
	}
	return compressed, compression, nil
}

func decompress(data []byte, compression Compression, size uint32) ([]byte, error) {
	switch compression {
	case CompressionNone:
		if uint32(len(data)) != size {
			return nil, corruptf("payload is %d bytes, header says %d", len(data), size)
		}
		return data, nil

	case CompressionLZ4:
		result := make([]byte, size)
		n, err := lz4.UncompressBlock(data, result)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorrupt, err)
		}
		if uint32(n) != size {
			return nil, corruptf("decompressed size mismatch")
		}
		return result, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		decoded, err := dec.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		if uint32(len(decoded)) != size {
			return nil, corruptf("decompressed size mismatch")
		}
		return decoded, nil

	default:
		return nil, corruptf("unknown compression %d", compression)
	}
}
