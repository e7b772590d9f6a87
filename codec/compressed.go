package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/clockcache/internal/hash"
)

// Algorithm is a block compression algorithm.
type Algorithm uint8

const (
	// None stores the encoded bytes as-is.
	None Algorithm = 0
	// LZ4 is fast block compression, good for hot values.
	LZ4 Algorithm = 1
	// Zstd trades speed for a better ratio.
	Zstd Algorithm = 2
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

func algorithmByName(name string) (Algorithm, bool) {
	switch name {
	case "none":
		return None, true
	case "lz4":
		return LZ4, true
	case "zstd":
		return Zstd, true
	default:
		return None, false
	}
}

// MaxDecodedSize bounds the raw size a frame may claim.
const MaxDecodedSize = 1 << 30

var (
	// ErrCorrupt is returned when a compressed frame cannot be decoded.
	ErrCorrupt = errors.New("codec: corrupt compressed frame")

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
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDecodedSize))
	return dec
}

// Compressed wraps a Codec with block compression.
//
// Frame format: [Algorithm uint8][RawSize uvarint][CRC32C(raw) uint32][Data...].
// Values that do not shrink by at least 10% are stored with Algorithm None.
type Compressed struct {
	inner Codec
	algo  Algorithm
}

// NewCompressed wraps inner with algo.
func NewCompressed(inner Codec, algo Algorithm) *Compressed {
	if inner == nil {
		inner = Default
	}
	return &Compressed{inner: inner, algo: algo}
}

// Name returns "<inner>+<algorithm>".
func (c *Compressed) Name() string {
	return c.inner.Name() + "+" + c.algo.String()
}

// Marshal encodes v with the inner codec and compresses the result.
func (c *Compressed) Marshal(v any) ([]byte, error) {
	raw, err := c.inner.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Compress(raw, c.algo)
}

// Unmarshal decompresses data and decodes it with the inner codec.
func (c *Compressed) Unmarshal(data []byte, v any) error {
	raw, err := Decompress(data)
	if err != nil {
		return err
	}
	return c.inner.Unmarshal(raw, v)
}

// Compress frames raw with algo.
func Compress(raw []byte, algo Algorithm) ([]byte, error) {
	var body []byte
	switch algo {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, err
		}
		body = buf[:n] // n == 0: incompressible
	case Zstd:
		enc := getZstdEncoder()
		body = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("codec: unknown %s", algo)
	}

	if len(body) == 0 || float64(len(body)) > float64(len(raw))*0.9 {
		algo, body = None, raw
	}

	out := make([]byte, 0, 1+binary.MaxVarintLen64+4+len(body))
	out = append(out, byte(algo))
	out = binary.AppendUvarint(out, uint64(len(raw)))
	out = hash.AppendCRC32C(out, raw)
	return append(out, body...), nil
}

// Decompress reverses Compress and verifies the checksum.
func Decompress(frame []byte) ([]byte, error) {
	if len(frame) < 2 {
		return nil, ErrCorrupt
	}
	algo := Algorithm(frame[0])
	size, n := binary.Uvarint(frame[1:])
	if n <= 0 || len(frame) < 1+n+4 || size > MaxDecodedSize {
		return nil, ErrCorrupt
	}
	sum, body := frame[1+n:1+n+4], frame[1+n+4:]

	raw, err := decompress(algo, size, body)
	if err != nil {
		return nil, err
	}
	if !hash.VerifyCRC32C(raw, sum) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return raw, nil
}

func decompress(algo Algorithm, size uint64, body []byte) ([]byte, error) {
	switch algo {
	case None:
		if uint64(len(body)) != size {
			return nil, ErrCorrupt
		}
		return body, nil
	case LZ4:
		if size > uint64(len(body))*255+16 {
			return nil, ErrCorrupt
		}
		out := make([]byte, size)
		m, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint64(m) != size {
			return nil, ErrCorrupt
		}
		return out, nil
	case Zstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint64(len(out)) != size {
			return nil, ErrCorrupt
		}
		return out, nil
	default:
		return nil, ErrCorrupt
	}
}
