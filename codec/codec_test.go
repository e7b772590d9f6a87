package codec

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID    uint64            `json:"id"`
	Title string            `json:"title"`
	Tags  []string          `json:"tags"`
	Attrs map[string]string `json:"attrs"`
}

func sample() record {
	return record{
		ID:    42,
		Title: strings.Repeat("clock ", 64),
		Tags:  []string{"a", "b"},
		Attrs: map[string]string{"k": "v"},
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json", "hujson", "json+lz4", "go-json+zstd", "go-json+none"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
	_, ok = ByName("json+snappy")
	assert.False(t, ok)
}

func TestCodecs(t *testing.T) {
	in := sample()
	for _, c := range []Codec{
		JSON{},
		GoJSON{},
		HuJSON{},
		NewCompressed(GoJSON{}, LZ4),
		NewCompressed(JSON{}, Zstd),
		NewCompressed(nil, None),
	} {
		t.Run(c.Name(), func(t *testing.T) {
			data := MustMarshal(c, in)

			var out record
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestJSONInterchangeable(t *testing.T) {
	in := sample()

	var out record
	require.NoError(t, GoJSON{}.Unmarshal(MustMarshal(JSON{}, in), &out))
	assert.Equal(t, in, out)
}

func TestHuJSONAcceptsComments(t *testing.T) {
	data := []byte(`{
		// seeded by hand
		"id": 7,
		"tags": ["x",],
	}`)

	var out record
	require.NoError(t, HuJSON{}.Unmarshal(data, &out))
	assert.Equal(t, uint64(7), out.ID)
	assert.Equal(t, []string{"x"}, out.Tags)

	assert.Error(t, HuJSON{}.Unmarshal([]byte(`{"id": `), &out))
}

func TestCompressShrinks(t *testing.T) {
	raw := bytes.Repeat([]byte("abcdefgh"), 512)

	for _, algo := range []Algorithm{LZ4, Zstd} {
		frame, err := Compress(raw, algo)
		require.NoError(t, err)
		assert.Equal(t, byte(algo), frame[0])
		assert.Less(t, len(frame), len(raw)/4)

		got, err := Decompress(frame)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	}
}

func TestCompressIncompressibleStoredRaw(t *testing.T) {
	raw := []byte("xy")

	frame, err := Compress(raw, Zstd)
	require.NoError(t, err)
	assert.Equal(t, byte(None), frame[0])

	got, err := Decompress(frame)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDecompressCorrupt(t *testing.T) {
	_, err := Decompress(nil)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Decompress([]byte{byte(None), 10, 'a'})
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Decompress([]byte{9, 1, 0, 0, 0, 0, 'a'})
	assert.ErrorIs(t, err, ErrCorrupt)

	frame, err := Compress([]byte("xy"), None)
	require.NoError(t, err)
	frame[len(frame)-1] ^= 1
	_, err = Decompress(frame)
	assert.ErrorIs(t, err, ErrCorrupt)

	frame, err = Compress(bytes.Repeat([]byte("z"), 1024), LZ4)
	require.NoError(t, err)
	frame[len(frame)-1] ^= 0xff
	frame = frame[:len(frame)-2]
	_, err = Decompress(frame)
	assert.Error(t, err)
}

func TestDecompressOversizedClaim(t *testing.T) {
	raw := bytes.Repeat([]byte("abcd"), 256)
	frame, err := Compress(raw, Zstd)
	require.NoError(t, err)
	require.Equal(t, byte(Zstd), frame[0])

	_, n := binary.Uvarint(frame[1:])
	body := frame[1+n:]

	for _, size := range []uint64{1 << 62, MaxDecodedSize + 1, uint64(len(raw)) + 1} {
		bad := []byte{byte(Zstd)}
		bad = binary.AppendUvarint(bad, size)
		bad = append(bad, body...)

		_, err := Decompress(bad)
		assert.ErrorIs(t, err, ErrCorrupt, "size %d", size)
	}

	bad := []byte{byte(LZ4)}
	bad = binary.AppendUvarint(bad, 1<<62)
	bad = append(bad, body...)
	_, err = Decompress(bad)
	assert.ErrorIs(t, err, ErrCorrupt)
}
