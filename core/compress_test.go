package tablepack

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArchive(t *testing.T) []byte {
	t.Helper()
	archive, err := PackMap(map[string][]byte{
		"Items":  bytes.Repeat([]byte("item-row;"), 200),
		"Levels": bytes.Repeat([]byte("level-row;"), 300),
	})
	require.NoError(t, err)
	return archive
}

func TestCompress_RoundTrip(t *testing.T) {
	t.Parallel()

	archive := testArchive(t)
	for _, level := range []CompressionLevel{CompressionFastest, CompressionDefault, CompressionBest} {
		t.Run(level.String(), func(t *testing.T) {
			t.Parallel()

			packed, err := Compress(archive, CompressWithLevel(level))
			require.NoError(t, err)
			assert.True(t, IsCompressed(packed))
			assert.Less(t, len(packed), len(archive))

			got, err := Decompress(packed)
			require.NoError(t, err)
			assert.Equal(t, archive, got)
		})
	}
}

func TestIsCompressed(t *testing.T) {
	t.Parallel()

	assert.False(t, IsCompressed(testArchive(t)))
	assert.False(t, IsCompressed(nil))
}

func TestCompress_RejectsInvalidArchive(t *testing.T) {
	t.Parallel()

	_, err := Compress([]byte("definitely not an archive"))
	require.ErrorIs(t, err, ErrFormat)
}

func TestDecompress_Errors(t *testing.T) {
	t.Parallel()

	archive := testArchive(t)
	packed, err := Compress(archive)
	require.NoError(t, err)

	t.Run("not a frame", func(t *testing.T) {
		t.Parallel()
		_, err := Decompress(archive)
		require.ErrorIs(t, err, ErrDecompression)
	})

	t.Run("truncated frame", func(t *testing.T) {
		t.Parallel()
		_, err := Decompress(packed[:len(packed)/2])
		require.Error(t, err)
	})

	t.Run("max size", func(t *testing.T) {
		t.Parallel()
		_, err := Decompress(packed, DecompressWithMaxSize(64))
		require.ErrorIs(t, err, ErrSizeOverflow)
	})

	t.Run("unlimited size", func(t *testing.T) {
		t.Parallel()
		got, err := Decompress(packed, DecompressWithMaxSize(0), DecompressWithLowmem(true))
		require.NoError(t, err)
		assert.Equal(t, archive, got)
	})

	t.Run("frame without archive", func(t *testing.T) {
		t.Parallel()
		enc, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		frame := enc.EncodeAll([]byte("plain text, no magic tag here"), nil)
		require.NoError(t, enc.Close())

		_, err = Decompress(frame)
		require.ErrorIs(t, err, ErrFormat)
	})
}
