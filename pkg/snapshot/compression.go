package snapshot

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// blobCompressor wraps a zstd encoder/decoder pair, trimmed from the
// teacher's pkg/storage/compression.go Compressor down to whole-blob
// compression: the debug archiver has no delta-encodable numeric
// series to exploit, just a JSON dump to shrink before it hits disk.
type blobCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newBlobCompressor() (*blobCompressor, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &blobCompressor{encoder: encoder, decoder: decoder}, nil
}

func (c *blobCompressor) compress(data []byte) []byte {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)))
}

func (c *blobCompressor) decompress(data []byte) ([]byte, error) {
	out, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}
	return out, nil
}

func (c *blobCompressor) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}
