// Package compression holds the codecs draft markup is stored with.
package compression

import "fmt"

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// ForName returns the compressor configured under name.
func ForName(name string) (Compressor, error) {
	switch name {
	case "zstd", "":
		return ZstdCompressor{}, nil
	case "gzip":
		return GzipCompressor{}, nil
	case "none":
		return NoCompressor{}, nil
	}
	return nil, fmt.Errorf("unknown compression %q", name)
}

// NoCompressor stores data as is.
type NoCompressor struct{}

func (NoCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (NoCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
