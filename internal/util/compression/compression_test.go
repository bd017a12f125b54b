package compression

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressors(t *testing.T) {
	markup := []byte(`<p>Hello</p>` + strings.Repeat(`<img src="a.png" style="width: 300px; height: auto;"/>`, 20))

	for _, name := range []string{"zstd", "gzip", "none"} {
		t.Run(name, func(t *testing.T) {
			c, err := ForName(name)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			packed, err := c.Compress(markup)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			if name != "none" && len(packed) >= len(markup) {
				t.Errorf("Expected repetitive markup to shrink, got %d >= %d bytes", len(packed), len(markup))
			}

			unpacked, err := c.Decompress(packed)
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			if !bytes.Equal(unpacked, markup) {
				t.Errorf("Expected %q, got %q", markup, unpacked)
			}
		})
	}
}

func TestForNameUnknown(t *testing.T) {
	if _, err := ForName("lz4"); err == nil {
		t.Error("Expected an error for an unknown compression")
	}
}

func TestDecompressGarbage(t *testing.T) {
	for _, c := range []Compressor{ZstdCompressor{}, GzipCompressor{}} {
		if _, err := c.Decompress([]byte("not compressed")); err == nil {
			t.Errorf("Expected %T to reject garbage", c)
		}
	}
}
