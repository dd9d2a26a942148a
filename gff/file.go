package gff

import (
	"bytes"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// DecodeFile reads and decodes a binary resource from disk. Inputs wrapped
// in a zstd frame (mod archives commonly ship .gff.zst) are decompressed
// transparently. Filesystem errors propagate as returned by the os package.
func DecodeFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) >= 4 && bytes.Equal(data[:4], zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, err
		}
	}
	return Decode(data)
}

// EncodeFile encodes a tree and writes it to disk. A path ending in .zst
// is written as a zstd frame.
func EncodeFile(path string, t *Tree) error {
	data, err := Encode(t)
	if err != nil {
		return err
	}
	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return err
		}
		data = enc.EncodeAll(data, nil)
		if err := enc.Close(); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// DetectFile opens a file and classifies its format. Open and read errors
// (missing file, permission denied, path is a directory) propagate
// unchanged, never reinterpreted as FormatInvalid.
func DetectFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatInvalid, err
	}
	defer f.Close()
	return Detect(f)
}
