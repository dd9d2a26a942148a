package gff_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/modforge/gffkit/gff"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want gff.Format
	}{
		{"binary utc", []byte("UTC V3.2\x00\x00\x00\x00"), gff.FormatBinary},
		{"binary are", []byte("ARE V3.2 plus trailing bytes"), gff.FormatBinary},
		{"xml", []byte("<gff3><struct/></gff3>"), gff.FormatXML},
		{"xml leading whitespace", []byte("  \n\t<gff3>"), gff.FormatXML},
		{"zstd frame", []byte{0x28, 0xB5, 0x2F, 0xFD, 0x00, 0x00}, gff.FormatZstd},
		{"zeros", []byte{0, 0, 0, 0}, gff.FormatInvalid},
		{"unregistered magic", []byte("ZZZ V3.2"), gff.FormatInvalid},
		{"empty", nil, gff.FormatInvalid},
		{"plain text", []byte("hello world"), gff.FormatInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gff.Detect(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if got != tt.want {
				t.Errorf("Detect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectRestoresPosition(t *testing.T) {
	r := bytes.NewReader([]byte("UTC V3.2 and a long tail of resource bytes following the header area"))
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := gff.Detect(r); err != nil {
		t.Fatalf("Detect: %v", err)
	}
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		t.Fatal(err)
	}
	if pos != 0 {
		t.Errorf("position after Detect = %d, want 0", pos)
	}
}

func TestDetectFileIOErrors(t *testing.T) {
	// Missing file: the os error must come through untouched.
	_, err := gff.DetectFile(filepath.Join(t.TempDir(), "nope.utc"))
	if !os.IsNotExist(err) {
		t.Errorf("missing file error = %v, want not-exist", err)
	}

	// A directory is an I/O error, never FormatInvalid with nil error.
	dir := t.TempDir()
	_, err = gff.DetectFile(dir)
	if err == nil {
		t.Error("expected error detecting a directory")
	}
}

func TestFileRoundTrip(t *testing.T) {
	tree := gff.New(gff.ContentUTI)
	tree.Root.Set("StackSize", gff.Word(20))

	dir := t.TempDir()

	plain := filepath.Join(dir, "item.uti")
	if err := gff.EncodeFile(plain, tree); err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}
	back, err := gff.DecodeFile(plain)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if !tree.Equal(back) {
		t.Error("plain file round trip lost data")
	}
	if f, err := gff.DetectFile(plain); err != nil || f != gff.FormatBinary {
		t.Errorf("DetectFile = %v, %v", f, err)
	}

	// Compressed variant decodes transparently.
	packed := filepath.Join(dir, "item.uti.zst")
	if err := gff.EncodeFile(packed, tree); err != nil {
		t.Fatalf("EncodeFile zst: %v", err)
	}
	if f, err := gff.DetectFile(packed); err != nil || f != gff.FormatZstd {
		t.Errorf("DetectFile zst = %v, %v", f, err)
	}
	back, err = gff.DecodeFile(packed)
	if err != nil {
		t.Fatalf("DecodeFile zst: %v", err)
	}
	if !tree.Equal(back) {
		t.Error("compressed round trip lost data")
	}
}
