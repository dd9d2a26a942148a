package gff

import (
	"bytes"
	"errors"
	"io"
	"unicode"
)

// Format is the result of source-format detection.
type Format int

const (
	FormatInvalid Format = iota
	FormatBinary         // GFF wire format, magic is a registered content kind
	FormatXML            // companion textual mirror
	FormatZstd           // zstd frame wrapping a binary resource
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatXML:
		return "xml"
	case FormatZstd:
		return "zstd"
	default:
		return "invalid"
	}
}

// zstd frame magic, little-endian 0xFD2FB528.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// detectPeek bounds how far detection looks into the source.
const detectPeek = 64

// Detect inspects the first bytes of a source and classifies it.
//
// A registered content magic means binary; a leading '<' after optional
// whitespace means the XML mirror; a zstd frame is reported as such so the
// caller can decompress and detect again. Anything else is invalid.
//
// Detection reads at most 64 bytes. On an io.Seeker the read position is
// restored before returning. I/O errors propagate unchanged and are never
// reported as FormatInvalid.
func Detect(r io.Reader) (Format, error) {
	if s, ok := r.(io.Seeker); ok {
		pos, err := s.Seek(0, io.SeekCurrent)
		if err != nil {
			return FormatInvalid, err
		}
		defer s.Seek(pos, io.SeekStart)
	}

	buf := make([]byte, detectPeek)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return FormatInvalid, err
	}
	return detectBytes(buf[:n]), nil
}

func detectBytes(b []byte) Format {
	if len(b) >= 4 {
		if bytes.Equal(b[:4], zstdMagic) {
			return FormatZstd
		}
		if _, ok := ContentFromMagic(b[:4]); ok {
			return FormatBinary
		}
	}
	for _, c := range b {
		if unicode.IsSpace(rune(c)) {
			continue
		}
		if c == '<' {
			return FormatXML
		}
		break
	}
	return FormatInvalid
}
