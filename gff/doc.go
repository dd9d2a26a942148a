// Package gff provides parsing and encoding of the BioWare GFF binary
// format: a tree of structs, lists, and typed fields used by Aurora-engine
// resource files (creature/door/item templates, areas, dialogues, module
// info and the rest).
//
// # Data model
//
// A Tree holds one root Struct plus the declared content kind and wire
// version. A Struct is an opaque 32-bit engine tag and an ordered mapping
// from label (at most 16 bytes, case-sensitive) to field value. A List is
// an ordered sequence of Structs. Field values are a closed union over the
// 18 wire shapes: 8/16/32/64-bit integers of both signednesses, single and
// double floats, strings, resource names, localized text, raw blobs,
// 3- and 4-component vectors, and nested structs and lists.
//
// Values are built with typed constructors and read with typed accessors;
// there are no silent coercions:
//
//	s := gff.NewStruct(0)
//	s.Set("GuaranteedCount", gff.Int(3))
//	n := s.GetInt("GuaranteedCount", 0) // non-mutating read with default
//
// # Wire format
//
// Little-endian: a 4-byte content magic and a 4-byte version, then six
// (offset, count) section descriptors followed by the sections themselves:
// struct table, field table, label table, field data, field indices, list
// indices. Scalars of four bytes or fewer are stored inline in the field
// entry; wider and variable-length payloads are offset-addressed into the
// field-data block.
//
// # Parsing and encoding
//
//	tree, err := gff.Decode(data)
//	out, err := gff.Encode(tree)
//
// Decode followed by Encode of the result is byte-identical for buffers
// this encoder produced, and Encode followed by Decode is value-identity
// for every representable tree.
//
// Format errors (bad magic, truncation, unknown field type, over-length
// label) are fatal to the single call and carry the byte offset of the
// corruption. Filesystem errors from the file-level helpers propagate
// unchanged.
//
// # Detection
//
// Detect classifies a source as binary GFF, the companion XML mirror, a
// zstd-wrapped resource, or invalid, peeking at most 64 bytes and
// restoring the position of seekable sources.
package gff
