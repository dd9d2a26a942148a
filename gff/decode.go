package gff

import (
	"math"

	"github.com/modforge/gffkit/errors"
	"github.com/modforge/gffkit/gff/internal/binary"
)

// header mirrors the fixed 56-byte wire header: magic, version, then six
// (offset, count) section descriptors. Data, field-index, and list-index
// counts are byte lengths; the others are entry counts.
type header struct {
	content ContentType
	version string

	structOff, structCount     uint32
	fieldOff, fieldCount       uint32
	labelOff, labelCount       uint32
	dataOff, dataCount         uint32
	fieldIdxOff, fieldIdxCount uint32
	listIdxOff, listIdxCount   uint32
}

// Decode parses a binary GFF resource into a Tree.
//
// The magic must name a registered content kind. Truncation and malformed
// table references are reported with the byte offset of the corruption;
// an unrecognized field type tag is fatal to the call.
func Decode(data []byte) (*Tree, error) {
	r := binary.NewReader(data)
	hdr, err := parseHeader(r)
	if err != nil {
		return nil, err
	}

	d := &decoder{
		r:       r,
		hdr:     hdr,
		reading: make(map[uint32]bool),
	}
	root, err := d.readStruct(0)
	if err != nil {
		return nil, err
	}

	return &Tree{
		Content: hdr.content,
		Version: hdr.version,
		Root:    root,
	}, nil
}

func parseHeader(r *binary.Reader) (header, error) {
	var h header

	magic, err := r.ReadBytes(4)
	if err != nil {
		return h, r.WrapError("header", err)
	}
	content, ok := ContentFromMagic(magic)
	if !ok {
		return h, errors.InvalidMagic(errors.PhaseDecode, magic)
	}
	h.content = content

	version, err := r.ReadBytes(4)
	if err != nil {
		return h, r.WrapError("header", err)
	}
	h.version = string(version)

	fields := []*uint32{
		&h.structOff, &h.structCount,
		&h.fieldOff, &h.fieldCount,
		&h.labelOff, &h.labelCount,
		&h.dataOff, &h.dataCount,
		&h.fieldIdxOff, &h.fieldIdxCount,
		&h.listIdxOff, &h.listIdxCount,
	}
	for _, f := range fields {
		v, err := r.ReadU32()
		if err != nil {
			return h, r.WrapError("header", err)
		}
		*f = v
	}

	if h.structCount == 0 {
		return h, errors.InvalidData(errors.PhaseDecode, nil, "no structs (missing root)")
	}
	return h, nil
}

type decoder struct {
	r   *binary.Reader
	hdr header

	// reading guards against struct-index cycles in hostile input; the
	// format itself cannot express aliasing.
	reading map[uint32]bool
}

func (d *decoder) readStruct(idx uint32) (*Struct, error) {
	if idx >= d.hdr.structCount {
		return nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Offset(int(d.hdr.structOff)).
			Detail("struct index %d out of range (%d structs)", idx, d.hdr.structCount).
			Build()
	}
	if d.reading[idx] {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "struct table contains a cycle")
	}
	d.reading[idx] = true
	defer delete(d.reading, idx)

	entryOff := int(d.hdr.structOff) + structEntrySize*int(idx)
	if err := d.r.Seek(entryOff); err != nil {
		return nil, err
	}
	id, err := d.r.ReadU32()
	if err != nil {
		return nil, d.r.WrapError("struct table", err)
	}
	dataOrOffset, err := d.r.ReadU32()
	if err != nil {
		return nil, d.r.WrapError("struct table", err)
	}
	fieldCount, err := d.r.ReadU32()
	if err != nil {
		return nil, d.r.WrapError("struct table", err)
	}

	s := NewStruct(id)
	switch fieldCount {
	case 0:
		// Field-less structs are legal (empty list templates).
	case 1:
		if err := d.readFieldInto(s, dataOrOffset); err != nil {
			return nil, err
		}
	default:
		// dataOrOffset is a byte offset into the field-indices block. The
		// count word comes straight off the wire; widen before multiplying
		// so a hostile count cannot wrap the bound and drive a huge
		// allocation.
		if uint64(dataOrOffset)+4*uint64(fieldCount) > uint64(d.hdr.fieldIdxCount) {
			return nil, errors.Truncated(errors.PhaseDecode,
				int(d.hdr.fieldIdxOff)+int(dataOrOffset), "field indices")
		}
		indices := make([]uint32, fieldCount)
		if err := d.r.Seek(int(d.hdr.fieldIdxOff + dataOrOffset)); err != nil {
			return nil, err
		}
		for i := range indices {
			fi, err := d.r.ReadU32()
			if err != nil {
				return nil, d.r.WrapError("field indices", err)
			}
			indices[i] = fi
		}
		for _, fi := range indices {
			if err := d.readFieldInto(s, fi); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func (d *decoder) readFieldInto(s *Struct, idx uint32) error {
	if idx >= d.hdr.fieldCount {
		return errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Offset(int(d.hdr.fieldOff)).
			Detail("field index %d out of range (%d fields)", idx, d.hdr.fieldCount).
			Build()
	}
	entryOff := int(d.hdr.fieldOff) + fieldEntrySize*int(idx)
	if err := d.r.Seek(entryOff); err != nil {
		return err
	}
	rawType, err := d.r.ReadU32()
	if err != nil {
		return d.r.WrapError("field table", err)
	}
	labelIdx, err := d.r.ReadU32()
	if err != nil {
		return d.r.WrapError("field table", err)
	}
	dataOrOffset, err := d.r.ReadU32()
	if err != nil {
		return d.r.WrapError("field table", err)
	}

	label, err := d.readLabel(labelIdx)
	if err != nil {
		return err
	}

	v, err := d.readValue(FieldType(rawType), dataOrOffset, entryOff)
	if err != nil {
		return err
	}
	if _, dup := s.Get(label); dup {
		return errors.DuplicateLabel(errors.PhaseDecode, nil, label)
	}
	return s.Set(label, v)
}

func (d *decoder) readLabel(idx uint32) (string, error) {
	if idx >= d.hdr.labelCount {
		return "", errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Offset(int(d.hdr.labelOff)).
			Detail("label index %d out of range (%d labels)", idx, d.hdr.labelCount).
			Build()
	}
	if err := d.r.Seek(int(d.hdr.labelOff) + labelEntrySize*int(idx)); err != nil {
		return "", err
	}
	raw, err := d.r.ReadBytes(labelEntrySize)
	if err != nil {
		return "", d.r.WrapError("label table", err)
	}
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	return string(raw[:n]), nil
}

// readValue decodes one field value. Simple scalars live inline in the
// field entry's data word; everything else is offset-addressed.
func (d *decoder) readValue(t FieldType, dataOrOffset uint32, entryOff int) (Value, error) {
	switch t {
	case FieldByte:
		return Byte(uint8(dataOrOffset)), nil
	case FieldChar:
		return Char(int8(dataOrOffset)), nil
	case FieldWord:
		return Word(uint16(dataOrOffset)), nil
	case FieldShort:
		return Short(int16(dataOrOffset)), nil
	case FieldDword:
		return Dword(dataOrOffset), nil
	case FieldInt:
		return Int(int32(dataOrOffset)), nil
	case FieldFloat:
		return Float(math.Float32frombits(dataOrOffset)), nil

	case FieldDword64:
		if err := d.seekData(dataOrOffset); err != nil {
			return Value{}, err
		}
		v, err := d.r.ReadU64()
		if err != nil {
			return Value{}, d.r.WrapError("field data", err)
		}
		return Dword64(v), nil
	case FieldInt64:
		if err := d.seekData(dataOrOffset); err != nil {
			return Value{}, err
		}
		v, err := d.r.ReadU64()
		if err != nil {
			return Value{}, d.r.WrapError("field data", err)
		}
		return Int64(int64(v)), nil
	case FieldDouble:
		if err := d.seekData(dataOrOffset); err != nil {
			return Value{}, err
		}
		v, err := d.r.ReadF64()
		if err != nil {
			return Value{}, d.r.WrapError("field data", err)
		}
		return Double(v), nil

	case FieldString:
		if err := d.seekData(dataOrOffset); err != nil {
			return Value{}, err
		}
		n, err := d.r.ReadU32()
		if err != nil {
			return Value{}, d.r.WrapError("field data", err)
		}
		b, err := d.r.ReadBytes(int(n))
		if err != nil {
			return Value{}, d.r.WrapError("string data", err)
		}
		return Str(string(b)), nil

	case FieldResRef:
		if err := d.seekData(dataOrOffset); err != nil {
			return Value{}, err
		}
		n, err := d.r.ReadU8()
		if err != nil {
			return Value{}, d.r.WrapError("field data", err)
		}
		if int(n) > MaxResRefLen {
			return Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Offset(d.r.Position()-1).
				Detail("resref length %d exceeds %d", n, MaxResRefLen).
				Build()
		}
		b, err := d.r.ReadBytes(int(n))
		if err != nil {
			return Value{}, d.r.WrapError("resref data", err)
		}
		res, err := NewResRef(string(b))
		if err != nil {
			return Value{}, err
		}
		return Res(res), nil

	case FieldLocString:
		return d.readLocString(dataOrOffset)

	case FieldVoid:
		if err := d.seekData(dataOrOffset); err != nil {
			return Value{}, err
		}
		n, err := d.r.ReadU32()
		if err != nil {
			return Value{}, d.r.WrapError("field data", err)
		}
		b, err := d.r.ReadBytes(int(n))
		if err != nil {
			return Value{}, d.r.WrapError("void data", err)
		}
		out := make([]byte, n)
		copy(out, b)
		return Void(out), nil

	case FieldVector:
		if err := d.seekData(dataOrOffset); err != nil {
			return Value{}, err
		}
		var c [3]float32
		for i := range c {
			f, err := d.r.ReadF32()
			if err != nil {
				return Value{}, d.r.WrapError("vector data", err)
			}
			c[i] = f
		}
		return Vector(c[0], c[1], c[2]), nil

	case FieldOrientation:
		if err := d.seekData(dataOrOffset); err != nil {
			return Value{}, err
		}
		var c [4]float32
		for i := range c {
			f, err := d.r.ReadF32()
			if err != nil {
				return Value{}, d.r.WrapError("orientation data", err)
			}
			c[i] = f
		}
		return Orientation(c[0], c[1], c[2], c[3]), nil

	case FieldStruct:
		// The data word is a struct index, not a byte offset.
		child, err := d.readStruct(dataOrOffset)
		if err != nil {
			return Value{}, err
		}
		return StructVal(child), nil

	case FieldList:
		return d.readList(dataOrOffset)

	default:
		return Value{}, errors.UnknownFieldType(errors.PhaseDecode, uint32(t), entryOff)
	}
}

func (d *decoder) readLocString(off uint32) (Value, error) {
	if err := d.seekData(off); err != nil {
		return Value{}, err
	}
	// Total size is redundant with the substring lengths; it is read and
	// ignored, matching the original reader.
	if _, err := d.r.ReadU32(); err != nil {
		return Value{}, d.r.WrapError("locstring data", err)
	}
	strref, err := d.r.ReadI32()
	if err != nil {
		return Value{}, d.r.WrapError("locstring data", err)
	}
	count, err := d.r.ReadU32()
	if err != nil {
		return Value{}, d.r.WrapError("locstring data", err)
	}

	loc := LocString{StringRef: strref}
	for i := uint32(0); i < count; i++ {
		id, err := d.r.ReadU32()
		if err != nil {
			return Value{}, d.r.WrapError("locstring substring", err)
		}
		n, err := d.r.ReadU32()
		if err != nil {
			return Value{}, d.r.WrapError("locstring substring", err)
		}
		b, err := d.r.ReadBytes(int(n))
		if err != nil {
			return Value{}, d.r.WrapError("locstring substring", err)
		}
		loc.Subs = append(loc.Subs, LocSub{ID: id, Text: string(b)})
	}
	return Loc(loc), nil
}

func (d *decoder) readList(off uint32) (Value, error) {
	if uint64(off)+4 > uint64(d.hdr.listIdxCount) {
		return Value{}, errors.Truncated(errors.PhaseDecode,
			int(d.hdr.listIdxOff)+int(off), "list indices")
	}
	if err := d.r.Seek(int(d.hdr.listIdxOff + off)); err != nil {
		return Value{}, err
	}
	count, err := d.r.ReadU32()
	if err != nil {
		return Value{}, d.r.WrapError("list indices", err)
	}
	// Wire-supplied count: bound it by the bytes actually left in the
	// list-indices block before allocating.
	if uint64(off)+4+4*uint64(count) > uint64(d.hdr.listIdxCount) {
		return Value{}, errors.Truncated(errors.PhaseDecode,
			int(d.hdr.listIdxOff)+int(off), "list indices")
	}
	indices := make([]uint32, count)
	for i := range indices {
		si, err := d.r.ReadU32()
		if err != nil {
			return Value{}, d.r.WrapError("list indices", err)
		}
		indices[i] = si
	}

	l := NewList()
	for _, si := range indices {
		child, err := d.readStruct(si)
		if err != nil {
			return Value{}, err
		}
		l.Append(child)
	}
	return ListVal(l), nil
}

// seekData positions the reader at an offset inside the field-data block.
func (d *decoder) seekData(off uint32) error {
	if off >= d.hdr.dataCount {
		return errors.Truncated(errors.PhaseDecode, int(d.hdr.dataOff+off), "field data")
	}
	return d.r.Seek(int(d.hdr.dataOff + off))
}
