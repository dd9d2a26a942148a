package gff

import (
	"math"

	"github.com/modforge/gffkit/errors"
	"github.com/modforge/gffkit/gff/internal/binary"
)

// Encode serializes a tree to its binary form.
//
// Pass one walks the tree in pre-order, assigning struct indices, interning
// labels in first-seen order, and laying out the field-data, field-indices,
// and list-indices blocks. Pass two emits the header and the six sections
// at the computed offsets. Encode(t) followed by Decode is value-identity,
// and re-encoding a decoded buffer reproduces this encoder's canonical
// layout byte for byte.
func Encode(t *Tree) ([]byte, error) {
	if t == nil || t.Root == nil {
		return nil, errors.InvalidData(errors.PhaseEncode, nil, "nil tree")
	}

	e := &encoder{
		labelIdx: make(map[string]uint32),
		data:     binary.NewWriter(),
		fieldIdx: binary.NewWriter(),
		listIdx:  binary.NewWriter(),
	}
	if _, err := e.encodeStruct(t.Root); err != nil {
		return nil, err
	}
	return e.emit(t), nil
}

type structEnc struct {
	id           uint32
	dataOrOffset uint32
	fieldCount   uint32
}

type fieldEnc struct {
	typ          uint32
	labelIdx     uint32
	dataOrOffset uint32
}

type encoder struct {
	structs  []structEnc
	fields   []fieldEnc
	labels   []string
	labelIdx map[string]uint32

	data     *binary.Writer // field-data block
	fieldIdx *binary.Writer // field-indices block
	listIdx  *binary.Writer // list-indices block
}

func (e *encoder) encodeStruct(s *Struct) (uint32, error) {
	idx := uint32(len(e.structs))
	e.structs = append(e.structs, structEnc{id: s.ID()})

	indices := make([]uint32, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		label, v := s.Field(i)
		fi, err := e.encodeField(label, v)
		if err != nil {
			return 0, err
		}
		indices = append(indices, fi)
	}

	entry := &e.structs[idx]
	entry.fieldCount = uint32(len(indices))
	switch len(indices) {
	case 0:
		// No field reference; the data word is unused.
	case 1:
		entry.dataOrOffset = indices[0]
	default:
		entry.dataOrOffset = uint32(e.fieldIdx.Len())
		for _, fi := range indices {
			e.fieldIdx.WriteU32(fi)
		}
	}
	return idx, nil
}

func (e *encoder) encodeField(label string, v Value) (uint32, error) {
	if label == "" || len(label) > MaxLabelLen {
		return 0, errors.LabelTooLong(errors.PhaseEncode, label)
	}
	li, ok := e.labelIdx[label]
	if !ok {
		li = uint32(len(e.labels))
		e.labelIdx[label] = li
		e.labels = append(e.labels, label)
	}

	data, err := e.encodeValue(v)
	if err != nil {
		return 0, err
	}

	fi := uint32(len(e.fields))
	e.fields = append(e.fields, fieldEnc{
		typ:          uint32(v.Type()),
		labelIdx:     li,
		dataOrOffset: data,
	})
	return fi, nil
}

// encodeValue returns the field entry's data word: the value itself for
// simple scalars, a struct index for nested structs, otherwise a byte
// offset into the field-data or list-indices block.
func (e *encoder) encodeValue(v Value) (uint32, error) {
	switch v.Type() {
	case FieldByte:
		b, _ := v.AsByte()
		return uint32(b), nil
	case FieldChar:
		c, _ := v.AsChar()
		return uint32(uint8(c)), nil
	case FieldWord:
		w, _ := v.AsWord()
		return uint32(w), nil
	case FieldShort:
		s, _ := v.AsShort()
		return uint32(uint16(s)), nil
	case FieldDword:
		d, _ := v.AsDword()
		return d, nil
	case FieldInt:
		n, _ := v.AsInt()
		return uint32(n), nil
	case FieldFloat:
		f, _ := v.AsFloat()
		return math.Float32bits(f), nil

	case FieldDword64:
		off := uint32(e.data.Len())
		n, _ := v.AsDword64()
		e.data.WriteU64(n)
		return off, nil
	case FieldInt64:
		off := uint32(e.data.Len())
		n, _ := v.AsInt64()
		e.data.WriteU64(uint64(n))
		return off, nil
	case FieldDouble:
		off := uint32(e.data.Len())
		f, _ := v.AsDouble()
		e.data.WriteF64(f)
		return off, nil

	case FieldString:
		off := uint32(e.data.Len())
		s, _ := v.AsString()
		e.data.WriteU32(uint32(len(s)))
		e.data.WriteBytes([]byte(s))
		return off, nil

	case FieldResRef:
		off := uint32(e.data.Len())
		r, _ := v.AsResRef()
		name := r.String()
		e.data.WriteU8(uint8(len(name)))
		e.data.WriteBytes([]byte(name))
		return off, nil

	case FieldLocString:
		off := uint32(e.data.Len())
		loc, _ := v.AsLocString()
		total := uint32(8) // stringref + count
		for _, sub := range loc.Subs {
			total += 8 + uint32(len(sub.Text))
		}
		e.data.WriteU32(total)
		e.data.WriteI32(loc.StringRef)
		e.data.WriteU32(uint32(len(loc.Subs)))
		for _, sub := range loc.Subs {
			e.data.WriteU32(sub.ID)
			e.data.WriteU32(uint32(len(sub.Text)))
			e.data.WriteBytes([]byte(sub.Text))
		}
		return off, nil

	case FieldVoid:
		off := uint32(e.data.Len())
		b, _ := v.AsVoid()
		e.data.WriteU32(uint32(len(b)))
		e.data.WriteBytes(b)
		return off, nil

	case FieldVector:
		off := uint32(e.data.Len())
		c, _ := v.AsVector()
		for _, f := range c {
			e.data.WriteF32(f)
		}
		return off, nil

	case FieldOrientation:
		off := uint32(e.data.Len())
		c, _ := v.AsOrientation()
		for _, f := range c {
			e.data.WriteF32(f)
		}
		return off, nil

	case FieldStruct:
		child, _ := v.AsStruct()
		return e.encodeStruct(child)

	case FieldList:
		l, _ := v.AsList()
		indices := make([]uint32, 0, l.Len())
		for _, child := range l.Structs() {
			ci, err := e.encodeStruct(child)
			if err != nil {
				return 0, err
			}
			indices = append(indices, ci)
		}
		off := uint32(e.listIdx.Len())
		e.listIdx.WriteU32(uint32(len(indices)))
		for _, ci := range indices {
			e.listIdx.WriteU32(ci)
		}
		return off, nil

	default:
		return 0, errors.New(errors.PhaseEncode, errors.KindUnknownFieldType).
			Detail("cannot encode value of type %s", v.Type()).
			Build()
	}
}

// emit lays the six sections out after the header in wire order: structs,
// fields, labels, field data, field indices, list indices.
func (e *encoder) emit(t *Tree) []byte {
	structOff := uint32(headerSize)
	fieldOff := structOff + uint32(len(e.structs)*structEntrySize)
	labelOff := fieldOff + uint32(len(e.fields)*fieldEntrySize)
	dataOff := labelOff + uint32(len(e.labels)*labelEntrySize)
	fieldIdxOff := dataOff + uint32(e.data.Len())
	listIdxOff := fieldIdxOff + uint32(e.fieldIdx.Len())

	w := binary.NewWriter()
	w.WriteBytes(t.Content.magic())
	version := t.Version
	if version == "" {
		version = Version
	}
	vb := []byte("    ")
	copy(vb, version)
	w.WriteBytes(vb[:4])

	w.WriteU32(structOff)
	w.WriteU32(uint32(len(e.structs)))
	w.WriteU32(fieldOff)
	w.WriteU32(uint32(len(e.fields)))
	w.WriteU32(labelOff)
	w.WriteU32(uint32(len(e.labels)))
	w.WriteU32(dataOff)
	w.WriteU32(uint32(e.data.Len()))
	w.WriteU32(fieldIdxOff)
	w.WriteU32(uint32(e.fieldIdx.Len()))
	w.WriteU32(listIdxOff)
	w.WriteU32(uint32(e.listIdx.Len()))

	for _, s := range e.structs {
		w.WriteU32(s.id)
		w.WriteU32(s.dataOrOffset)
		w.WriteU32(s.fieldCount)
	}
	for _, f := range e.fields {
		w.WriteU32(f.typ)
		w.WriteU32(f.labelIdx)
		w.WriteU32(f.dataOrOffset)
	}
	for _, label := range e.labels {
		w.WriteLabel(label)
	}
	w.WriteBytes(e.data.Bytes())
	w.WriteBytes(e.fieldIdx.Bytes())
	w.WriteBytes(e.listIdx.Bytes())

	return w.Bytes()
}
