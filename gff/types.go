package gff

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/modforge/gffkit/errors"
)

// ResRef is a resource name of at most 16 bytes. Equality is
// case-insensitive; the stored case is preserved for emission.
type ResRef struct {
	name string
}

// BlankResRef is the empty resource name. It is a frozen value constant;
// copying it never aliases state.
var BlankResRef = ResRef{}

// NewResRef builds a ResRef, rejecting over-length names.
func NewResRef(name string) (ResRef, error) {
	if len(name) > MaxResRefLen {
		return ResRef{}, errors.InvalidData(errors.PhaseEncode, nil,
			fmt.Sprintf("resref %q exceeds %d bytes", name, MaxResRefLen))
	}
	return ResRef{name: name}, nil
}

// String returns the stored name.
func (r ResRef) String() string { return r.name }

// Equal compares resource names case-insensitively.
func (r ResRef) Equal(other ResRef) bool {
	return strings.EqualFold(r.name, other.name)
}

// LocSub is one language/gender variant of a localized string.
// ID encodes language*2 + gender.
type LocSub struct {
	ID   uint32
	Text string
}

// LocString is a localized text value: an optional external string-table
// reference (-1 means none) plus any number of literal substrings.
type LocString struct {
	StringRef int32
	Subs      []LocSub
}

// NewLocString returns a LocString with no string-table reference.
func NewLocString() LocString {
	return LocString{StringRef: -1}
}

// Sub returns the text for a language/gender id.
func (l LocString) Sub(id uint32) (string, bool) {
	for _, s := range l.Subs {
		if s.ID == id {
			return s.Text, true
		}
	}
	return "", false
}

// SetSub adds or replaces the text for a language/gender id.
func (l *LocString) SetSub(id uint32, text string) {
	for i := range l.Subs {
		if l.Subs[i].ID == id {
			l.Subs[i].Text = text
			return
		}
	}
	l.Subs = append(l.Subs, LocSub{ID: id, Text: text})
}

// Equal compares stringref and the substring set (order-insensitive).
func (l LocString) Equal(other LocString) bool {
	if l.StringRef != other.StringRef || len(l.Subs) != len(other.Subs) {
		return false
	}
	for _, s := range l.Subs {
		t, ok := other.Sub(s.ID)
		if !ok || t != s.Text {
			return false
		}
	}
	return true
}

// Value is a field value: a closed tagged union over the 18 wire shapes.
// The zero Value is invalid; build values with the typed constructors.
type Value struct {
	typ FieldType

	intVal   int64   // Char, Short, Int, Int64
	uintVal  uint64  // Byte, Word, Dword, Dword64
	floatVal float64 // Float, Double
	strVal   string  // String
	resVal   ResRef
	locVal   LocString
	dataVal  []byte     // Void
	vecVal   [4]float32 // Vector uses [0:3], Orientation all four

	structVal *Struct
	listVal   *List
}

// Typed constructors.

// Byte creates a Byte (uint8) value.
func Byte(v uint8) Value { return Value{typ: FieldByte, uintVal: uint64(v)} }

// Char creates a Char (int8) value.
func Char(v int8) Value { return Value{typ: FieldChar, intVal: int64(v)} }

// Word creates a Word (uint16) value.
func Word(v uint16) Value { return Value{typ: FieldWord, uintVal: uint64(v)} }

// Short creates a Short (int16) value.
func Short(v int16) Value { return Value{typ: FieldShort, intVal: int64(v)} }

// Dword creates a Dword (uint32) value.
func Dword(v uint32) Value { return Value{typ: FieldDword, uintVal: uint64(v)} }

// Int creates an Int (int32) value.
func Int(v int32) Value { return Value{typ: FieldInt, intVal: int64(v)} }

// Dword64 creates a Dword64 (uint64) value.
func Dword64(v uint64) Value { return Value{typ: FieldDword64, uintVal: v} }

// Int64 creates an Int64 value.
func Int64(v int64) Value { return Value{typ: FieldInt64, intVal: v} }

// Float creates a Float (float32) value.
func Float(v float32) Value { return Value{typ: FieldFloat, floatVal: float64(v)} }

// Double creates a Double (float64) value.
func Double(v float64) Value { return Value{typ: FieldDouble, floatVal: v} }

// Str creates a String value.
func Str(v string) Value { return Value{typ: FieldString, strVal: v} }

// Res creates a ResRef value.
func Res(v ResRef) Value { return Value{typ: FieldResRef, resVal: v} }

// Loc creates a LocString value.
func Loc(v LocString) Value { return Value{typ: FieldLocString, locVal: v} }

// Void creates a binary blob value. The slice is not copied.
func Void(v []byte) Value { return Value{typ: FieldVoid, dataVal: v} }

// Vector creates a 3-component vector value.
func Vector(x, y, z float32) Value {
	return Value{typ: FieldVector, vecVal: [4]float32{x, y, z, 0}}
}

// Orientation creates a 4-component vector value.
func Orientation(a, b, c, d float32) Value {
	return Value{typ: FieldOrientation, vecVal: [4]float32{a, b, c, d}}
}

// StructVal wraps a Struct as a field value. The struct is owned by the
// field after the call.
func StructVal(s *Struct) Value { return Value{typ: FieldStruct, structVal: s} }

// ListVal wraps a List as a field value. The list is owned by the field
// after the call.
func ListVal(l *List) Value { return Value{typ: FieldList, listVal: l} }

// Type returns the value's field type.
func (v Value) Type() FieldType { return v.typ }

// Typed accessors. Each returns an error on type mismatch; there are no
// silent widenings or narrowings.

func (v Value) typeErr(want FieldType) error {
	return errors.TypeMismatch(errors.PhaseDecode, nil, want.String(), v.typ.String())
}

// AsByte returns the uint8 value.
func (v Value) AsByte() (uint8, error) {
	if v.typ != FieldByte {
		return 0, v.typeErr(FieldByte)
	}
	return uint8(v.uintVal), nil
}

// AsChar returns the int8 value.
func (v Value) AsChar() (int8, error) {
	if v.typ != FieldChar {
		return 0, v.typeErr(FieldChar)
	}
	return int8(v.intVal), nil
}

// AsWord returns the uint16 value.
func (v Value) AsWord() (uint16, error) {
	if v.typ != FieldWord {
		return 0, v.typeErr(FieldWord)
	}
	return uint16(v.uintVal), nil
}

// AsShort returns the int16 value.
func (v Value) AsShort() (int16, error) {
	if v.typ != FieldShort {
		return 0, v.typeErr(FieldShort)
	}
	return int16(v.intVal), nil
}

// AsDword returns the uint32 value.
func (v Value) AsDword() (uint32, error) {
	if v.typ != FieldDword {
		return 0, v.typeErr(FieldDword)
	}
	return uint32(v.uintVal), nil
}

// AsInt returns the int32 value.
func (v Value) AsInt() (int32, error) {
	if v.typ != FieldInt {
		return 0, v.typeErr(FieldInt)
	}
	return int32(v.intVal), nil
}

// AsDword64 returns the uint64 value.
func (v Value) AsDword64() (uint64, error) {
	if v.typ != FieldDword64 {
		return 0, v.typeErr(FieldDword64)
	}
	return v.uintVal, nil
}

// AsInt64 returns the int64 value.
func (v Value) AsInt64() (int64, error) {
	if v.typ != FieldInt64 {
		return 0, v.typeErr(FieldInt64)
	}
	return v.intVal, nil
}

// AsFloat returns the float32 value.
func (v Value) AsFloat() (float32, error) {
	if v.typ != FieldFloat {
		return 0, v.typeErr(FieldFloat)
	}
	return float32(v.floatVal), nil
}

// AsDouble returns the float64 value.
func (v Value) AsDouble() (float64, error) {
	if v.typ != FieldDouble {
		return 0, v.typeErr(FieldDouble)
	}
	return v.floatVal, nil
}

// AsString returns the string value.
func (v Value) AsString() (string, error) {
	if v.typ != FieldString {
		return "", v.typeErr(FieldString)
	}
	return v.strVal, nil
}

// AsResRef returns the resource name.
func (v Value) AsResRef() (ResRef, error) {
	if v.typ != FieldResRef {
		return ResRef{}, v.typeErr(FieldResRef)
	}
	return v.resVal, nil
}

// AsLocString returns the localized text value.
func (v Value) AsLocString() (LocString, error) {
	if v.typ != FieldLocString {
		return LocString{}, v.typeErr(FieldLocString)
	}
	return v.locVal, nil
}

// AsVoid returns the binary blob.
func (v Value) AsVoid() ([]byte, error) {
	if v.typ != FieldVoid {
		return nil, v.typeErr(FieldVoid)
	}
	return v.dataVal, nil
}

// AsVector returns the 3 vector components.
func (v Value) AsVector() ([3]float32, error) {
	if v.typ != FieldVector {
		return [3]float32{}, v.typeErr(FieldVector)
	}
	return [3]float32{v.vecVal[0], v.vecVal[1], v.vecVal[2]}, nil
}

// AsOrientation returns the 4 vector components.
func (v Value) AsOrientation() ([4]float32, error) {
	if v.typ != FieldOrientation {
		return [4]float32{}, v.typeErr(FieldOrientation)
	}
	return v.vecVal, nil
}

// AsStruct returns the nested struct.
func (v Value) AsStruct() (*Struct, error) {
	if v.typ != FieldStruct {
		return nil, v.typeErr(FieldStruct)
	}
	return v.structVal, nil
}

// AsList returns the nested list.
func (v Value) AsList() (*List, error) {
	if v.typ != FieldList {
		return nil, v.typeErr(FieldList)
	}
	return v.listVal, nil
}

// Num returns a numeric view of integer, float, and stringref-bearing
// values. Used by token linkage to match literals against candidate rows.
func (v Value) Num() (float64, bool) {
	switch v.typ {
	case FieldByte, FieldWord, FieldDword, FieldDword64:
		return float64(v.uintVal), true
	case FieldChar, FieldShort, FieldInt, FieldInt64:
		return float64(v.intVal), true
	case FieldFloat, FieldDouble:
		return v.floatVal, true
	case FieldLocString:
		return float64(v.locVal.StringRef), true
	default:
		return 0, false
	}
}

// String renders the value in its patch-script literal form.
func (v Value) String() string {
	switch v.typ {
	case FieldByte, FieldWord, FieldDword, FieldDword64:
		return strconv.FormatUint(v.uintVal, 10)
	case FieldChar, FieldShort, FieldInt, FieldInt64:
		return strconv.FormatInt(v.intVal, 10)
	case FieldFloat:
		return strconv.FormatFloat(v.floatVal, 'g', -1, 32)
	case FieldDouble:
		return strconv.FormatFloat(v.floatVal, 'g', -1, 64)
	case FieldString:
		return v.strVal
	case FieldResRef:
		return v.resVal.String()
	case FieldLocString:
		return strconv.FormatInt(int64(v.locVal.StringRef), 10)
	case FieldVoid:
		return hex.EncodeToString(v.dataVal)
	case FieldVector:
		return fmt.Sprintf("%g|%g|%g", v.vecVal[0], v.vecVal[1], v.vecVal[2])
	case FieldOrientation:
		return fmt.Sprintf("%g|%g|%g|%g", v.vecVal[0], v.vecVal[1], v.vecVal[2], v.vecVal[3])
	case FieldStruct:
		return "<struct>"
	case FieldList:
		return "<list>"
	default:
		return "<invalid>"
	}
}

// Equal reports deep value equality: floats exact, resource names
// case-insensitive, everything else exact.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case FieldByte, FieldWord, FieldDword, FieldDword64:
		return v.uintVal == other.uintVal
	case FieldChar, FieldShort, FieldInt, FieldInt64:
		return v.intVal == other.intVal
	case FieldFloat, FieldDouble:
		return v.floatVal == other.floatVal
	case FieldString:
		return v.strVal == other.strVal
	case FieldResRef:
		return v.resVal.Equal(other.resVal)
	case FieldLocString:
		return v.locVal.Equal(other.locVal)
	case FieldVoid:
		return bytes.Equal(v.dataVal, other.dataVal)
	case FieldVector:
		return v.vecVal[0] == other.vecVal[0] && v.vecVal[1] == other.vecVal[1] &&
			v.vecVal[2] == other.vecVal[2]
	case FieldOrientation:
		return v.vecVal == other.vecVal
	case FieldStruct:
		return v.structVal.Equal(other.structVal)
	case FieldList:
		return v.listVal.Equal(other.listVal)
	default:
		return false
	}
}

// DefaultValue returns the zero value a round-tripping writer materializes
// for a field type.
func DefaultValue(t FieldType) Value {
	switch t {
	case FieldLocString:
		return Loc(NewLocString())
	case FieldStruct:
		return StructVal(NewStruct(0))
	case FieldList:
		return ListVal(NewList())
	default:
		return Value{typ: t}
	}
}

// IsDefault reports whether the value equals its type's default.
func (v Value) IsDefault() bool {
	return v.Equal(DefaultValue(v.typ))
}

// fieldEntry pairs a label with its value inside a struct.
type fieldEntry struct {
	label string
	value Value
}

// Struct is an ordered label-to-value mapping with an opaque engine tag.
// Labels are case-sensitive and unique; insertion order is preserved for
// emission but irrelevant to equality.
type Struct struct {
	id     uint32
	fields []fieldEntry
	index  map[string]int
}

// RootStructID is the conventional struct_id of a tree's root struct.
const RootStructID = 0xFFFFFFFF

// NewStruct creates an empty struct with the given engine tag.
func NewStruct(id uint32) *Struct {
	return &Struct{id: id, index: make(map[string]int)}
}

// ID returns the engine tag.
func (s *Struct) ID() uint32 { return s.id }

// SetID replaces the engine tag.
func (s *Struct) SetID(id uint32) { s.id = id }

// Len returns the number of fields.
func (s *Struct) Len() int { return len(s.fields) }

// Labels returns the field labels in insertion order.
func (s *Struct) Labels() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.label
	}
	return out
}

// Get returns the value under label. It never mutates the struct.
func (s *Struct) Get(label string) (Value, bool) {
	i, ok := s.index[label]
	if !ok {
		return Value{}, false
	}
	return s.fields[i].value, true
}

// Set creates or replaces the field under label, preserving insertion
// order on replacement.
func (s *Struct) Set(label string, v Value) error {
	if label == "" {
		return errors.InvalidData(errors.PhaseEncode, nil, "empty field label")
	}
	if len(label) > MaxLabelLen {
		return errors.LabelTooLong(errors.PhaseEncode, label)
	}
	if i, ok := s.index[label]; ok {
		s.fields[i].value = v
		return nil
	}
	s.index[label] = len(s.fields)
	s.fields = append(s.fields, fieldEntry{label: label, value: v})
	return nil
}

// Remove deletes the field under label, preserving the order of the rest.
func (s *Struct) Remove(label string) bool {
	i, ok := s.index[label]
	if !ok {
		return false
	}
	s.fields = append(s.fields[:i], s.fields[i+1:]...)
	delete(s.index, label)
	for j := i; j < len(s.fields); j++ {
		s.index[s.fields[j].label] = j
	}
	return true
}

// Field returns the i-th field in insertion order.
func (s *Struct) Field(i int) (string, Value) {
	f := s.fields[i]
	return f.label, f.value
}

// Non-mutating typed readers. Each returns def when the label is absent or
// holds a different type; reads never materialize fields.

// GetInt reads an Int field or returns def.
func (s *Struct) GetInt(label string, def int32) int32 {
	if v, ok := s.Get(label); ok {
		if n, err := v.AsInt(); err == nil {
			return n
		}
	}
	return def
}

// GetDword reads a Dword field or returns def.
func (s *Struct) GetDword(label string, def uint32) uint32 {
	if v, ok := s.Get(label); ok {
		if n, err := v.AsDword(); err == nil {
			return n
		}
	}
	return def
}

// GetByte reads a Byte field or returns def.
func (s *Struct) GetByte(label string, def uint8) uint8 {
	if v, ok := s.Get(label); ok {
		if n, err := v.AsByte(); err == nil {
			return n
		}
	}
	return def
}

// GetFloat reads a Float field or returns def.
func (s *Struct) GetFloat(label string, def float32) float32 {
	if v, ok := s.Get(label); ok {
		if n, err := v.AsFloat(); err == nil {
			return n
		}
	}
	return def
}

// GetString reads a String field or returns def.
func (s *Struct) GetString(label string, def string) string {
	if v, ok := s.Get(label); ok {
		if t, err := v.AsString(); err == nil {
			return t
		}
	}
	return def
}

// GetResRef reads a ResRef field or returns def.
func (s *Struct) GetResRef(label string, def ResRef) ResRef {
	if v, ok := s.Get(label); ok {
		if r, err := v.AsResRef(); err == nil {
			return r
		}
	}
	return def
}

// GetStruct reads a nested struct field.
func (s *Struct) GetStruct(label string) (*Struct, bool) {
	if v, ok := s.Get(label); ok {
		if c, err := v.AsStruct(); err == nil {
			return c, true
		}
	}
	return nil, false
}

// GetList reads a nested list field.
func (s *Struct) GetList(label string) (*List, bool) {
	if v, ok := s.Get(label); ok {
		if l, err := v.AsList(); err == nil {
			return l, true
		}
	}
	return nil, false
}

// Equal reports struct equality: same tag, same label set, equal values.
// Insertion order is not part of equality.
func (s *Struct) Equal(other *Struct) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.id != other.id || len(s.fields) != len(other.fields) {
		return false
	}
	for _, f := range s.fields {
		ov, ok := other.Get(f.label)
		if !ok || !f.value.Equal(ov) {
			return false
		}
	}
	return true
}

// List is an ordered sequence of structs. Mixed struct tags are allowed;
// order is semantically meaningful.
type List struct {
	elems []*Struct
}

// NewList creates an empty list.
func NewList() *List {
	return &List{}
}

// Len returns the element count.
func (l *List) Len() int { return len(l.elems) }

// At returns the i-th element.
func (l *List) At(i int) (*Struct, error) {
	if i < 0 || i >= len(l.elems) {
		return nil, errors.OutOfBounds(errors.PhaseApply, nil, i, len(l.elems))
	}
	return l.elems[i], nil
}

// Append adds a struct to the end and returns its index.
func (l *List) Append(s *Struct) int {
	l.elems = append(l.elems, s)
	return len(l.elems) - 1
}

// Structs returns the backing slice. Callers must not reorder it.
func (l *List) Structs() []*Struct { return l.elems }

// Equal reports element-wise list equality.
func (l *List) Equal(other *List) bool {
	if l == nil || other == nil {
		return l == other
	}
	if len(l.elems) != len(other.elems) {
		return false
	}
	for i, e := range l.elems {
		if !e.Equal(other.elems[i]) {
			return false
		}
	}
	return true
}

// Tree is a decoded GFF resource: one root struct plus the declared content
// kind and wire version. The tree exclusively owns its root.
type Tree struct {
	Content ContentType
	Version string
	Root    *Struct
}

// New creates an empty tree of the given content kind.
func New(content ContentType) *Tree {
	return &Tree{
		Content: content,
		Version: Version,
		Root:    NewStruct(RootStructID),
	}
}

// Equal reports full value equality of two trees.
func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Content == other.Content && t.Version == other.Version &&
		t.Root.Equal(other.Root)
}
