package gff

import "strings"

// Version is the only wire version this codec produces. Decoding accepts
// whatever version string the header carries and preserves it.
const Version = "V3.2"

// ContentType identifies a resource kind by its 4-character magic.
// The magic is stored space-padded on the wire ("UTC ").
type ContentType string

// Known resource kinds. The set gates format detection and decode-time
// magic validation; it has no influence on layout.
const (
	ContentARE ContentType = "ARE" // area static geometry
	ContentBIC ContentType = "BIC" // player character file
	ContentDLG ContentType = "DLG" // dialogue
	ContentFAC ContentType = "FAC" // faction table
	ContentGFF ContentType = "GFF" // generic resource
	ContentGIT ContentType = "GIT" // area dynamic instance lists
	ContentGUI ContentType = "GUI" // interface layout
	ContentIFO ContentType = "IFO" // module info
	ContentJRL ContentType = "JRL" // journal
	ContentNFO ContentType = "NFO" // save metadata
	ContentPTH ContentType = "PTH" // path information
	ContentUTC ContentType = "UTC" // creature template
	ContentUTD ContentType = "UTD" // door template
	ContentUTE ContentType = "UTE" // encounter template
	ContentUTI ContentType = "UTI" // item template
	ContentUTM ContentType = "UTM" // merchant template
	ContentUTP ContentType = "UTP" // placeable template
	ContentUTS ContentType = "UTS" // sound template
	ContentUTT ContentType = "UTT" // trigger template
	ContentUTW ContentType = "UTW" // waypoint template
)

var knownContent = map[ContentType]bool{
	ContentARE: true, ContentBIC: true, ContentDLG: true, ContentFAC: true,
	ContentGFF: true, ContentGIT: true, ContentGUI: true, ContentIFO: true,
	ContentJRL: true, ContentNFO: true, ContentPTH: true, ContentUTC: true,
	ContentUTD: true, ContentUTE: true, ContentUTI: true, ContentUTM: true,
	ContentUTP: true, ContentUTS: true, ContentUTT: true, ContentUTW: true,
}

// KnownContent reports whether c is a registered resource kind.
func KnownContent(c ContentType) bool {
	return knownContent[c]
}

// ContentFromMagic maps a raw 4-byte magic to a registered ContentType.
func ContentFromMagic(magic []byte) (ContentType, bool) {
	if len(magic) < 4 {
		return "", false
	}
	c := ContentType(strings.TrimRight(string(magic[:4]), " "))
	return c, knownContent[c]
}

// magic returns the space-padded 4-byte wire form.
func (c ContentType) magic() []byte {
	b := []byte("    ")
	copy(b, c)
	return b[:4]
}

// FieldType is the wire tag of a field's value shape.
type FieldType uint32

const (
	FieldByte        FieldType = 0  // uint8
	FieldChar        FieldType = 1  // int8
	FieldWord        FieldType = 2  // uint16
	FieldShort       FieldType = 3  // int16
	FieldDword       FieldType = 4  // uint32
	FieldInt         FieldType = 5  // int32
	FieldDword64     FieldType = 6  // uint64
	FieldInt64       FieldType = 7  // int64
	FieldFloat       FieldType = 8  // float32
	FieldDouble      FieldType = 9  // float64
	FieldString      FieldType = 10 // length-prefixed byte string
	FieldResRef      FieldType = 11 // resource name, max 16 bytes
	FieldLocString   FieldType = 12 // localized text
	FieldVoid        FieldType = 13 // raw binary blob
	FieldStruct      FieldType = 14 // nested struct
	FieldList        FieldType = 15 // ordered struct list
	FieldOrientation FieldType = 16 // 4-component vector
	FieldVector      FieldType = 17 // 3-component vector
)

// String returns the type name used in patch scripts and diff reports.
func (t FieldType) String() string {
	switch t {
	case FieldByte:
		return "Byte"
	case FieldChar:
		return "Char"
	case FieldWord:
		return "Word"
	case FieldShort:
		return "Short"
	case FieldDword:
		return "Dword"
	case FieldInt:
		return "Int"
	case FieldDword64:
		return "Dword64"
	case FieldInt64:
		return "Int64"
	case FieldFloat:
		return "Float"
	case FieldDouble:
		return "Double"
	case FieldString:
		return "String"
	case FieldResRef:
		return "ResRef"
	case FieldLocString:
		return "LocString"
	case FieldVoid:
		return "Void"
	case FieldStruct:
		return "Struct"
	case FieldList:
		return "List"
	case FieldOrientation:
		return "Orientation"
	case FieldVector:
		return "Vector"
	default:
		return "Unknown"
	}
}

// FieldTypeFromName is the inverse of FieldType.String, used by the patch
// script parser.
func FieldTypeFromName(name string) (FieldType, bool) {
	for t := FieldByte; t <= FieldVector; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// MaxLabelLen is the wire limit for field labels.
const MaxLabelLen = 16

// MaxResRefLen is the wire limit for resource names.
const MaxResRefLen = 16

// header layout: magic(4) + version(4) + six (offset,count) u32 pairs.
const headerSize = 56

const (
	structEntrySize = 12
	fieldEntrySize  = 12
	labelEntrySize  = 16
)
