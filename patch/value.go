package patch

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/modforge/gffkit/errors"
	"github.com/modforge/gffkit/gff"
)

type exprKind int

const (
	exprLiteral exprKind = iota
	exprRaw
	exprTableToken
	exprStrrefToken
	exprAddress
	exprListIndex
)

// ValueExpr is the right-hand side of a field mutation. It is either a
// literal, a token reference resolved through the run's TokenStore, a
// stored tree address re-read at apply time, or the ListIndex placeholder.
type ValueExpr struct {
	kind  exprKind
	lit   gff.Value
	raw   string
	token int
	addr  Path
}

// Literal wraps an already-typed value.
func Literal(v gff.Value) ValueExpr { return ValueExpr{kind: exprLiteral, lit: v} }

// RawLiteral wraps an untyped script literal, parsed against the
// destination field type at apply time.
func RawLiteral(s string) ValueExpr { return ValueExpr{kind: exprRaw, raw: s} }

// TableToken references a table token by id.
func TableToken(id int) ValueExpr { return ValueExpr{kind: exprTableToken, token: id} }

// StrrefToken references a talk table token by id.
func StrrefToken(id int) ValueExpr { return ValueExpr{kind: exprStrrefToken, token: id} }

// FieldAddress reads the value at a tree path when the expression is
// resolved.
func FieldAddress(p Path) ValueExpr { return ValueExpr{kind: exprAddress, addr: p} }

// ListIndexValue resolves to the index of the list element currently
// being built.
func ListIndexValue() ValueExpr { return ValueExpr{kind: exprListIndex} }

// IsTableToken reports whether the expression is a table token reference,
// and which one.
func (e ValueExpr) IsTableToken() (int, bool) {
	return e.token, e.kind == exprTableToken
}

// LiteralValue reports the typed literal behind the expression, if any.
func (e ValueExpr) LiteralValue() (gff.Value, bool) {
	return e.lit, e.kind == exprLiteral
}

// scriptForm renders the expression the way it appears in a patch script.
func (e ValueExpr) scriptForm() string {
	switch e.kind {
	case exprLiteral:
		return e.lit.String()
	case exprRaw:
		return e.raw
	case exprTableToken:
		return "TOKEN_TABLE#" + strconv.Itoa(e.token)
	case exprStrrefToken:
		return "TOKEN_STR#" + strconv.Itoa(e.token)
	case exprAddress:
		return e.addr.String()
	default:
		return ListIndexName
	}
}

// parseExpr recognizes token references and the ListIndex placeholder;
// anything else is a raw literal.
func parseExpr(s string) ValueExpr {
	if rest, ok := strings.CutPrefix(s, "TOKEN_TABLE#"); ok {
		if id, err := strconv.Atoi(rest); err == nil {
			return TableToken(id)
		}
	}
	if rest, ok := strings.CutPrefix(s, "TOKEN_STR#"); ok {
		if id, err := strconv.Atoi(rest); err == nil {
			return StrrefToken(id)
		}
	}
	if s == ListIndexName {
		return ListIndexValue()
	}
	return RawLiteral(s)
}

// resolve produces a typed value for the destination field type.
func (e ValueExpr) resolve(dst gff.FieldType, ctx *applyCtx) (gff.Value, error) {
	switch e.kind {
	case exprLiteral:
		return convertValue(e.lit, dst)
	case exprRaw:
		return ParseLiteral(dst, e.raw)
	case exprTableToken:
		tok, err := ctx.store.lookupTable(e.token)
		if err != nil {
			return gff.Value{}, err
		}
		if tok.isAddr {
			v, rerr := resolveValue(ctx.tree.Root, tok.addr, -1)
			if rerr != nil {
				return gff.Value{}, rerr
			}
			return convertValue(v, dst)
		}
		return ParseLiteral(dst, tok.literal)
	case exprStrrefToken:
		ref, err := ctx.store.lookupStrref(e.token)
		if err != nil {
			return gff.Value{}, err
		}
		if dst == gff.FieldLocString {
			loc := gff.NewLocString()
			loc.StringRef = ref
			return gff.Loc(loc), nil
		}
		return makeNumeric(dst, float64(ref))
	case exprAddress:
		v, err := resolveValue(ctx.tree.Root, e.addr, ctx.listIdx)
		if err != nil {
			return gff.Value{}, err
		}
		return convertValue(v, dst)
	case exprListIndex:
		if ctx.listIdx < 0 {
			return gff.Value{}, errors.InvalidData(errors.PhaseApply, nil, "ListIndex used outside a list append")
		}
		return makeNumeric(dst, float64(ctx.listIdx))
	}
	return gff.Value{}, errors.InvalidData(errors.PhaseApply, nil, "unknown value expression")
}

// ParseLiteral parses the script literal form of a value for the given
// field type.
func ParseLiteral(t gff.FieldType, s string) (gff.Value, error) {
	bad := func(detail string) error {
		return errors.New(errors.PhaseApply, errors.KindInvalidData).
			Value(s).
			Detail("%s literal %q: %s", t, s, detail).
			Build()
	}
	switch t {
	case gff.FieldByte, gff.FieldWord, gff.FieldDword, gff.FieldDword64:
		u, err := strconv.ParseUint(s, 10, uintBits(t))
		if err != nil {
			return gff.Value{}, bad(err.Error())
		}
		switch t {
		case gff.FieldByte:
			return gff.Byte(uint8(u)), nil
		case gff.FieldWord:
			return gff.Word(uint16(u)), nil
		case gff.FieldDword:
			return gff.Dword(uint32(u)), nil
		default:
			return gff.Dword64(u), nil
		}
	case gff.FieldChar, gff.FieldShort, gff.FieldInt, gff.FieldInt64:
		n, err := strconv.ParseInt(s, 10, intBits(t))
		if err != nil {
			return gff.Value{}, bad(err.Error())
		}
		switch t {
		case gff.FieldChar:
			return gff.Char(int8(n)), nil
		case gff.FieldShort:
			return gff.Short(int16(n)), nil
		case gff.FieldInt:
			return gff.Int(int32(n)), nil
		default:
			return gff.Int64(n), nil
		}
	case gff.FieldFloat:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return gff.Value{}, bad(err.Error())
		}
		return gff.Float(float32(f)), nil
	case gff.FieldDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return gff.Value{}, bad(err.Error())
		}
		return gff.Double(f), nil
	case gff.FieldString:
		return gff.Str(s), nil
	case gff.FieldResRef:
		r, err := gff.NewResRef(s)
		if err != nil {
			return gff.Value{}, bad("resource name too long")
		}
		return gff.Res(r), nil
	case gff.FieldLocString:
		ref, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return gff.Value{}, bad(err.Error())
		}
		loc := gff.NewLocString()
		loc.StringRef = int32(ref)
		return gff.Loc(loc), nil
	case gff.FieldVoid:
		data, err := hex.DecodeString(s)
		if err != nil {
			return gff.Value{}, bad(err.Error())
		}
		return gff.Void(data), nil
	case gff.FieldVector:
		fs, err := splitFloats(s, 3)
		if err != nil {
			return gff.Value{}, bad(err.Error())
		}
		return gff.Vector(fs[0], fs[1], fs[2]), nil
	case gff.FieldOrientation:
		fs, err := splitFloats(s, 4)
		if err != nil {
			return gff.Value{}, bad(err.Error())
		}
		return gff.Orientation(fs[0], fs[1], fs[2], fs[3]), nil
	}
	return gff.Value{}, bad("type has no literal form")
}

func uintBits(t gff.FieldType) int {
	switch t {
	case gff.FieldByte:
		return 8
	case gff.FieldWord:
		return 16
	case gff.FieldDword:
		return 32
	default:
		return 64
	}
}

func intBits(t gff.FieldType) int {
	switch t {
	case gff.FieldChar:
		return 8
	case gff.FieldShort:
		return 16
	case gff.FieldInt:
		return 32
	default:
		return 64
	}
}

func splitFloats(s string, n int) ([]float32, error) {
	parts := strings.Split(s, "|")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d components, got %d", n, len(parts))
	}
	out := make([]float32, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// convertValue coerces a value to the destination type. Same-type values
// pass through, numeric values convert with range checks, and everything
// else falls back through the string literal form.
func convertValue(v gff.Value, dst gff.FieldType) (gff.Value, error) {
	if v.Type() == dst {
		return v, nil
	}
	if f, ok := v.Num(); ok {
		if out, err := makeNumeric(dst, f); err == nil {
			return out, nil
		}
	}
	if dst == gff.FieldString {
		return gff.Str(v.String()), nil
	}
	return ParseLiteral(dst, v.String())
}

func makeNumeric(dst gff.FieldType, f float64) (gff.Value, error) {
	rangeErr := func(lo, hi float64) error {
		return errors.New(errors.PhaseApply, errors.KindInvalidData).
			Value(f).
			Detail("value %g outside %s range [%g, %g]", f, dst, lo, hi).
			Build()
	}
	checkInt := func(lo, hi float64) (int64, error) {
		if f != math.Trunc(f) || f < lo || f > hi {
			return 0, rangeErr(lo, hi)
		}
		return int64(f), nil
	}
	switch dst {
	case gff.FieldByte:
		n, err := checkInt(0, math.MaxUint8)
		if err != nil {
			return gff.Value{}, err
		}
		return gff.Byte(uint8(n)), nil
	case gff.FieldChar:
		n, err := checkInt(math.MinInt8, math.MaxInt8)
		if err != nil {
			return gff.Value{}, err
		}
		return gff.Char(int8(n)), nil
	case gff.FieldWord:
		n, err := checkInt(0, math.MaxUint16)
		if err != nil {
			return gff.Value{}, err
		}
		return gff.Word(uint16(n)), nil
	case gff.FieldShort:
		n, err := checkInt(math.MinInt16, math.MaxInt16)
		if err != nil {
			return gff.Value{}, err
		}
		return gff.Short(int16(n)), nil
	case gff.FieldDword:
		n, err := checkInt(0, math.MaxUint32)
		if err != nil {
			return gff.Value{}, err
		}
		return gff.Dword(uint32(n)), nil
	case gff.FieldInt:
		n, err := checkInt(math.MinInt32, math.MaxInt32)
		if err != nil {
			return gff.Value{}, err
		}
		return gff.Int(int32(n)), nil
	case gff.FieldDword64:
		if f != math.Trunc(f) || f < 0 || f > math.MaxUint64 {
			return gff.Value{}, rangeErr(0, math.MaxUint64)
		}
		return gff.Dword64(uint64(f)), nil
	case gff.FieldInt64:
		n, err := checkInt(math.MinInt64, math.MaxInt64)
		if err != nil {
			return gff.Value{}, err
		}
		return gff.Int64(n), nil
	case gff.FieldFloat:
		return gff.Float(float32(f)), nil
	case gff.FieldDouble:
		return gff.Double(f), nil
	case gff.FieldString:
		return gff.Str(strconv.FormatFloat(f, 'g', -1, 64)), nil
	case gff.FieldLocString:
		n, err := checkInt(math.MinInt32, math.MaxInt32)
		if err != nil {
			return gff.Value{}, err
		}
		loc := gff.NewLocString()
		loc.StringRef = int32(n)
		return gff.Loc(loc), nil
	}
	return gff.Value{}, errors.New(errors.PhaseApply, errors.KindTypeMismatch).
		Detail("cannot convert number to %s", dst).
		Build()
}
