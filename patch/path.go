package patch

import (
	"strconv"
	"strings"

	"github.com/modforge/gffkit/errors"
	"github.com/modforge/gffkit/gff"
)

// ListIndexName is the placeholder segment that resolves to the index of
// the most recently appended list element during apply.
const ListIndexName = "ListIndex"

// Segment is one step of a patch path: a field label, a numeric list
// index, or the ListIndex placeholder.
type Segment struct {
	Label       string
	Idx         int
	IsIdx       bool
	Placeholder bool
}

// Path addresses a field, struct, or list inside a tree. Segments are
// separated by backslashes in script form; an empty path addresses the
// root struct.
type Path []Segment

// ParsePath parses the backslash-separated script form of a path. Numeric
// segments become list indices and the ListIndex placeholder is preserved
// for substitution at apply time.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "\\")
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == ListIndexName {
			p = append(p, Segment{Placeholder: true})
			continue
		}
		if n, err := strconv.Atoi(part); err == nil && n >= 0 {
			p = append(p, Segment{Idx: n, IsIdx: true})
			continue
		}
		p = append(p, Segment{Label: part})
	}
	return p
}

func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, seg := range p {
		if i > 0 {
			b.WriteByte('\\')
		}
		switch {
		case seg.Placeholder:
			b.WriteString(ListIndexName)
		case seg.IsIdx:
			b.WriteString(strconv.Itoa(seg.Idx))
		default:
			b.WriteString(seg.Label)
		}
	}
	return b.String()
}

// Field extends the path with a label segment, never mutating the receiver.
func (p Path) Field(label string) Path {
	child := make(Path, len(p), len(p)+1)
	copy(child, p)
	return append(child, Segment{Label: label})
}

// Index extends the path with a list index segment.
func (p Path) Index(i int) Path {
	child := make(Path, len(p), len(p)+1)
	copy(child, p)
	return append(child, Segment{Idx: i, IsIdx: true})
}

// Join appends a relative path, never mutating the receiver.
func (p Path) Join(rel Path) Path {
	out := make(Path, 0, len(p)+len(rel))
	out = append(out, p...)
	return append(out, rel...)
}

// strs renders the path as a string slice for error reporting.
func (p Path) strs() []string {
	out := make([]string, len(p))
	for i, seg := range p {
		switch {
		case seg.Placeholder:
			out[i] = ListIndexName
		case seg.IsIdx:
			out[i] = strconv.Itoa(seg.Idx)
		default:
			out[i] = seg.Label
		}
	}
	return out
}

// resolveStruct walks the path from root and returns the struct it lands
// on. listIdx substitutes ListIndex placeholders; pass -1 when no list
// element is in scope.
func resolveStruct(root *gff.Struct, p Path, listIdx int) (*gff.Struct, error) {
	cur := root
	i := 0
	for i < len(p) {
		seg := p[i]
		if seg.IsIdx || seg.Placeholder {
			return nil, errors.WrongContainer(errors.PhaseApply, p[:i+1].strs(), "struct", "list index")
		}
		v, ok := cur.Get(seg.Label)
		if !ok {
			return nil, errors.NotFound(errors.PhaseApply, p[:i+1].strs(), "no such field")
		}
		switch v.Type() {
		case gff.FieldStruct:
			s, _ := v.AsStruct()
			cur = s
			i++
		case gff.FieldList:
			l, _ := v.AsList()
			if i+1 >= len(p) {
				return nil, errors.WrongContainer(errors.PhaseApply, p[:i+1].strs(), "struct", "list")
			}
			idx, err := segIndex(p, i+1, listIdx)
			if err != nil {
				return nil, err
			}
			elem, err := l.At(idx)
			if err != nil {
				return nil, errors.OutOfBounds(errors.PhaseApply, p[:i+2].strs(), idx, l.Len())
			}
			cur = elem
			i += 2
		default:
			return nil, errors.WrongContainer(errors.PhaseApply, p[:i+1].strs(), "struct or list", v.Type().String())
		}
	}
	return cur, nil
}

// resolveField splits the path into its containing struct and final label.
func resolveField(root *gff.Struct, p Path, listIdx int) (*gff.Struct, string, error) {
	if len(p) == 0 {
		return nil, "", errors.NotFound(errors.PhaseApply, nil, "empty field path")
	}
	last := p[len(p)-1]
	if last.IsIdx || last.Placeholder {
		return nil, "", errors.WrongContainer(errors.PhaseApply, p.strs(), "field label", "list index")
	}
	parent, err := resolveStruct(root, p[:len(p)-1], listIdx)
	if err != nil {
		return nil, "", err
	}
	return parent, last.Label, nil
}

// resolveList walks to a path that must end at a list-typed field.
func resolveList(root *gff.Struct, p Path, listIdx int) (*gff.List, error) {
	parent, label, err := resolveField(root, p, listIdx)
	if err != nil {
		return nil, err
	}
	v, ok := parent.Get(label)
	if !ok {
		return nil, errors.NotFound(errors.PhaseApply, p.strs(), "no such field")
	}
	l, aerr := v.AsList()
	if aerr != nil {
		return nil, errors.WrongContainer(errors.PhaseApply, p.strs(), "list", v.Type().String())
	}
	return l, nil
}

// resolveValue reads the value a path points at.
func resolveValue(root *gff.Struct, p Path, listIdx int) (gff.Value, error) {
	parent, label, err := resolveField(root, p, listIdx)
	if err != nil {
		return gff.Value{}, err
	}
	v, ok := parent.Get(label)
	if !ok {
		return gff.Value{}, errors.NotFound(errors.PhaseApply, p.strs(), "no such field")
	}
	return v, nil
}

func segIndex(p Path, i, listIdx int) (int, error) {
	seg := p[i]
	if seg.Placeholder {
		if listIdx < 0 {
			return 0, errors.InvalidData(errors.PhaseApply, p[:i+1].strs(), "ListIndex used outside a list append")
		}
		return listIdx, nil
	}
	if !seg.IsIdx {
		return 0, errors.WrongContainer(errors.PhaseApply, p[:i+1].strs(), "list index", "label")
	}
	return seg.Idx, nil
}
