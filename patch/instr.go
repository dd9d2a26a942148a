package patch

import (
	"github.com/modforge/gffkit/errors"
	"github.com/modforge/gffkit/gff"
)

// Instruction is one step of a patch applied to a tree. Paths on nested
// instructions are relative to the field or struct their parent creates.
type Instruction interface {
	// Kind names the instruction in logs and scripts.
	Kind() string

	apply(ctx *applyCtx, base Path) error
}

// ModifyField overwrites an existing field. The field keeps its type; the
// value expression is coerced to it.
type ModifyField struct {
	Path  Path
	Value ValueExpr
}

func (m *ModifyField) Kind() string { return "ModifyField" }

func (m *ModifyField) apply(ctx *applyCtx, base Path) error {
	abs := base.Join(m.Path)
	parent, label, err := resolveField(ctx.tree.Root, abs, ctx.listIdx)
	if err != nil {
		return err
	}
	old, ok := parent.Get(label)
	if !ok {
		return errors.NotFound(errors.PhaseApply, abs.strs(), "no such field")
	}
	v, err := m.Value.resolve(old.Type(), ctx)
	if err != nil {
		return err
	}
	return parent.Set(label, v)
}

// AddField creates a field on the struct the path addresses. An empty
// path targets the instruction's base struct. Struct and list typed
// fields start empty and are filled by the nested instructions.
type AddField struct {
	Path   Path
	Label  string
	Type   gff.FieldType
	Value  ValueExpr
	Nested []Instruction
}

func (a *AddField) Kind() string { return "AddField" }

func (a *AddField) apply(ctx *applyCtx, base Path) error {
	abs := base.Join(a.Path)
	parent, err := resolveStruct(ctx.tree.Root, abs, ctx.listIdx)
	if err != nil {
		return err
	}
	var v gff.Value
	switch a.Type {
	case gff.FieldStruct:
		id := uint32(0)
		if lit, ok := a.Value.LiteralValue(); ok {
			if d, derr := lit.AsDword(); derr == nil {
				id = d
			}
		} else if a.Value.kind == exprRaw && a.Value.raw != "" {
			idv, perr := ParseLiteral(gff.FieldDword, a.Value.raw)
			if perr != nil {
				return perr
			}
			id, _ = idv.AsDword()
		}
		v = gff.StructVal(gff.NewStruct(id))
	case gff.FieldList:
		v = gff.ListVal(gff.NewList())
	default:
		v, err = a.Value.resolve(a.Type, ctx)
		if err != nil {
			return err
		}
	}
	if err := parent.Set(a.Label, v); err != nil {
		return err
	}
	ctx.applyAll(a.Nested, abs.Field(a.Label))
	return nil
}

// AddStructToList appends a new struct to the list the path addresses.
// Nested instructions run with paths relative to the appended element,
// and the ListIndex placeholder resolves to its index.
type AddStructToList struct {
	Path     Path
	StructID uint32
	Nested   []Instruction
}

func (a *AddStructToList) Kind() string { return "AddStructToList" }

func (a *AddStructToList) apply(ctx *applyCtx, base Path) error {
	abs := base.Join(a.Path)
	list, err := resolveList(ctx.tree.Root, abs, ctx.listIdx)
	if err != nil {
		return err
	}
	idx := list.Append(gff.NewStruct(a.StructID))
	prev := ctx.listIdx
	ctx.listIdx = idx
	ctx.applyAll(a.Nested, abs.Index(idx))
	ctx.listIdx = prev
	return nil
}

// RecordReference stores a tree address, or the current list index, into
// a table token for later instructions to consume.
type RecordReference struct {
	Token int
	Path  Path
}

func (r *RecordReference) Kind() string { return "RecordReference" }

func (r *RecordReference) apply(ctx *applyCtx, base Path) error {
	if len(r.Path) == 1 && r.Path[0].Placeholder {
		if ctx.listIdx < 0 {
			return errors.InvalidData(errors.PhaseApply, r.Path.strs(), "ListIndex used outside a list append")
		}
		ctx.store.SetTableInt(r.Token, ctx.listIdx)
		return nil
	}
	abs := base.Join(r.Path)
	resolved := make(Path, 0, len(abs))
	i := 0
	for i < len(abs) {
		seg := abs[i]
		if seg.Placeholder {
			idx, err := segIndex(abs, i, ctx.listIdx)
			if err != nil {
				return err
			}
			seg = Segment{Idx: idx, IsIdx: true}
		}
		resolved = append(resolved, seg)
		i++
	}
	if _, err := resolveValue(ctx.tree.Root, resolved, -1); err != nil {
		return err
	}
	ctx.store.SetTableAddress(r.Token, resolved)
	return nil
}
