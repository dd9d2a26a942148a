package diff

import (
	"fmt"

	"github.com/modforge/gffkit/gff"
)

// Status summarizes a comparison.
type Status int

const (
	Identical Status = iota
	Modified
	Error
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Identical:
		return "IDENTICAL"
	case Modified:
		return "MODIFIED"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// EntryKind classifies one recorded difference.
type EntryKind int

const (
	ValueChanged EntryKind = iota
	TypeMismatch
	StructIDMismatch
	ListLengthMismatch
	FieldAdded
	FieldMissing
)

// String returns the kind name.
func (k EntryKind) String() string {
	switch k {
	case ValueChanged:
		return "value-changed"
	case TypeMismatch:
		return "type-mismatch"
	case StructIDMismatch:
		return "struct-id-mismatch"
	case ListLengthMismatch:
		return "list-length-mismatch"
	case FieldAdded:
		return "field-added"
	case FieldMissing:
		return "field-missing"
	default:
		return "unknown"
	}
}

// Entry is one recorded difference, addressed by path.
// Old and New are zero Values when the kind has no value on that side.
type Entry struct {
	Path   Path
	Kind   EntryKind
	Type   gff.FieldType
	Old    gff.Value
	New    gff.Value
	Detail string
}

// String renders the entry for reports and logs.
func (e Entry) String() string {
	switch e.Kind {
	case ValueChanged:
		return fmt.Sprintf("%s: %s %q -> %q", e.Path, e.Kind, e.Old.String(), e.New.String())
	case FieldAdded:
		return fmt.Sprintf("%s: %s %s=%q", e.Path, e.Kind, e.Type, e.New.String())
	default:
		return fmt.Sprintf("%s: %s %s", e.Path, e.Kind, e.Detail)
	}
}

// Options control comparison behavior.
type Options struct {
	// IgnoreDefaultAdditions treats a field that oscillates between absent
	// and present-with-default-value as unchanged. Round-tripping writers
	// materialize defaults, which would otherwise flood the report.
	IgnoreDefaultAdditions bool
}

// Result is the outcome of one comparison.
type Result struct {
	Status  Status
	Entries []Entry
}

// Compare walks two trees and reports every difference with a stable path.
// It never mutates its inputs and is deterministic for a fixed pair:
// entries follow the old tree's insertion order, with added fields after,
// in the new tree's insertion order.
func Compare(old, new *gff.Tree, opts Options) *Result {
	if old == nil || new == nil || old.Root == nil || new.Root == nil {
		return &Result{Status: Error}
	}

	w := &walker{opts: opts}
	root := Path{}.Child("Root")
	if old.Content != new.Content {
		w.add(Entry{
			Path:   root,
			Kind:   TypeMismatch,
			Detail: fmt.Sprintf("content %s vs %s", old.Content, new.Content),
		})
	}
	w.walkStruct(root, old.Root, new.Root)

	if len(w.entries) == 0 {
		return &Result{Status: Identical}
	}
	return &Result{Status: Modified, Entries: w.entries}
}

type walker struct {
	opts    Options
	entries []Entry
}

func (w *walker) add(e Entry) {
	w.entries = append(w.entries, e)
}

func (w *walker) walkStruct(path Path, old, new *gff.Struct) {
	if old.ID() != new.ID() {
		w.add(Entry{
			Path:   path,
			Kind:   StructIDMismatch,
			Detail: fmt.Sprintf("struct_id %d vs %d", old.ID(), new.ID()),
		})
	}

	for _, label := range old.Labels() {
		ov, _ := old.Get(label)
		fieldPath := path.Child(label)

		nv, ok := new.Get(label)
		if !ok {
			if w.opts.IgnoreDefaultAdditions && ov.IsDefault() {
				continue
			}
			w.add(Entry{
				Path:   fieldPath,
				Kind:   FieldMissing,
				Type:   ov.Type(),
				Old:    ov,
				Detail: fmt.Sprintf("field %q absent in new", label),
			})
			continue
		}
		if ov.Type() != nv.Type() {
			// Traversal of this branch stops here; the subtrees are not
			// comparable.
			w.add(Entry{
				Path:   fieldPath,
				Kind:   TypeMismatch,
				Old:    ov,
				New:    nv,
				Detail: fmt.Sprintf("%s vs %s", ov.Type(), nv.Type()),
			})
			continue
		}

		switch ov.Type() {
		case gff.FieldStruct:
			os_, _ := ov.AsStruct()
			ns, _ := nv.AsStruct()
			w.walkStruct(fieldPath, os_, ns)
		case gff.FieldList:
			ol, _ := ov.AsList()
			nl, _ := nv.AsList()
			w.walkList(fieldPath, ol, nl)
		default:
			if !ov.Equal(nv) {
				w.add(Entry{
					Path: fieldPath,
					Kind: ValueChanged,
					Type: ov.Type(),
					Old:  ov,
					New:  nv,
				})
			}
		}
	}

	for _, label := range new.Labels() {
		if _, ok := old.Get(label); ok {
			continue
		}
		nv, _ := new.Get(label)
		if w.opts.IgnoreDefaultAdditions && nv.IsDefault() {
			continue
		}
		w.add(Entry{
			Path: path.Child(label),
			Kind: FieldAdded,
			Type: nv.Type(),
			New:  nv,
		})
	}
}

// walkList compares element-wise by position. Reordered elements are
// reported as value changes; the wire format gives positions meaning, so
// no content-matching is attempted.
func (w *walker) walkList(path Path, old, new *gff.List) {
	if old.Len() != new.Len() {
		w.add(Entry{
			Path:   path,
			Kind:   ListLengthMismatch,
			Detail: fmt.Sprintf("%d vs %d elements", old.Len(), new.Len()),
		})
	}
	n := old.Len()
	if new.Len() < n {
		n = new.Len()
	}
	for i := 0; i < n; i++ {
		oe, _ := old.At(i)
		ne, _ := new.At(i)
		w.walkStruct(path.Index(i), oe, ne)
	}
}
