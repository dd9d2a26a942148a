package diff_test

import (
	"testing"

	"github.com/modforge/gffkit/diff"
	"github.com/modforge/gffkit/gff"
)

func encounterTree(t *testing.T) *gff.Tree {
	t.Helper()
	tree := gff.New(gff.ContentUTE)
	tree.Root.Set("Tag", gff.Str("enc_spiders"))
	tree.Root.Set("Difficulty", gff.Int(2))

	creatures := gff.NewList()
	for i := 0; i < 3; i++ {
		e := gff.NewStruct(0)
		res, err := gff.NewResRef("nw_spider01")
		if err != nil {
			t.Fatal(err)
		}
		e.Set("ResRef", gff.Res(res))
		e.Set("CR", gff.Float(float32(i)+0.5))
		creatures.Append(e)
	}
	tree.Root.Set("CreatureList", gff.ListVal(creatures))
	return tree
}

func clone(t *testing.T, tree *gff.Tree) *gff.Tree {
	t.Helper()
	data, err := gff.Encode(tree)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := gff.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return out
}

func TestCompareIdentical(t *testing.T) {
	a := encounterTree(t)
	b := clone(t, a)
	res := diff.Compare(a, b, diff.Options{})
	if res.Status != diff.Identical {
		t.Fatalf("status = %v, entries = %v", res.Status, res.Entries)
	}
}

func TestCompareSingleLeafFlip(t *testing.T) {
	a := encounterTree(t)
	b := clone(t, a)
	b.Root.Set("Difficulty", gff.Int(5))

	res := diff.Compare(a, b, diff.Options{})
	if res.Status != diff.Modified {
		t.Fatalf("status = %v", res.Status)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("entries = %d, want 1: %v", len(res.Entries), res.Entries)
	}
	e := res.Entries[0]
	if e.Kind != diff.ValueChanged {
		t.Errorf("kind = %v", e.Kind)
	}
	if e.Path.String() != `Root\Difficulty` {
		t.Errorf("path = %q", e.Path)
	}
	if n, _ := e.Old.AsInt(); n != 2 {
		t.Errorf("old = %v", e.Old)
	}
	if n, _ := e.New.AsInt(); n != 5 {
		t.Errorf("new = %v", e.New)
	}
}

func TestCompareListShrink(t *testing.T) {
	a := encounterTree(t)
	b := clone(t, a)

	list, _ := b.Root.GetList("CreatureList")
	trimmed := gff.NewList()
	for i := 0; i < 2; i++ {
		e, _ := list.At(i)
		trimmed.Append(e)
	}
	b.Root.Set("CreatureList", gff.ListVal(trimmed))

	res := diff.Compare(a, b, diff.Options{})
	if res.Status != diff.Modified {
		t.Fatalf("status = %v", res.Status)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("entries = %v", res.Entries)
	}
	e := res.Entries[0]
	if e.Kind != diff.ListLengthMismatch {
		t.Errorf("kind = %v", e.Kind)
	}
	if e.Path.String() != `Root\CreatureList` {
		t.Errorf("path = %q", e.Path)
	}
}

func TestCompareNestedListElement(t *testing.T) {
	a := encounterTree(t)
	b := clone(t, a)
	list, _ := b.Root.GetList("CreatureList")
	second, _ := list.At(1)
	second.Set("CR", gff.Float(9))

	res := diff.Compare(a, b, diff.Options{})
	if len(res.Entries) != 1 {
		t.Fatalf("entries = %v", res.Entries)
	}
	if got := res.Entries[0].Path.String(); got != `Root\CreatureList\1\CR` {
		t.Errorf("path = %q", got)
	}
}

func TestCompareTypeMismatchStopsBranch(t *testing.T) {
	a := gff.New(gff.ContentUTC)
	inner := gff.NewStruct(1)
	inner.Set("HP", gff.Short(10))
	a.Root.Set("Stats", gff.StructVal(inner))

	b := gff.New(gff.ContentUTC)
	b.Root.Set("Stats", gff.Int(3)) // struct replaced by a scalar

	res := diff.Compare(a, b, diff.Options{})
	if len(res.Entries) != 1 {
		t.Fatalf("entries = %v", res.Entries)
	}
	if res.Entries[0].Kind != diff.TypeMismatch {
		t.Errorf("kind = %v", res.Entries[0].Kind)
	}
}

func TestCompareStructID(t *testing.T) {
	a := gff.New(gff.ContentGIT)
	sa := gff.NewStruct(4)
	sa.Set("X", gff.Float(1))
	a.Root.Set("Door", gff.StructVal(sa))

	b := gff.New(gff.ContentGIT)
	sb := gff.NewStruct(9)
	sb.Set("X", gff.Float(1))
	b.Root.Set("Door", gff.StructVal(sb))

	res := diff.Compare(a, b, diff.Options{})
	if len(res.Entries) != 1 || res.Entries[0].Kind != diff.StructIDMismatch {
		t.Fatalf("entries = %v", res.Entries)
	}
}

// A list element gaining GuaranteedCount:int32=0 must diff to exactly one
// field-added entry at .../0/GuaranteedCount carrying the value 0.
func TestCompareExtraDefaultField(t *testing.T) {
	a := encounterTree(t)
	b := clone(t, a)
	list, _ := b.Root.GetList("CreatureList")
	first, _ := list.At(0)
	first.Set("GuaranteedCount", gff.Int(0))

	res := diff.Compare(a, b, diff.Options{})
	if len(res.Entries) != 1 {
		t.Fatalf("entries = %v", res.Entries)
	}
	e := res.Entries[0]
	if e.Kind != diff.FieldAdded {
		t.Errorf("kind = %v", e.Kind)
	}
	if e.Path.String() != `Root\CreatureList\0\GuaranteedCount` {
		t.Errorf("path = %q", e.Path)
	}
	if n, err := e.New.AsInt(); err != nil || n != 0 {
		t.Errorf("value = %v, %v", e.New, err)
	}

	// With default-absence suppression the same pair is identical.
	res = diff.Compare(a, b, diff.Options{IgnoreDefaultAdditions: true})
	if res.Status != diff.Identical {
		t.Errorf("suppressed status = %v, entries = %v", res.Status, res.Entries)
	}
}

func TestCompareFieldMissing(t *testing.T) {
	a := encounterTree(t)
	b := clone(t, a)
	b.Root.Remove("Tag")

	res := diff.Compare(a, b, diff.Options{})
	if len(res.Entries) != 1 || res.Entries[0].Kind != diff.FieldMissing {
		t.Fatalf("entries = %v", res.Entries)
	}
}

func TestCompareResRefCase(t *testing.T) {
	a := encounterTree(t)
	b := clone(t, a)
	list, _ := b.Root.GetList("CreatureList")
	first, _ := list.At(0)
	res, err := gff.NewResRef("NW_SPIDER01")
	if err != nil {
		t.Fatal(err)
	}
	first.Set("ResRef", gff.Res(res))

	if out := diff.Compare(a, b, diff.Options{}); out.Status != diff.Identical {
		t.Errorf("resref case change reported: %v", out.Entries)
	}
}

func TestCompareNilInputs(t *testing.T) {
	if res := diff.Compare(nil, encounterTree(t), diff.Options{}); res.Status != diff.Error {
		t.Errorf("status = %v, want ERROR", res.Status)
	}
}

func TestCompareDeterministic(t *testing.T) {
	a := encounterTree(t)
	b := clone(t, a)
	b.Root.Set("Difficulty", gff.Int(9))
	b.Root.Set("Respawns", gff.Byte(1))
	list, _ := b.Root.GetList("CreatureList")
	first, _ := list.At(0)
	first.Set("CR", gff.Float(3))

	first_ := diff.Compare(a, b, diff.Options{})
	for i := 0; i < 5; i++ {
		again := diff.Compare(a, b, diff.Options{})
		if len(again.Entries) != len(first_.Entries) {
			t.Fatal("entry count unstable")
		}
		for j := range again.Entries {
			if again.Entries[j].Path.String() != first_.Entries[j].Path.String() {
				t.Fatal("entry order unstable")
			}
		}
	}
}
