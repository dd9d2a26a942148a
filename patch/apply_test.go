package patch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modforge/gffkit/gff"
	"github.com/modforge/gffkit/patch"
	"github.com/modforge/gffkit/tabular"
)

func creatureTree(t *testing.T) *gff.Tree {
	t.Helper()
	tree := gff.New(gff.ContentUTC)
	require.NoError(t, tree.Root.Set("Appearance_Type", gff.Word(7)))
	require.NoError(t, tree.Root.Set("Difficulty", gff.Int(2)))

	list := gff.NewList()
	for i := 0; i < 3; i++ {
		elem := gff.NewStruct(0)
		require.NoError(t, elem.Set("CR", gff.Float(float32(i)+1)))
		list.Append(elem)
	}
	require.NoError(t, tree.Root.Set("CreatureList", gff.ListVal(list)))
	return tree
}

func TestModifyField(t *testing.T) {
	tree := creatureTree(t)
	res := patch.Apply(tree, []patch.Instruction{
		&patch.ModifyField{Path: patch.ParsePath("Difficulty"), Value: patch.RawLiteral("9")},
		&patch.ModifyField{Path: patch.ParsePath("CreatureList\\1\\CR"), Value: patch.RawLiteral("4.5")},
	}, nil)

	require.Empty(t, res.Skipped)
	require.NoError(t, res.Err)
	require.Equal(t, 2, res.Applied)
	require.NotEmpty(t, res.RunID)

	require.Equal(t, int32(9), tree.Root.GetInt("Difficulty", 0))
	list, ok := tree.Root.GetList("CreatureList")
	require.True(t, ok)
	elem, err := list.At(1)
	require.NoError(t, err)
	require.Equal(t, float32(4.5), elem.GetFloat("CR", 0))
}

func TestModifyFieldKeepsType(t *testing.T) {
	tree := creatureTree(t)
	res := patch.Apply(tree, []patch.Instruction{
		&patch.ModifyField{Path: patch.ParsePath("Appearance_Type"), Value: patch.RawLiteral("302")},
	}, nil)
	require.Empty(t, res.Skipped)

	v, ok := tree.Root.Get("Appearance_Type")
	require.True(t, ok)
	require.Equal(t, gff.FieldWord, v.Type())
	w, err := v.AsWord()
	require.NoError(t, err)
	require.Equal(t, uint16(302), w)
}

func TestApplySkipsAndContinues(t *testing.T) {
	tree := creatureTree(t)
	res := patch.Apply(tree, []patch.Instruction{
		&patch.ModifyField{Path: patch.ParsePath("NoSuchField"), Value: patch.RawLiteral("1")},
		&patch.ModifyField{Path: patch.ParsePath("Appearance_Type"), Value: patch.RawLiteral("not a number")},
		&patch.ModifyField{Path: patch.ParsePath("Difficulty"), Value: patch.RawLiteral("3")},
	}, nil)

	require.Len(t, res.Skipped, 2)
	require.Error(t, res.Err)
	require.Equal(t, 1, res.Applied)

	// The failures left earlier state alone and the last instruction
	// still ran.
	require.Equal(t, uint16(7), func() uint16 {
		v, _ := tree.Root.Get("Appearance_Type")
		w, _ := v.AsWord()
		return w
	}())
	require.Equal(t, int32(3), tree.Root.GetInt("Difficulty", 0))
}

func TestAddFieldScalar(t *testing.T) {
	tree := creatureTree(t)
	res := patch.Apply(tree, []patch.Instruction{
		&patch.AddField{Label: "GuaranteedCount", Type: gff.FieldInt, Value: patch.RawLiteral("2")},
		&patch.AddField{
			Path:  patch.ParsePath("CreatureList\\0"),
			Label: "ResRef", Type: gff.FieldResRef, Value: patch.RawLiteral("c_orc"),
		},
	}, nil)
	require.Empty(t, res.Skipped)

	require.Equal(t, int32(2), tree.Root.GetInt("GuaranteedCount", 0))
	list, _ := tree.Root.GetList("CreatureList")
	elem, err := list.At(0)
	require.NoError(t, err)
	require.Equal(t, "c_orc", elem.GetResRef("ResRef", gff.BlankResRef).String())
}

func TestAddFieldStructNested(t *testing.T) {
	tree := creatureTree(t)
	res := patch.Apply(tree, []patch.Instruction{
		&patch.AddField{
			Label: "Position", Type: gff.FieldStruct, Value: patch.RawLiteral("3"),
			Nested: []patch.Instruction{
				&patch.AddField{Label: "X", Type: gff.FieldFloat, Value: patch.RawLiteral("1.5")},
				&patch.AddField{Label: "Y", Type: gff.FieldFloat, Value: patch.RawLiteral("2.5")},
			},
		},
	}, nil)
	require.Empty(t, res.Skipped)
	require.Equal(t, 3, res.Applied)

	pos, ok := tree.Root.GetStruct("Position")
	require.True(t, ok)
	require.Equal(t, uint32(3), pos.ID())
	require.Equal(t, float32(1.5), pos.GetFloat("X", 0))
	require.Equal(t, float32(2.5), pos.GetFloat("Y", 0))
}

func TestAddStructToList(t *testing.T) {
	tree := creatureTree(t)
	list, _ := tree.Root.GetList("CreatureList")
	list.Append(gff.NewStruct(0))
	require.Equal(t, 4, list.Len())

	res := patch.Apply(tree, []patch.Instruction{
		&patch.AddStructToList{
			Path:     patch.ParsePath("CreatureList"),
			StructID: 100,
			Nested: []patch.Instruction{
				&patch.AddField{Label: "CR", Type: gff.FieldFloat, Value: patch.RawLiteral("12")},
				&patch.AddField{Label: "SelfIdx", Type: gff.FieldInt, Value: patch.ListIndexValue()},
			},
		},
	}, nil)
	require.Empty(t, res.Skipped)
	require.Equal(t, 3, res.Applied)

	require.Equal(t, 5, list.Len())
	elem, err := list.At(4)
	require.NoError(t, err)
	require.Equal(t, uint32(100), elem.ID())
	require.Equal(t, float32(12), elem.GetFloat("CR", 0))
	require.Equal(t, int32(4), elem.GetInt("SelfIdx", -1))
}

func TestRecordReferenceListIndex(t *testing.T) {
	tree := creatureTree(t)
	store := patch.NewTokenStore()
	res := patch.Apply(tree, []patch.Instruction{
		&patch.AddStructToList{
			Path:     patch.ParsePath("CreatureList"),
			StructID: 0,
			Nested: []patch.Instruction{
				&patch.RecordReference{Token: 4, Path: patch.ParsePath("ListIndex")},
			},
		},
		&patch.ModifyField{Path: patch.ParsePath("Difficulty"), Value: patch.TableToken(4)},
	}, store)
	require.Empty(t, res.Skipped)

	val, ok := store.Table(4)
	require.True(t, ok)
	require.Equal(t, "3", val)
	require.Equal(t, int32(3), tree.Root.GetInt("Difficulty", 0))
}

func TestRecordReferenceReadsAtResolution(t *testing.T) {
	tree := creatureTree(t)
	store := patch.NewTokenStore()

	// The token stores the address of Appearance_Type; a mutation lands
	// between recording and consumption, and the consumer must observe it.
	res := patch.Apply(tree, []patch.Instruction{
		&patch.RecordReference{Token: 0, Path: patch.ParsePath("Appearance_Type")},
		&patch.ModifyField{Path: patch.ParsePath("Appearance_Type"), Value: patch.RawLiteral("40")},
		&patch.ModifyField{Path: patch.ParsePath("Difficulty"), Value: patch.TableToken(0)},
	}, store)
	require.Empty(t, res.Skipped)
	require.Equal(t, int32(40), tree.Root.GetInt("Difficulty", 0))
}

func TestUnresolvedTokenSkips(t *testing.T) {
	tree := creatureTree(t)
	res := patch.Apply(tree, []patch.Instruction{
		&patch.ModifyField{Path: patch.ParsePath("Difficulty"), Value: patch.TableToken(99)},
	}, nil)
	require.Len(t, res.Skipped, 1)
	require.Equal(t, int32(2), tree.Root.GetInt("Difficulty", 0))
}

func TestStrrefTokenIntoLocString(t *testing.T) {
	tree := gff.New(gff.ContentUTC)
	loc := gff.NewLocString()
	loc.SetSub(0, "old name")
	require.NoError(t, tree.Root.Set("FirstName", gff.Loc(loc)))

	store := patch.NewTokenStore()
	store.SetStrref(2, 140000)
	res := patch.Apply(tree, []patch.Instruction{
		&patch.ModifyField{Path: patch.ParsePath("FirstName"), Value: patch.StrrefToken(2)},
	}, store)
	require.Empty(t, res.Skipped)

	v, _ := tree.Root.Get("FirstName")
	got, err := v.AsLocString()
	require.NoError(t, err)
	require.Equal(t, int32(140000), got.StringRef)
}

func TestApplyTableSetsTokens(t *testing.T) {
	table := tabular.NewMemoryTable("label", "race")
	table.AddRow("0", map[string]string{"label": "Human", "race": "h"})

	store := patch.NewTokenStore()
	patch.ApplyTable(patch.TableSection{
		Name: "appearance.2da",
		Rows: []patch.RowAdd{{
			Label: "1",
			Cells: map[string]string{"label": "Orc", "race": "o"},
			Tokens: []patch.RowToken{
				{ID: 0, Source: patch.SourceRowIndex},
				{ID: 1, Source: patch.SourceCellValue, Column: "label"},
			},
		}},
		Cells: []patch.CellSet{{Row: 0, Col: "race", Value: "x"}},
	}, table, store)

	idx, ok := store.Table(0)
	require.True(t, ok)
	require.Equal(t, "1", idx)
	lbl, ok := store.Table(1)
	require.True(t, ok)
	require.Equal(t, "Orc", lbl)

	require.Equal(t, 2, table.RowCount())
	race, _ := table.Cell(0, "race")
	require.Equal(t, "x", race)
}

func TestApplyScriptTablesBeforeFiles(t *testing.T) {
	tree := creatureTree(t)
	table := tabular.NewMemoryTable("label")
	table.AddRow("0", map[string]string{"label": "Human"})

	script := &patch.Script{
		Tables: []patch.TableSection{{
			Name: "appearance.2da",
			Rows: []patch.RowAdd{{
				Label:  "1",
				Cells:  map[string]string{"label": "Orc"},
				Tokens: []patch.RowToken{{ID: 0, Source: patch.SourceRowIndex}},
			}},
		}},
		Files: []patch.FileSection{{
			Name: "modded.utc",
			Instructions: []patch.Instruction{
				&patch.ModifyField{Path: patch.ParsePath("Appearance_Type"), Value: patch.TableToken(0)},
			},
		}},
	}

	results, err := patch.ApplyScript(script,
		map[string]*gff.Tree{"modded.utc": tree},
		map[string]tabular.TableWriter{"appearance.2da": table})
	require.NoError(t, err)
	require.Empty(t, results["modded.utc"].Skipped)

	v, _ := tree.Root.Get("Appearance_Type")
	w, _ := v.AsWord()
	require.Equal(t, uint16(1), w)
}
