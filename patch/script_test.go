package patch_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modforge/gffkit/gff"
	"github.com/modforge/gffkit/patch"
)

const sampleScript = `
; encounter rebalance
[files]
File0=modded.utc

[modded.utc]
Difficulty=3
Appearance_Type=TOKEN_TABLE#0
AddField0=field_0
AddStruct0=struct_0

[field_0]
Path=
Label=GuaranteedCount
Type=Int
Value=2

[struct_0]
Path=CreatureList
StructID=100
AddField0=field_1
TOKEN_TABLE#1=ListIndex

[field_1]
Path=
Label=SelfIdx
Type=Int
Value=ListIndex

[2DAList]
Table0=appearance.2da

[appearance.2da]
Cell\0\race=x
AddRow0=row_0

[row_0]
RowLabel=1
TOKEN_TABLE#0=RowIndex
label=Orc
race=o
`

func TestParseScript(t *testing.T) {
	s, err := patch.ParseScript(strings.NewReader(sampleScript))
	require.NoError(t, err)

	require.Len(t, s.Files, 1)
	f := s.Files[0]
	require.Equal(t, "modded.utc", f.Name)
	require.Len(t, f.Instructions, 4)

	mod, ok := f.Instructions[0].(*patch.ModifyField)
	require.True(t, ok)
	require.Equal(t, "Difficulty", mod.Path.String())

	tokMod, ok := f.Instructions[1].(*patch.ModifyField)
	require.True(t, ok)
	id, isTok := tokMod.Value.IsTableToken()
	require.True(t, isTok)
	require.Equal(t, 0, id)

	add, ok := f.Instructions[2].(*patch.AddField)
	require.True(t, ok)
	require.Equal(t, "GuaranteedCount", add.Label)
	require.Equal(t, gff.FieldInt, add.Type)

	as, ok := f.Instructions[3].(*patch.AddStructToList)
	require.True(t, ok)
	require.Equal(t, "CreatureList", as.Path.String())
	require.Equal(t, uint32(100), as.StructID)
	require.Len(t, as.Nested, 2)
	_, isRec := as.Nested[1].(*patch.RecordReference)
	require.True(t, isRec)

	require.Len(t, s.Tables, 1)
	tbl := s.Tables[0]
	require.Equal(t, "appearance.2da", tbl.Name)
	require.Equal(t, []patch.CellSet{{Row: 0, Col: "race", Value: "x"}}, tbl.Cells)
	require.Len(t, tbl.Rows, 1)
	row := tbl.Rows[0]
	require.Equal(t, "1", row.Label)
	require.Equal(t, map[string]string{"label": "Orc", "race": "o"}, row.Cells)
	require.Equal(t, []patch.RowToken{{ID: 0, Source: patch.SourceRowIndex}}, row.Tokens)
}

func TestScriptEmitParseStable(t *testing.T) {
	s, err := patch.ParseScript(strings.NewReader(sampleScript))
	require.NoError(t, err)

	first, err := patch.EmitScriptString(s)
	require.NoError(t, err)

	back, err := patch.ParseScript(strings.NewReader(first))
	require.NoError(t, err)
	second, err := patch.EmitScriptString(back)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestParsedScriptApplies(t *testing.T) {
	s, err := patch.ParseScript(strings.NewReader(sampleScript))
	require.NoError(t, err)

	tree := creatureTree(t)
	store := patch.NewTokenStore()
	store.SetTable(0, "17")
	res := patch.Apply(tree, s.Files[0].Instructions, store)
	require.Empty(t, res.Skipped)

	require.Equal(t, int32(3), tree.Root.GetInt("Difficulty", 0))
	list, _ := tree.Root.GetList("CreatureList")
	require.Equal(t, 4, list.Len())
	elem, err := list.At(3)
	require.NoError(t, err)
	require.Equal(t, int32(3), elem.GetInt("SelfIdx", -1))

	// struct_0 recorded the appended element's index into token 1.
	idx, ok := store.Table(1)
	require.True(t, ok)
	require.Equal(t, "3", idx)
}

func TestReservedKeyEscape(t *testing.T) {
	// A GFF field literally named Type or Value inside an AddField section
	// collides with the section's attribute keys; the Mod\ prefix keeps it
	// a modify line.
	const script = `
[files]
File0=a.utc

[a.utc]
Mod\Value=9
AddField0=field_0

[field_0]
Path=
Label=Stats
Type=Struct
Value=0
Mod\Type=5
`
	s, err := patch.ParseScript(strings.NewReader(script))
	require.NoError(t, err)
	require.Len(t, s.Files[0].Instructions, 2)

	top, ok := s.Files[0].Instructions[0].(*patch.ModifyField)
	require.True(t, ok)
	require.Equal(t, "Value", top.Path.String())

	add, ok := s.Files[0].Instructions[1].(*patch.AddField)
	require.True(t, ok)
	require.Len(t, add.Nested, 1)
	nested, ok := add.Nested[0].(*patch.ModifyField)
	require.True(t, ok)
	require.Equal(t, "Type", nested.Path.String())

	// The emitter re-escapes, so the escape survives a round trip.
	first, err := patch.EmitScriptString(s)
	require.NoError(t, err)
	require.Contains(t, first, "Mod\\Value=9")
	require.Contains(t, first, "Mod\\Type=5")

	back, err := patch.ParseScript(strings.NewReader(first))
	require.NoError(t, err)
	second, err := patch.EmitScriptString(back)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestParseScriptErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"missing child section", "[files]\nFile0=a.utc\n\n[a.utc]\nAddField0=nowhere\n"},
		{"unknown field type", "[files]\nFile0=a.utc\n\n[a.utc]\nAddField0=f\n\n[f]\nLabel=X\nType=Quaternion\n"},
		{"no listing", "[a.utc]\nDifficulty=3\n"},
		{"duplicate section", "[files]\nFile0=a.utc\n\n[a.utc]\nX=1\n\n[a.utc]\nY=2\n"},
		{"key before section", "Difficulty=3\n"},
		{"bad cell key", "[2DAList]\nTable0=t.2da\n\n[t.2da]\nCell\\abc=1\n"},
		{"self reference", "[files]\nFile0=a.utc\n\n[a.utc]\nAddField0=a.utc\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := patch.ParseScript(strings.NewReader(tc.in))
			require.Error(t, err)
		})
	}
}
