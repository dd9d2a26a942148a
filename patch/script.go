package patch

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/modforge/gffkit/errors"
	"github.com/modforge/gffkit/gff"
	"github.com/modforge/gffkit/tabular"
)

// Script is a parsed patch script: one section of instructions per
// modified tree file, plus row additions and cell edits per table. Table
// sections run before file sections so the tokens their rows produce are
// set by the time file instructions consume them.
type Script struct {
	Files  []FileSection
	Tables []TableSection
}

// FileSection holds the instructions for one tree file.
type FileSection struct {
	Name         string
	Instructions []Instruction
}

// TableSection holds the replayable modifications of one table.
type TableSection struct {
	Name  string
	Rows  []RowAdd
	Cells []CellSet
}

// RowTokenSource names what part of an added row a token captures.
type RowTokenSource int

const (
	SourceRowIndex RowTokenSource = iota
	SourceRowLabel
	SourceCellValue
)

func (s RowTokenSource) String() string {
	switch s {
	case SourceRowIndex:
		return "RowIndex"
	case SourceRowLabel:
		return "RowLabel"
	default:
		return "CellValue"
	}
}

// RowToken declares a table token produced by a row addition.
type RowToken struct {
	ID     int
	Source RowTokenSource
	Column string // set for SourceCellValue
}

// RowAdd appends one row to a table and sets any tokens declared on it.
type RowAdd struct {
	Label  string
	Cells  map[string]string
	Tokens []RowToken
}

// CellSet overwrites one cell of an existing row.
type CellSet struct {
	Row   int
	Col   string
	Value string
}

// ApplyTable replays a table section against a writer, storing declared
// token values as rows land.
func ApplyTable(sec TableSection, w tabular.TableWriter, store *TokenStore) {
	for _, c := range sec.Cells {
		w.SetCell(c.Row, c.Col, c.Value)
	}
	for _, row := range sec.Rows {
		idx := w.AddRow(row.Label, row.Cells)
		for _, tok := range row.Tokens {
			switch tok.Source {
			case SourceRowIndex:
				store.SetTableInt(tok.ID, idx)
			case SourceRowLabel:
				store.SetTable(tok.ID, row.Label)
			case SourceCellValue:
				store.SetTable(tok.ID, row.Cells[tok.Column])
			}
		}
	}
}

// ApplyScript runs a whole script: table sections first, then each file
// section against its tree. Trees and tables are looked up by section
// name; a missing resource fails that section and the run moves on.
func ApplyScript(s *Script, trees map[string]*gff.Tree, tables map[string]tabular.TableWriter) (map[string]*Result, error) {
	store := NewTokenStore()
	var firstErr error
	for _, sec := range s.Tables {
		w, ok := tables[sec.Name]
		if !ok {
			err := errors.NotFound(errors.PhaseApply, nil, "table "+sec.Name)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		ApplyTable(sec, w, store)
	}
	results := make(map[string]*Result, len(s.Files))
	for _, sec := range s.Files {
		t, ok := trees[sec.Name]
		if !ok {
			err := errors.NotFound(errors.PhaseApply, nil, "tree "+sec.Name)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		results[sec.Name] = Apply(t, sec.Instructions, store)
	}
	return results, firstErr
}

// section is a raw parsed script section: ordered key/value pairs.
type section struct {
	name string
	line int
	kv   []kvPair
}

type kvPair struct {
	key  string
	val  string
	line int
}

const (
	filesSection  = "files"
	tablesSection = "2DAList"
)

// ParseScript parses the sectioned key/value script format produced by
// EmitScript.
func ParseScript(r io.Reader) (*Script, error) {
	secs, order, err := readSections(r)
	if err != nil {
		return nil, err
	}

	p := &scriptParser{secs: secs, building: make(map[string]bool)}
	out := &Script{}

	for _, name := range listed(secs[filesSection]) {
		sec, ok := secs[name]
		if !ok {
			return nil, scriptErr(0, "file section [%s] not found", name)
		}
		instrs, err := p.instructions(sec)
		if err != nil {
			return nil, err
		}
		out.Files = append(out.Files, FileSection{Name: name, Instructions: instrs})
	}

	for _, name := range listed(secs[tablesSection]) {
		sec, ok := secs[name]
		if !ok {
			return nil, scriptErr(0, "table section [%s] not found", name)
		}
		ts, err := p.tableSection(sec)
		if err != nil {
			return nil, err
		}
		out.Tables = append(out.Tables, ts)
	}

	// A script with no [files] or [2DAList] listing has nothing to
	// apply; treat every unreferenced top-level section as a mistake.
	if len(out.Files) == 0 && len(out.Tables) == 0 && len(order) > 0 {
		return nil, scriptErr(secs[order[0]].line, "no [%s] or [%s] listing", filesSection, tablesSection)
	}
	return out, nil
}

func readSections(r io.Reader) (map[string]*section, []string, error) {
	secs := make(map[string]*section)
	var order []string
	var cur *section

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == ';' || text[0] == '#' {
			continue
		}
		if text[0] == '[' {
			if !strings.HasSuffix(text, "]") {
				return nil, nil, scriptErr(line, "unterminated section header %q", text)
			}
			name := strings.TrimSpace(text[1 : len(text)-1])
			if name == "" {
				return nil, nil, scriptErr(line, "empty section name")
			}
			if _, dup := secs[name]; dup {
				return nil, nil, scriptErr(line, "duplicate section [%s]", name)
			}
			cur = &section{name: name, line: line}
			secs[name] = cur
			order = append(order, name)
			continue
		}
		eq := strings.IndexByte(text, '=')
		if eq < 0 {
			return nil, nil, scriptErr(line, "expected key=value, got %q", text)
		}
		if cur == nil {
			return nil, nil, scriptErr(line, "key=value before any section header")
		}
		cur.kv = append(cur.kv, kvPair{
			key:  strings.TrimSpace(text[:eq]),
			val:  strings.TrimSpace(text[eq+1:]),
			line: line,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, nil, errors.Wrap(errors.PhaseScript, errors.KindInvalidData, err, "reading script")
	}
	return secs, order, nil
}

// listed returns the section names a listing section points at, in key
// order (File0, File1, ... or Table0, Table1, ...).
func listed(sec *section) []string {
	if sec == nil {
		return nil
	}
	type entry struct {
		n    int
		name string
	}
	var entries []entry
	for _, kv := range sec.kv {
		rest := strings.TrimLeftFunc(kv.key, func(r rune) bool {
			return r < '0' || r > '9'
		})
		n, err := strconv.Atoi(rest)
		if err != nil {
			n = len(entries)
		}
		entries = append(entries, entry{n: n, name: kv.val})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].n < entries[j].n })
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

type scriptParser struct {
	secs     map[string]*section
	building map[string]bool
}

// instructions materializes a file or child section into an instruction
// list, resolving named child sections recursively.
func (p *scriptParser) instructions(sec *section) ([]Instruction, error) {
	if p.building[sec.name] {
		return nil, scriptErr(sec.line, "section [%s] references itself", sec.name)
	}
	p.building[sec.name] = true
	defer delete(p.building, sec.name)

	var out []Instruction
	for _, kv := range sec.kv {
		switch {
		case strings.HasPrefix(kv.key, "Mod\\"):
			// Escape for modify keys that would otherwise read as a
			// reserved key (a field literally named Type or Value inside
			// an AddField section, say). EmitScript writes the prefix
			// whenever the bare path would collide.
			out = append(out, &ModifyField{
				Path:  ParsePath(strings.TrimPrefix(kv.key, "Mod\\")),
				Value: parseExpr(kv.val),
			})
		case strings.HasPrefix(kv.key, "AddField"):
			in, err := p.addField(kv)
			if err != nil {
				return nil, err
			}
			out = append(out, in)
		case strings.HasPrefix(kv.key, "AddStruct"):
			in, err := p.addStruct(kv)
			if err != nil {
				return nil, err
			}
			out = append(out, in)
		case strings.HasPrefix(kv.key, "TOKEN_TABLE#"):
			id, err := strconv.Atoi(strings.TrimPrefix(kv.key, "TOKEN_TABLE#"))
			if err != nil {
				return nil, scriptErr(kv.line, "bad token id in %q", kv.key)
			}
			out = append(out, &RecordReference{Token: id, Path: ParsePath(kv.val)})
		default:
			out = append(out, &ModifyField{Path: ParsePath(kv.key), Value: parseExpr(kv.val)})
		}
	}
	return out, nil
}

func (p *scriptParser) childSection(kv kvPair) (*section, error) {
	child, ok := p.secs[kv.val]
	if !ok {
		return nil, scriptErr(kv.line, "child section [%s] not found", kv.val)
	}
	return child, nil
}

func (p *scriptParser) addField(kv kvPair) (Instruction, error) {
	child, err := p.childSection(kv)
	if err != nil {
		return nil, err
	}
	in := &AddField{}
	var nestedKV []kvPair
	for _, ckv := range child.kv {
		switch {
		case ckv.key == "Path":
			in.Path = ParsePath(ckv.val)
		case ckv.key == "Label":
			in.Label = ckv.val
		case ckv.key == "Type":
			t, ok := gff.FieldTypeFromName(ckv.val)
			if !ok {
				return nil, scriptErr(ckv.line, "unknown field type %q", ckv.val)
			}
			in.Type = t
		case ckv.key == "Value":
			in.Value = parseExpr(ckv.val)
		default:
			nestedKV = append(nestedKV, ckv)
		}
	}
	if in.Label == "" {
		return nil, scriptErr(child.line, "[%s] missing Label", child.name)
	}
	if in.Nested, err = p.instructions(&section{name: child.name, line: child.line, kv: nestedKV}); err != nil {
		return nil, err
	}
	return in, nil
}

func (p *scriptParser) addStruct(kv kvPair) (Instruction, error) {
	child, err := p.childSection(kv)
	if err != nil {
		return nil, err
	}
	in := &AddStructToList{}
	var nestedKV []kvPair
	for _, ckv := range child.kv {
		switch ckv.key {
		case "Path":
			in.Path = ParsePath(ckv.val)
		case "StructID":
			id, perr := strconv.ParseUint(ckv.val, 10, 32)
			if perr != nil {
				return nil, scriptErr(ckv.line, "bad StructID %q", ckv.val)
			}
			in.StructID = uint32(id)
		default:
			nestedKV = append(nestedKV, ckv)
		}
	}
	if in.Nested, err = p.instructions(&section{name: child.name, line: child.line, kv: nestedKV}); err != nil {
		return nil, err
	}
	return in, nil
}

func (p *scriptParser) tableSection(sec *section) (TableSection, error) {
	out := TableSection{Name: sec.name}
	for _, kv := range sec.kv {
		switch {
		case strings.HasPrefix(kv.key, "AddRow"):
			child, err := p.childSection(kv)
			if err != nil {
				return out, err
			}
			row, err := parseRow(child)
			if err != nil {
				return out, err
			}
			out.Rows = append(out.Rows, row)
		case strings.HasPrefix(kv.key, "Cell\\"):
			parts := strings.SplitN(kv.key, "\\", 3)
			if len(parts) != 3 {
				return out, scriptErr(kv.line, "cell key %q wants Cell\\row\\column", kv.key)
			}
			row, err := strconv.Atoi(parts[1])
			if err != nil {
				return out, scriptErr(kv.line, "bad row index in %q", kv.key)
			}
			out.Cells = append(out.Cells, CellSet{Row: row, Col: parts[2], Value: kv.val})
		default:
			return out, scriptErr(kv.line, "unexpected key %q in table section [%s]", kv.key, sec.name)
		}
	}
	return out, nil
}

func parseRow(sec *section) (RowAdd, error) {
	row := RowAdd{Cells: make(map[string]string)}
	for _, kv := range sec.kv {
		switch {
		case kv.key == "RowLabel":
			row.Label = kv.val
		case strings.HasPrefix(kv.key, "TOKEN_TABLE#"):
			id, err := strconv.Atoi(strings.TrimPrefix(kv.key, "TOKEN_TABLE#"))
			if err != nil {
				return row, scriptErr(kv.line, "bad token id in %q", kv.key)
			}
			tok := RowToken{ID: id}
			switch {
			case kv.val == "RowIndex":
				tok.Source = SourceRowIndex
			case kv.val == "RowLabel":
				tok.Source = SourceRowLabel
			case strings.HasPrefix(kv.val, "CellValue:"):
				tok.Source = SourceCellValue
				tok.Column = strings.TrimPrefix(kv.val, "CellValue:")
			default:
				return row, scriptErr(kv.line, "unknown token source %q", kv.val)
			}
			row.Tokens = append(row.Tokens, tok)
		default:
			row.Cells[kv.key] = kv.val
		}
	}
	return row, nil
}

func scriptErr(line int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if line > 0 {
		msg = fmt.Sprintf("line %d: %s", line, msg)
	}
	return errors.New(errors.PhaseScript, errors.KindInvalidData).Detail("%s", msg).Build()
}
