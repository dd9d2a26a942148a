package patch

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/modforge/gffkit/diff"
	"github.com/modforge/gffkit/errors"
	"github.com/modforge/gffkit/gff"
	"github.com/modforge/gffkit/tabular"
)

// FileDiff pairs the two versions of one tree file with their comparison.
// Result may be nil, in which case BuildScript computes it.
type FileDiff struct {
	Name string
	Old  *gff.Tree
	New  *gff.Tree

	Result *diff.Result
}

// BuildScript welds table diffs and tree diffs into one replayable
// script. Tree differences become instructions; then every new scalar
// literal that matches content produced by an added table row is rewritten
// to consume a table token, and the producing row is annotated to set it.
//
// A literal matching added rows in more than one table stays a literal.
// Within one table the highest-index matching row wins.
func BuildScript(tables []tabular.TableDiff, files []FileDiff) (*Script, error) {
	s := &Script{}
	lk := &linker{log: Logger()}

	// Candidates hold pointers into s.Tables; reserve capacity up front
	// so later appends cannot move the backing array.
	s.Tables = make([]TableSection, 0, len(tables))

	for _, td := range tables {
		if len(td.AddedRows) == 0 && len(td.ChangedCells) == 0 && len(td.AddedColumns) == 0 {
			continue
		}
		sec := TableSection{Name: td.Name}
		for _, c := range td.ChangedCells {
			sec.Cells = append(sec.Cells, CellSet{Row: c.Row, Col: c.Col, Value: c.New})
		}
		for _, row := range td.AddedRows {
			cells := make(map[string]string, len(row.Cells))
			for k, v := range row.Cells {
				cells[k] = v
			}
			sec.Rows = append(sec.Rows, RowAdd{Label: row.Label, Cells: cells})
		}
		s.Tables = append(s.Tables, sec)
		lk.addCandidates(td, &s.Tables[len(s.Tables)-1])
	}

	for _, fd := range files {
		res := fd.Result
		if res == nil {
			res = diff.Compare(fd.Old, fd.New, diff.Options{IgnoreDefaultAdditions: true})
		}
		if res.Status == diff.Error {
			return nil, errors.New(errors.PhaseLink, errors.KindInvalidData).
				Detail("comparison of %s failed", fd.Name).
				Build()
		}
		if res.Status == diff.Identical {
			continue
		}
		instrs, err := lk.fileInstructions(fd, res)
		if err != nil {
			return nil, err
		}
		if len(instrs) > 0 {
			s.Files = append(s.Files, FileSection{Name: fd.Name, Instructions: instrs})
		}
	}

	lk.linkTokens()
	return s, nil
}

// candidate is one piece of content an added table row produces that a
// tree field could be referencing.
type candidate struct {
	table  string
	rowAdd *RowAdd
	rowIdx int // final row index in the modified table
	source RowTokenSource
	column string
	value  string
}

// consumer is one scalar destination in the generated instructions whose
// literal may need to become a token reference.
type consumer struct {
	expr   *ValueExpr
	newVal gff.Value
	oldVal *gff.Value // nil for added fields
	path   string     // for logs
}

type linker struct {
	log        *zap.Logger
	candidates []candidate
	consumers  []consumer
	tokens     map[tokenKey]int
	nextToken  int
}

type tokenKey struct {
	table  string
	rowIdx int
	source RowTokenSource
	column string
}

func (lk *linker) addCandidates(td tabular.TableDiff, sec *TableSection) {
	for i, row := range td.AddedRows {
		ra := &sec.Rows[i]
		lk.candidates = append(lk.candidates, candidate{
			table: td.Name, rowAdd: ra, rowIdx: row.Index,
			source: SourceRowIndex, value: strconv.Itoa(row.Index),
		})
		if row.Label != "" {
			lk.candidates = append(lk.candidates, candidate{
				table: td.Name, rowAdd: ra, rowIdx: row.Index,
				source: SourceRowLabel, value: row.Label,
			})
		}
		for col, v := range row.Cells {
			if v == "" {
				continue
			}
			lk.candidates = append(lk.candidates, candidate{
				table: td.Name, rowAdd: ra, rowIdx: row.Index,
				source: SourceCellValue, column: col, value: v,
			})
		}
	}
}

// fileInstructions converts one tree comparison into instructions,
// registering every scalar literal as a linkage consumer.
func (lk *linker) fileInstructions(fd FileDiff, res *diff.Result) ([]Instruction, error) {
	var out []Instruction
	for _, e := range res.Entries {
		p, ok := convPath(e.Path)
		if !ok {
			lk.log.Warn("difference outside root ignored",
				zap.String("file", fd.Name), zap.String("path", e.Path.String()))
			continue
		}
		switch e.Kind {
		case diff.ValueChanged:
			in := &ModifyField{Path: p, Value: Literal(e.New)}
			out = append(out, in)
			old := e.Old
			lk.consume(&in.Value, e.New, &old, fd.Name+":"+e.Path.String())
		case diff.FieldAdded:
			if len(p) == 0 || p[len(p)-1].IsIdx {
				continue
			}
			label := p[len(p)-1].Label
			in := lk.addFieldInstr(p[:len(p)-1], label, e.New, fd.Name+":"+e.Path.String())
			out = append(out, in)
		case diff.ListLengthMismatch:
			adds, err := lk.listGrowth(fd, e, p)
			if err != nil {
				return nil, err
			}
			if adds == nil {
				lk.log.Warn("list shrink is not replayable",
					zap.String("file", fd.Name), zap.String("path", e.Path.String()))
			}
			out = append(out, adds...)
		default:
			// Removals, retypes, and struct id changes have no
			// instruction form.
			lk.log.Warn("difference is not replayable",
				zap.String("file", fd.Name),
				zap.String("path", e.Path.String()),
				zap.String("kind", e.Kind.String()))
		}
	}
	return out, nil
}

func (lk *linker) addFieldInstr(parent Path, label string, v gff.Value, logPath string) *AddField {
	in := &AddField{Path: parent, Label: label, Type: v.Type()}
	switch v.Type() {
	case gff.FieldStruct:
		s, _ := v.AsStruct()
		in.Value = RawLiteral(strconv.FormatUint(uint64(s.ID()), 10))
		in.Nested = lk.structInstructions(s, logPath)
	case gff.FieldList:
		l, _ := v.AsList()
		for i, elem := range l.Structs() {
			in.Nested = append(in.Nested, lk.structAddInstr(nil, elem, logPath+"\\"+strconv.Itoa(i)))
		}
	default:
		in.Value = Literal(v)
		lk.consume(&in.Value, v, nil, logPath)
	}
	return in
}

// structInstructions materializes the fields of an added struct as nested
// instructions, relative to the struct itself.
func (lk *linker) structInstructions(s *gff.Struct, logPath string) []Instruction {
	var out []Instruction
	for i := 0; i < s.Len(); i++ {
		label, v := s.Field(i)
		out = append(out, lk.addFieldInstr(nil, label, v, logPath+"\\"+label))
	}
	return out
}

// structAddInstr builds the AddStructToList for one appended element.
func (lk *linker) structAddInstr(listPath Path, elem *gff.Struct, logPath string) *AddStructToList {
	return &AddStructToList{
		Path:     listPath,
		StructID: elem.ID(),
		Nested:   lk.structInstructions(elem, logPath),
	}
}

// listGrowth turns a grown list into per-element append instructions.
// Shrinks return nil.
func (lk *linker) listGrowth(fd FileDiff, e diff.Entry, p Path) ([]Instruction, error) {
	oldList, err := resolveList(fd.Old.Root, p, -1)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLink, errors.KindNotFound, err, "list "+e.Path.String()+" in old tree")
	}
	newList, err := resolveList(fd.New.Root, p, -1)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLink, errors.KindNotFound, err, "list "+e.Path.String()+" in new tree")
	}
	if newList.Len() <= oldList.Len() {
		return nil, nil
	}
	var out []Instruction
	for i := oldList.Len(); i < newList.Len(); i++ {
		elem, _ := newList.At(i)
		out = append(out, lk.structAddInstr(p, elem, fd.Name+":"+e.Path.String()+"\\"+strconv.Itoa(i)))
	}
	return out, nil
}

func (lk *linker) consume(expr *ValueExpr, newVal gff.Value, oldVal *gff.Value, path string) {
	switch newVal.Type() {
	case gff.FieldVoid, gff.FieldVector, gff.FieldOrientation,
		gff.FieldStruct, gff.FieldList, gff.FieldLocString:
		return
	}
	lk.consumers = append(lk.consumers, consumer{expr: expr, newVal: newVal, oldVal: oldVal, path: path})
}

// linkTokens rewrites consumers whose new value matches exactly one added
// row's content, allocating token ids and annotating the producing rows.
func (lk *linker) linkTokens() {
	for i := range lk.consumers {
		c := &lk.consumers[i]
		matches := lk.matchesFor(c)
		if len(matches) == 0 {
			continue
		}
		best, ok := pickMatch(matches)
		if !ok {
			lk.log.Warn("ambiguous token reference left literal",
				zap.String("path", c.path),
				zap.String("value", c.newVal.String()),
				zap.Int("candidates", len(matches)))
			continue
		}
		id := lk.tokenFor(best)
		*c.expr = TableToken(id)
	}
}

func (lk *linker) matchesFor(c *consumer) []candidate {
	var out []candidate
	for _, cand := range lk.candidates {
		if !valueMatches(c.newVal, cand.value) {
			continue
		}
		if c.oldVal != nil && valueMatches(*c.oldVal, cand.value) {
			continue
		}
		out = append(out, cand)
	}
	return out
}

// pickMatch reduces matching candidates to one. Candidates from the same
// row collapse onto the strongest source (index, then label, then cell);
// distinct rows in one table resolve to the highest index; rows across
// tables are ambiguous.
func pickMatch(matches []candidate) (candidate, bool) {
	byRow := make(map[tokenKey]candidate)
	for _, m := range matches {
		key := tokenKey{table: m.table, rowIdx: m.rowIdx}
		cur, seen := byRow[key]
		if !seen || m.source < cur.source {
			byRow[key] = m
		}
	}
	var best candidate
	first := true
	for _, m := range byRow {
		if first {
			best = m
			first = false
			continue
		}
		if m.table != best.table {
			return candidate{}, false
		}
		if m.rowIdx > best.rowIdx {
			best = m
		}
	}
	return best, true
}

func (lk *linker) tokenFor(c candidate) int {
	if lk.tokens == nil {
		lk.tokens = make(map[tokenKey]int)
	}
	key := tokenKey{table: c.table, rowIdx: c.rowIdx, source: c.source, column: c.column}
	if id, ok := lk.tokens[key]; ok {
		return id
	}
	id := lk.nextToken
	lk.nextToken++
	lk.tokens[key] = id
	c.rowAdd.Tokens = append(c.rowAdd.Tokens, RowToken{ID: id, Source: c.source, Column: c.column})
	return id
}

// valueMatches reports whether a tree value references a candidate's
// content, numerically for number-shaped pairs and textually otherwise.
func valueMatches(v gff.Value, cand string) bool {
	if n, ok := v.Num(); ok {
		if cn, err := strconv.ParseFloat(cand, 64); err == nil {
			return n == cn
		}
		return false
	}
	return v.String() == cand
}

// convPath converts a comparison path to an instruction path, dropping
// the Root prefix.
func convPath(p diff.Path) (Path, bool) {
	if len(p) == 0 || p[0].IsIdx || p[0].Label != "Root" {
		return nil, false
	}
	out := make(Path, 0, len(p)-1)
	for _, seg := range p[1:] {
		if seg.IsIdx {
			out = append(out, Segment{Idx: seg.Idx, IsIdx: true})
		} else {
			out = append(out, Segment{Label: seg.Label})
		}
	}
	return out, true
}
