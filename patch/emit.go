package patch

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// EmitScript writes a script in the sectioned key/value form ParseScript
// reads. Output is deterministic: sections appear in listing order, child
// sections are numbered in generation order, and row cells are sorted by
// column name.
func EmitScript(s *Script, w io.Writer) error {
	e := &emitter{w: w}

	if len(s.Files) > 0 {
		e.header(filesSection)
		for i, f := range s.Files {
			e.kv("File"+strconv.Itoa(i), f.Name)
		}
		e.blank()
	}
	for _, f := range s.Files {
		e.header(f.Name)
		e.instructions(f.Instructions)
		e.blank()
	}
	e.flushChildren()

	if len(s.Tables) > 0 {
		e.header(tablesSection)
		for i, t := range s.Tables {
			e.kv("Table"+strconv.Itoa(i), t.Name)
		}
		e.blank()
	}
	for _, t := range s.Tables {
		e.header(t.Name)
		for _, c := range t.Cells {
			e.kv(fmt.Sprintf("Cell\\%d\\%s", c.Row, c.Col), c.Value)
		}
		for i, row := range t.Rows {
			name := e.childName("row")
			e.kv("AddRow"+strconv.Itoa(i), name)
			e.deferSection(name, func(e *emitter) {
				e.row(row)
			})
		}
		e.blank()
		e.flushChildren()
	}
	return e.err
}

type emitter struct {
	w   io.Writer
	err error

	counters map[string]int
	children []deferred
}

type deferred struct {
	name string
	body func(*emitter)
}

func (e *emitter) write(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

func (e *emitter) header(name string) { e.write("[" + name + "]\n") }
func (e *emitter) kv(k, v string)     { e.write(k + "=" + v + "\n") }
func (e *emitter) blank()             { e.write("\n") }

func (e *emitter) childName(prefix string) string {
	if e.counters == nil {
		e.counters = make(map[string]int)
	}
	n := e.counters[prefix]
	e.counters[prefix]++
	return prefix + "_" + strconv.Itoa(n)
}

func (e *emitter) deferSection(name string, body func(*emitter)) {
	e.children = append(e.children, deferred{name: name, body: body})
}

// flushChildren writes deferred child sections, including any their
// bodies add in turn.
func (e *emitter) flushChildren() {
	for len(e.children) > 0 {
		batch := e.children
		e.children = nil
		for _, c := range batch {
			e.header(c.name)
			c.body(e)
			e.blank()
		}
	}
}

func (e *emitter) instructions(instrs []Instruction) {
	addField, addStruct := 0, 0
	for _, in := range instrs {
		switch in := in.(type) {
		case *ModifyField:
			e.kv(modifyKey(in.Path), in.Value.scriptForm())
		case *AddField:
			name := e.childName("field")
			e.kv("AddField"+strconv.Itoa(addField), name)
			addField++
			e.deferSection(name, func(e *emitter) {
				e.kv("Path", in.Path.String())
				e.kv("Label", in.Label)
				e.kv("Type", in.Type.String())
				e.kv("Value", in.Value.scriptForm())
				e.instructions(in.Nested)
			})
		case *AddStructToList:
			name := e.childName("struct")
			e.kv("AddStruct"+strconv.Itoa(addStruct), name)
			addStruct++
			e.deferSection(name, func(e *emitter) {
				e.kv("Path", in.Path.String())
				e.kv("StructID", strconv.FormatUint(uint64(in.StructID), 10))
				e.instructions(in.Nested)
			})
		case *RecordReference:
			e.kv("TOKEN_TABLE#"+strconv.Itoa(in.Token), in.Path.String())
		}
	}
}

// modifyKey renders a modify path as a script key, escaping it with the
// Mod\ prefix when the bare rendering would be taken for a reserved key.
// ParseScript strips exactly one Mod\ prefix, so paths whose first segment
// is literally "Mod" escape too.
func modifyKey(p Path) string {
	key := p.String()
	switch key {
	case "Path", "Label", "Type", "Value", "StructID", "RowLabel":
		return "Mod\\" + key
	}
	for _, prefix := range []string{"Mod\\", "AddField", "AddStruct", "TOKEN_TABLE#", "Cell\\"} {
		if strings.HasPrefix(key, prefix) {
			return "Mod\\" + key
		}
	}
	return key
}

func (e *emitter) row(row RowAdd) {
	e.kv("RowLabel", row.Label)
	for _, tok := range row.Tokens {
		val := tok.Source.String()
		if tok.Source == SourceCellValue {
			val = "CellValue:" + tok.Column
		}
		e.kv("TOKEN_TABLE#"+strconv.Itoa(tok.ID), val)
	}
	cols := make([]string, 0, len(row.Cells))
	for c := range row.Cells {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	for _, c := range cols {
		e.kv(c, row.Cells[c])
	}
}

// EmitScriptString renders the script to a string.
func EmitScriptString(s *Script) (string, error) {
	var b strings.Builder
	if err := EmitScript(s, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
