package diff

import (
	"strconv"
	"strings"
)

// Segment is one step in a tree path: a struct field label or a list index.
type Segment struct {
	Label string
	Idx   int
	IsIdx bool
}

// Path addresses a node in a tree as a label/index chain. Paths render with
// backslash separators, the convention the surrounding tooling uses:
// Root\CreatureList\0\GuaranteedCount.
type Path []Segment

// Child returns a new path extended by a field label.
func (p Path) Child(label string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, Segment{Label: label})
}

// Index returns a new path extended by a list index.
func (p Path) Index(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, Segment{Idx: i, IsIdx: true})
}

// String renders the path.
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if i > 0 {
			b.WriteByte('\\')
		}
		if s.IsIdx {
			b.WriteString(strconv.Itoa(s.Idx))
		} else {
			b.WriteString(s.Label)
		}
	}
	return b.String()
}
