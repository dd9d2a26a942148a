package patch

import (
	"strconv"

	"github.com/modforge/gffkit/errors"
)

// tableToken is the value slot behind a table token id. It holds either a
// plain string or a recorded tree address that is re-read when the token is
// resolved.
type tableToken struct {
	literal string
	addr    Path
	isAddr  bool
}

// TokenStore carries the mutable token state of a patch run. Table tokens
// hold strings (row indices, labels, cell values, recorded addresses) and
// strref tokens hold talk table string references.
type TokenStore struct {
	table  map[int]tableToken
	strref map[int]int32
}

func NewTokenStore() *TokenStore {
	return &TokenStore{
		table:  make(map[int]tableToken),
		strref: make(map[int]int32),
	}
}

// SetTable assigns a literal string to a table token.
func (s *TokenStore) SetTable(id int, val string) {
	s.table[id] = tableToken{literal: val}
}

// SetTableInt assigns an integer to a table token, stored in decimal form.
func (s *TokenStore) SetTableInt(id, val int) {
	s.SetTable(id, strconv.Itoa(val))
}

// SetTableAddress records a tree address in a table token. The value at the
// address is read at resolution time, not at recording time.
func (s *TokenStore) SetTableAddress(id int, p Path) {
	s.table[id] = tableToken{addr: p, isAddr: true}
}

// SetStrref assigns a talk table string reference to a strref token.
func (s *TokenStore) SetStrref(id int, ref int32) {
	s.strref[id] = ref
}

// Strref returns the string reference held by a strref token.
func (s *TokenStore) Strref(id int) (int32, bool) {
	ref, ok := s.strref[id]
	return ref, ok
}

// Table returns the literal held by a table token. Address-bearing tokens
// report false here; they resolve only against a tree during apply.
func (s *TokenStore) Table(id int) (string, bool) {
	tok, ok := s.table[id]
	if !ok || tok.isAddr {
		return "", false
	}
	return tok.literal, true
}

func (s *TokenStore) lookupTable(id int) (tableToken, error) {
	tok, ok := s.table[id]
	if !ok {
		return tableToken{}, errors.UnresolvedToken(errors.PhaseApply, id)
	}
	return tok, nil
}

func (s *TokenStore) lookupStrref(id int) (int32, error) {
	ref, ok := s.strref[id]
	if !ok {
		return 0, errors.UnresolvedToken(errors.PhaseApply, id)
	}
	return ref, nil
}
