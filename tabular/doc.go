// Package tabular defines the lookup contracts for the 2DA tabular and TLK
// talk-table collaborators, the row-level diff model consumed by token
// linkage inference, and in-memory implementations for tests.
//
// The real 2DA and TLK codecs live elsewhere; the patch pipeline only ever
// needs (row, column) -> string and (index) -> string lookups plus a row
// diff, so those are the whole surface here.
package tabular
