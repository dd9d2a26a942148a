// Package diff compares two GFF trees and reports every difference with a
// stable, path-addressed entry list.
//
// The comparison is a recursive walk driven by the old tree: a label must
// exist in the new tree with the same field type; nested structs must agree
// on struct_id before recursing; lists compare element-wise by position,
// never by content matching. Scalars compare exactly (floats bit-for-bit,
// resource names case-insensitively).
//
//	res := diff.Compare(oldTree, newTree, diff.Options{})
//	if res.Status == diff.Modified {
//	    for _, e := range res.Entries {
//	        fmt.Println(e)
//	    }
//	}
//
// A structural difference is an ordinary Modified result; only unusable
// inputs produce Error. The walk performs no mutation and its output order
// is deterministic for a fixed pair of trees.
package diff
