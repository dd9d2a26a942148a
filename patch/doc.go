// Package patch mutates trees through replayable instruction lists and
// welds tree diffs to tabular-row diffs with shared tokens.
//
// # Instructions
//
// A patch is an ordered list of instructions: ModifyField overwrites an
// existing field, AddField creates one, AddStructToList appends a list
// element, and RecordReference captures a field's address into a token.
// Nested instructions address paths relative to the node their parent
// creates, and the ListIndex placeholder resolves to the index of the
// element the enclosing AddStructToList appended.
//
// Apply runs instructions left to right. A failing instruction is logged
// and skipped; earlier mutations stay in place and the result reports
// everything that was passed over.
//
// # Tokens
//
// A TokenStore carries run state between producers and consumers: table
// tokens hold row indices, labels, cell values, or recorded tree
// addresses, and strref tokens hold talk table references. Address-bearing
// tokens re-read the tree when consumed, so later instructions observe
// earlier mutations.
//
// # Scripts
//
// ParseScript and EmitScript round-trip the sectioned key/value script
// form: a [files] listing, one section of instructions per tree file,
// a [2DAList] listing, and one section of row additions and cell edits
// per table. Modify keys whose path would read as a reserved key carry
// a Mod\ escape prefix. BuildScript generates such a script from diffs, inferring
// which tree literals reference freshly added table rows and rewriting
// them as token references.
package patch
