// Package gffkit is a toolkit for BioWare GFF resources: a byte-faithful
// binary codec, a structural diff engine, and a token-linked patch system
// that replays modifications across save-compatible files.
//
// The packages compose as a pipeline:
//
//   - gff decodes and encodes the binary tree format and detects what a
//     file on disk actually is.
//   - diff compares two trees and reports every difference with a stable
//     backslash path.
//   - tabular models row-level differences of 2DA-style tables, the other
//     half of a typical game modification.
//   - patch turns diffs into replayable instruction scripts, welding tree
//     and table changes together with shared tokens so cross-references
//     survive replay against shifted row indices.
//
// cmd/gffpatch wraps the pipeline in a command line tool with an
// interactive diff browser.
package gffkit
