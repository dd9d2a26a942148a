// Package errors provides structured error types for the gffkit library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: tree path, byte offset
// into the source, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTruncated).
//		Offset(1044).
//		Detail("field data ends inside CExoLocString substring").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidMagic(errors.PhaseDecode, magic)
//	err := errors.WrongContainer(errors.PhaseApply, path, "list", "struct")
//
// All errors implement the standard error interface and support errors.Is/As.
//
// Operating-system I/O errors are deliberately outside this taxonomy: a
// missing file or permission failure is returned as-is, never reclassified
// as a format error.
package errors
