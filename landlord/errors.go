package landlord

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrWorkbookNotFound is returned when the workbook path does not exist.
var ErrWorkbookNotFound = errors.New("workbook not found")

// SheetNotFoundError is returned when a named sheet is absent from the
// workbook. Carries the available sheet names so the caller can report them.
type SheetNotFoundError struct {
	Sheet     string
	Available []string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet %q not found in workbook (available sheets: %s)",
		e.Sheet, strings.Join(e.Available, ", "))
}

// StructureError collects every stage-1 structural problem so the caller
// can report them all at once instead of one per attempt. Fatal for the
// whole file: no partial output is produced.
type StructureError struct {
	Problems []string
}

func (e *StructureError) Error() string {
	return "workbook validation failed: " + strings.Join(e.Problems, "; ")
}
