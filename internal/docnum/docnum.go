// server/internal/docnum/docnum.go
//
// Package docnum formats the human-readable document numbers used across the
// procurement flow. Sequences reset every calendar month and come from
// counting existing documents in the month window; the count-then-format step
// is not atomic against concurrent creators, so true uniqueness is enforced
// by a unique index on the stored number. Callers must treat a duplicate-key
// insert as a lost race: regenerate the number and retry a bounded number of
// times (see MaxRetries) before surfacing the failure.
package docnum

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// MaxRetries bounds the regenerate-and-retry loop after a duplicate number.
const MaxRetries = 3

// ErrDuplicateNumber is returned when every retry lost the numbering race.
var ErrDuplicateNumber = errors.New("duplicate document number")

// GRNNumber formats "GRN-<yyyy>-<mm>-<seq>" with a 5-digit sequence,
// e.g. GRN-2026-09-00001. seq is 1-based within the month.
func GRNNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("GRN-%04d-%02d-%05d", t.Year(), int(t.Month()), seq)
}

// InspectionNumber formats "INSP-<yyyymm>-<seq>" with a 4-digit sequence,
// e.g. INSP-202609-0001. The padding width differs from GRN numbers on
// purpose; both forms are preserved literally.
func InspectionNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("INSP-%04d%02d-%04d", t.Year(), int(t.Month()), seq)
}

// PONumber formats "PO-<yyyymm>-<seq>" with a 4-digit sequence.
func PONumber(t time.Time, seq int64) string {
	return fmt.Sprintf("PO-%04d%02d-%04d", t.Year(), int(t.Month()), seq)
}

// RFQNumber formats "RFQ-<yyyymm>-<seq>" with a 4-digit sequence.
func RFQNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("RFQ-%04d%02d-%04d", t.Year(), int(t.Month()), seq)
}

// InvoiceNumberForGRN derives the invoice number from a GRN number by prefix
// swap. It is deterministic, never independently sequenced, which guarantees
// 1:1 traceability between a GRN and its eventual invoice.
func InvoiceNumberForGRN(grnNumber string) string {
	return "INV" + strings.TrimPrefix(grnNumber, "GRN")
}

// MonthRange returns [first of month, first of next month) around t, the
// window used to count documents for the monthly sequence.
func MonthRange(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 1, 0)
	return start, end
}

// IsDup reports whether err is a MongoDB duplicate-key error (code 11000),
// i.e. the unique index on the document number rejected a racing writer.
func IsDup(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
