package docnum_test

import (
	"testing"
	"time"

	"procureflow-api-server/internal/docnum"

	"github.com/stretchr/testify/assert"
)

func TestGRNNumber(t *testing.T) {
	sep := time.Date(2026, 9, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "GRN-2026-09-00001", docnum.GRNNumber(sep, 1))
	assert.Equal(t, "GRN-2026-09-00042", docnum.GRNNumber(sep, 42))
	assert.Equal(t, "GRN-2026-09-12345", docnum.GRNNumber(sep, 12345))

	jan := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "GRN-2027-01-00001", docnum.GRNNumber(jan, 1))
}

func TestInspectionNumber(t *testing.T) {
	sep := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "INSP-202609-0001", docnum.InspectionNumber(sep, 1))
	assert.Equal(t, "INSP-202609-0100", docnum.InspectionNumber(sep, 100))
}

func TestPOAndRFQNumbers(t *testing.T) {
	sep := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "PO-202609-0001", docnum.PONumber(sep, 1))
	assert.Equal(t, "RFQ-202609-0007", docnum.RFQNumber(sep, 7))
}

func TestInvoiceNumberForGRN(t *testing.T) {
	assert.Equal(t, "INV-2026-09-00001", docnum.InvoiceNumberForGRN("GRN-2026-09-00001"))
	assert.Equal(t, "INV-2027-01-00042", docnum.InvoiceNumberForGRN("GRN-2027-01-00042"))
}

func TestMonthRange(t *testing.T) {
	t.Run("mid-month", func(t *testing.T) {
		start, end := docnum.MonthRange(time.Date(2026, 9, 15, 13, 45, 0, 0, time.UTC))
		assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), end)
	})

	t.Run("december rolls into january", func(t *testing.T) {
		start, end := docnum.MonthRange(time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC))
		assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), end)
	})

	t.Run("first instant of month stays in month", func(t *testing.T) {
		start, end := docnum.MonthRange(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), end)
	})
}

func TestIsDup(t *testing.T) {
	assert.False(t, docnum.IsDup(nil))
	assert.False(t, docnum.IsDup(assert.AnError))
}
