package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func onePercentEngine() *Engine {
	return NewEngine(decimal.NewFromFloat(0.01))
}

func TestCompareExactMatch(t *testing.T) {
	report := onePercentEngine().Compare(
		OrderData{PONumber: "PO-20260831-0001", VendorName: "Acme Corporation", TotalAmount: decimal.RequireFromString("500.00")},
		ReceiptData{VendorName: strPtr("Acme Corporation"), TotalAmount: decPtr("500.00")},
	)
	require.True(t, report.Valid)
	require.Empty(t, report.Discrepancies)
	require.Equal(t, "PO-20260831-0001", report.PONumber)
}

func TestCompareAmountWithinTolerance(t *testing.T) {
	// 1% of 500.00 is 5.00, a 4.99 difference passes
	report := onePercentEngine().Compare(
		OrderData{VendorName: "Acme Corporation", TotalAmount: decimal.RequireFromString("500.00")},
		ReceiptData{VendorName: strPtr("Acme Corporation"), TotalAmount: decPtr("504.99")},
	)
	require.True(t, report.Valid)
	require.Empty(t, report.Discrepancies)
}

func TestCompareAmountBeyondTolerance(t *testing.T) {
	report := onePercentEngine().Compare(
		OrderData{VendorName: "Acme Corporation", TotalAmount: decimal.RequireFromString("500.00")},
		ReceiptData{VendorName: strPtr("Acme Corporation"), TotalAmount: decPtr("550.00")},
	)
	require.False(t, report.Valid)
	require.Len(t, report.Discrepancies, 1)

	d := report.Discrepancies[0]
	require.Equal(t, "total_amount", d.Field)
	require.Equal(t, SeverityHigh, d.Severity)
	require.Equal(t, "500.00", d.POValue)
	require.Equal(t, "550.00", d.ReceiptValue)
}

func TestCompareMissingFieldsAreAdvisory(t *testing.T) {
	report := onePercentEngine().Compare(
		OrderData{VendorName: "Acme Corporation", TotalAmount: decimal.RequireFromString("500.00")},
		ReceiptData{},
	)
	require.True(t, report.Valid, "unextractable fields must not invalidate the report")
	require.Len(t, report.Discrepancies, 2)
	for _, d := range report.Discrepancies {
		require.Equal(t, SeverityLow, d.Severity)
		require.Empty(t, d.ReceiptValue)
	}
}

func TestCompareVendorNormalization(t *testing.T) {
	// punctuation, case and whitespace differences are not discrepancies
	report := onePercentEngine().Compare(
		OrderData{VendorName: "Acme Co.", TotalAmount: decimal.RequireFromString("100.00")},
		ReceiptData{VendorName: strPtr("ACME  CO"), TotalAmount: decPtr("100.00")},
	)
	require.True(t, report.Valid)
	require.Empty(t, report.Discrepancies)
}

func TestCompareVendorNearMatch(t *testing.T) {
	report := onePercentEngine().Compare(
		OrderData{VendorName: "Acme Corporation", TotalAmount: decimal.RequireFromString("100.00")},
		ReceiptData{VendorName: strPtr("Acme Corp"), TotalAmount: decPtr("100.00")},
	)
	require.True(t, report.Valid)
	require.Len(t, report.Discrepancies, 1)
	require.Equal(t, "vendor_name", report.Discrepancies[0].Field)
	require.Equal(t, SeverityLow, report.Discrepancies[0].Severity)
}

func TestCompareVendorDisjoint(t *testing.T) {
	report := onePercentEngine().Compare(
		OrderData{VendorName: "Acme Corporation", TotalAmount: decimal.RequireFromString("100.00")},
		ReceiptData{VendorName: strPtr("Globex Industries"), TotalAmount: decPtr("100.00")},
	)
	require.False(t, report.Valid)
	require.Len(t, report.Discrepancies, 1)
	require.Equal(t, SeverityHigh, report.Discrepancies[0].Severity)
}

func TestStructuralFailure(t *testing.T) {
	report := StructuralFailure("could not extract text from receipt")
	require.False(t, report.Valid)
	require.Equal(t, "could not extract text from receipt", report.Error)
	require.NotNil(t, report.Discrepancies)
	require.Empty(t, report.Discrepancies)
}

func TestHasHighSeverity(t *testing.T) {
	require.False(t, Report{Discrepancies: []Discrepancy{{Severity: SeverityLow}}}.HasHighSeverity())
	require.True(t, Report{Discrepancies: []Discrepancy{{Severity: SeverityLow}, {Severity: SeverityHigh}}}.HasHighSeverity())
}

func TestNormalizeVendor(t *testing.T) {
	require.Equal(t, "acme co", normalizeVendor("  Acme   Co. "))
	require.Equal(t, normalizeVendor("O'Brien & Sons"), normalizeVendor("obrien  sons"))
}
