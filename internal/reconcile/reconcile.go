// Package reconcile compares a submitted receipt against the authoritative
// purchase order and produces a field-level discrepancy report.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
)

// Discrepancy severities. A report is valid iff it carries no high-severity
// discrepancy; low-severity findings are advisory.
const (
	SeverityLow  = "low"
	SeverityHigh = "high"
)

// LineItem is a single purchased line extracted from a receipt.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// ReceiptData is the structured output of a receipt extraction collaborator.
// Nil pointers mean the field could not be extracted.
type ReceiptData struct {
	VendorName  *string          `json:"vendor_name"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	ReceiptDate string           `json:"receipt_date,omitempty"`
	Items       []LineItem       `json:"items,omitempty"`
}

// OrderData is the purchase order side of the comparison.
type OrderData struct {
	PONumber    string          `json:"po_number"`
	VendorName  string          `json:"vendor_name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Discrepancy is one field-level mismatch between PO and receipt.
type Discrepancy struct {
	Field        string `json:"field"`
	POValue      string `json:"po_value"`
	ReceiptValue string `json:"receipt_value"`
	Severity     string `json:"severity"`
	Message      string `json:"message"`
}

// Report is the outcome of one reconciliation attempt. Error is set only on
// structural extraction failure, in which case Discrepancies is empty.
type Report struct {
	Valid         bool          `json:"valid"`
	Error         string        `json:"error,omitempty"`
	Discrepancies []Discrepancy `json:"discrepancies"`
	PONumber      string        `json:"po_number,omitempty"`
}

// HasHighSeverity reports whether any discrepancy is severe enough to
// invalidate the reconciliation.
func (r Report) HasHighSeverity() bool {
	for _, d := range r.Discrepancies {
		if d.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// vendor names closer than this (normalized levenshtein distance over the
// longer name) count as a near match
const vendorDisjointRatio = 0.5

// Engine compares receipts against purchase orders with configurable
// amount tolerance (a fraction of the PO total, e.g. 0.01 for 1%).
type Engine struct {
	AmountTolerance decimal.Decimal
}

// NewEngine returns an Engine with the given fractional amount tolerance.
func NewEngine(tolerance decimal.Decimal) *Engine {
	return &Engine{AmountTolerance: tolerance}
}

// StructuralFailure builds the report for an unreadable receipt. The caller
// must not attach the receipt: state stays unchanged so the user can retry.
func StructuralFailure(reason string) Report {
	return Report{Valid: false, Error: reason, Discrepancies: []Discrepancy{}}
}

// Compare checks each extractable receipt field against the purchase order.
// Unextractable fields produce low-severity findings rather than failures.
func (e *Engine) Compare(po OrderData, receipt ReceiptData) Report {
	report := Report{
		Discrepancies: []Discrepancy{},
		PONumber:      po.PONumber,
	}

	report.Discrepancies = append(report.Discrepancies, e.compareAmount(po, receipt)...)
	report.Discrepancies = append(report.Discrepancies, e.compareVendor(po, receipt)...)

	report.Valid = !report.HasHighSeverity()
	return report
}

func (e *Engine) compareAmount(po OrderData, receipt ReceiptData) []Discrepancy {
	if receipt.TotalAmount == nil {
		return []Discrepancy{{
			Field:        "total_amount",
			POValue:      po.TotalAmount.StringFixed(2),
			ReceiptValue: "",
			Severity:     SeverityLow,
			Message:      "total amount could not be extracted from the receipt",
		}}
	}

	diff := po.TotalAmount.Sub(*receipt.TotalAmount).Abs()
	tolerance := po.TotalAmount.Mul(e.AmountTolerance)
	if diff.LessThanOrEqual(tolerance) {
		return nil
	}

	return []Discrepancy{{
		Field:        "total_amount",
		POValue:      po.TotalAmount.StringFixed(2),
		ReceiptValue: receipt.TotalAmount.StringFixed(2),
		Severity:     SeverityHigh,
		Message: fmt.Sprintf("amount differs by %s (PO %s vs receipt %s, tolerance %s)",
			diff.StringFixed(2), po.TotalAmount.StringFixed(2),
			receipt.TotalAmount.StringFixed(2), tolerance.StringFixed(2)),
	}}
}

func (e *Engine) compareVendor(po OrderData, receipt ReceiptData) []Discrepancy {
	if receipt.VendorName == nil || strings.TrimSpace(*receipt.VendorName) == "" {
		return []Discrepancy{{
			Field:        "vendor_name",
			POValue:      po.VendorName,
			ReceiptValue: "",
			Severity:     SeverityLow,
			Message:      "vendor name could not be extracted from the receipt",
		}}
	}

	poName := normalizeVendor(po.VendorName)
	receiptName := normalizeVendor(*receipt.VendorName)
	if poName == receiptName {
		return nil
	}

	severity := SeverityLow
	message := "vendor name differs slightly from purchase order"
	if vendorsDisjoint(poName, receiptName) {
		severity = SeverityHigh
		message = "vendor name does not match purchase order"
	}

	return []Discrepancy{{
		Field:        "vendor_name",
		POValue:      po.VendorName,
		ReceiptValue: *receipt.VendorName,
		Severity:     severity,
		Message:      message,
	}}
}

// normalizeVendor lowercases, strips punctuation and collapses whitespace so
// "Acme Co." and "ACME  CO" compare equal.
func normalizeVendor(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// vendorsDisjoint treats names as completely different when neither contains
// the other and their levenshtein distance exceeds half the longer name.
func vendorsDisjoint(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return false
	}

	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	dist := levenshtein.ComputeDistance(a, b)
	return float64(dist)/float64(longer) > vendorDisjointRatio
}
