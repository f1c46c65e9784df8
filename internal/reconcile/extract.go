package reconcile

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnreadable is returned when no structured data can be pulled from a
// receipt at all (corrupt or empty document).
var ErrUnreadable = errors.New("could not extract text from receipt")

// Extractor turns a raw receipt document into structured fields. The OCR/AI
// extraction service is an external collaborator behind this interface; the
// shipped TextExtractor covers plain-text receipts with rule-based parsing.
type Extractor interface {
	Extract(ctx context.Context, content []byte) (ReceiptData, error)
}

// TextExtractor scrapes vendor, total and line items out of receipt text
// with regular expressions.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

var (
	vendorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^(?:From|Vendor|Store|Merchant):?\s*([A-Za-z0-9&.,' ]+?)\s*$`),
		regexp.MustCompile(`(?im)^([A-Za-z0-9&.,' ]+?)\s*\n(?:Receipt|Invoice|Bill)`),
	}
	totalPattern = regexp.MustCompile(`(?im)(?:Total|Amount Due|Grand Total)[^0-9$]*\$?\s*([0-9,]+\.?[0-9]*)`)
	itemPattern  = regexp.MustCompile(`(?m)^([A-Za-z][A-Za-z ]{3,})\s+\$?(\d+\.?\d*)\s*$`)
)

func (e *TextExtractor) Extract(_ context.Context, content []byte) (ReceiptData, error) {
	text := strings.TrimSpace(string(content))
	if text == "" || !isMostlyText(content) {
		return ReceiptData{}, ErrUnreadable
	}

	data := ReceiptData{}
	if vendor := extractVendor(text); vendor != "" {
		data.VendorName = &vendor
	}
	if total, ok := extractTotal(text); ok {
		data.TotalAmount = &total
	}
	data.Items = extractItems(text)

	if data.VendorName == nil && data.TotalAmount == nil && len(data.Items) == 0 {
		return ReceiptData{}, ErrUnreadable
	}
	return data, nil
}

func extractVendor(text string) string {
	for _, p := range vendorPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func extractTotal(text string) (decimal.Decimal, bool) {
	m := totalPattern.FindStringSubmatch(text)
	if m == nil {
		return decimal.Decimal{}, false
	}
	total, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return total, true
}

func extractItems(text string) []LineItem {
	var items []LineItem
	for _, m := range itemPattern.FindAllStringSubmatch(text, -1) {
		desc := strings.TrimSpace(m[1])
		if strings.EqualFold(desc, "total") || strings.EqualFold(desc, "amount due") {
			continue
		}
		price, err := decimal.NewFromString(m[2])
		if err != nil {
			continue
		}
		items = append(items, LineItem{
			Description: desc,
			Quantity:    1,
			UnitPrice:   price,
			TotalPrice:  price,
		})
	}
	return items
}

// isMostlyText rejects binary uploads the rule-based extractor cannot read.
func isMostlyText(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	sample := content
	if len(sample) > 512 {
		sample = sample[:512]
	}
	printable := 0
	for _, b := range sample {
		if b == '\n' || b == '\r' || b == '\t' || (b >= 0x20 && b < 0x7f) {
			printable++
		}
	}
	return float64(printable)/float64(len(sample)) > 0.9
}
