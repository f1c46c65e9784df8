package reconcile

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestExtractLabeledReceipt(t *testing.T) {
	receipt := `Vendor: Acme Corporation
Date: 2026-08-30
Office Chairs    $350.00
Desk Lamps       $150.00
Total: $500.00
`
	data, err := NewTextExtractor().Extract(context.Background(), []byte(receipt))
	require.NoError(t, err)

	require.NotNil(t, data.VendorName)
	require.Equal(t, "Acme Corporation", *data.VendorName)
	require.NotNil(t, data.TotalAmount)
	require.True(t, data.TotalAmount.Equal(decimal.RequireFromString("500.00")))
	require.Len(t, data.Items, 2)
	require.Equal(t, "Office Chairs", data.Items[0].Description)
	require.True(t, data.Items[0].TotalPrice.Equal(decimal.RequireFromString("350.00")))
}

func TestExtractHeaderVendor(t *testing.T) {
	receipt := "Globex Industries\nInvoice 2211\nAmount Due: 1,250.00\n"
	data, err := NewTextExtractor().Extract(context.Background(), []byte(receipt))
	require.NoError(t, err)

	require.NotNil(t, data.VendorName)
	require.Equal(t, "Globex Industries", *data.VendorName)
	require.NotNil(t, data.TotalAmount)
	require.True(t, data.TotalAmount.Equal(decimal.RequireFromString("1250.00")))
}

func TestExtractPartialReceipt(t *testing.T) {
	// no recognizable vendor line, but a total is enough to proceed
	data, err := NewTextExtractor().Extract(context.Background(), []byte("some scanned text\nGrand Total 42.50\n"))
	require.NoError(t, err)
	require.Nil(t, data.VendorName)
	require.NotNil(t, data.TotalAmount)
	require.True(t, data.TotalAmount.Equal(decimal.RequireFromString("42.50")))
}

func TestExtractUnreadable(t *testing.T) {
	extractor := NewTextExtractor()
	ctx := context.Background()

	_, err := extractor.Extract(ctx, nil)
	require.ErrorIs(t, err, ErrUnreadable)

	_, err = extractor.Extract(ctx, []byte("   \n\t "))
	require.ErrorIs(t, err, ErrUnreadable)

	binary := make([]byte, 128)
	for i := range binary {
		binary[i] = byte(i % 5)
	}
	_, err = extractor.Extract(ctx, binary)
	require.ErrorIs(t, err, ErrUnreadable)

	// readable text with nothing extractable is still unreadable as a receipt
	_, err = extractor.Extract(ctx, []byte("!!! ??? ..."))
	require.ErrorIs(t, err, ErrUnreadable)
}
