package pdf_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/limaskap/limaskap/internal/providers/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptRendersPDF(t *testing.T) {
	doc, err := pdf.New().Receipt(context.Background(), pdf.ReceiptData{
		OrgName:       "Acme",
		ReceiptNumber: "program-1-abc",
		DatePaid:      "2026-03-01",
		ServicePeriod: "2026-06-01 - 2026-06-30",
		PayerName:     "Pál",
		MemberName:    "Jógvan Hansen",
		Items:         []pdf.ReceiptItem{{Description: "Swimming", Amount: "500,00 kr"}},
		Total:         "500,00 kr",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestReceiptRejectsEmptyData(t *testing.T) {
	_, err := pdf.New().Receipt(context.Background(), pdf.ReceiptData{})
	assert.ErrorIs(t, err, pdf.ErrInvalidReceipt)
}
