package core

import "testing"

func TestFormatDocumentNumber(t *testing.T) {
	if got := FormatDocumentNumber(DocQuotation, 2024, 17); got != "QT-2024-00017" {
		t.Errorf("got %s", got)
	}
	if got := FormatDocumentNumber(DocInvoice, 2025, 123456); got != "INV-2025-123456" {
		t.Errorf("got %s", got)
	}
}
