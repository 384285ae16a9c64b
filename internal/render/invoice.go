package render

import (
	"fmt"
	"strconv"

	"glass-shop/internal/core"
)

// InvoicePDF renders the full invoice with the shop letterhead and tax breakdown.
func InvoicePDF(shop *core.Shop, inv *core.Invoice) ([]byte, error) {
	d := newDocument("Invoice " + inv.InvoiceNumber)
	d.pdf.AddPage()
	d.letterhead(shop)

	title := "INVOICE"
	if inv.BillingType == core.BillingGST {
		title = "TAX INVOICE"
	}
	d.title(title)
	d.party(inv.CustomerSnapshot, [][2]string{
		{"Invoice No:", inv.InvoiceNumber},
		{"Date:", date(inv.InvoiceDate)},
		{"Status:", string(inv.PaymentStatus)},
	})

	withHSN := inv.BillingType == core.BillingGST
	cols := invoiceColumns(withHSN)
	d.tableHeader(cols)
	for _, it := range inv.Items {
		row := []string{strconv.Itoa(it.ItemOrder), describe(it)}
		if withHSN {
			row = append(row, it.HSNCode)
		}
		row = append(row, sizeLabel(it), strconv.Itoa(it.Quantity), it.Area.String(), money(it.RatePerSqft), money(it.Subtotal))
		d.tableRow(cols, row)
	}
	d.pdf.Ln(3)

	d.totals(inv.Charges)
	d.pdf.SetFont("Arial", "", 10)
	d.summary([][2]string{
		{"Paid", money(inv.PaidAmount)},
		{"Balance Due", money(inv.DueAmount)},
	})
	d.amountInWords(inv.GrandTotal)

	if shop.BankDetails != "" {
		d.pdf.Ln(3)
		d.pdf.SetFont("Arial", "B", 9)
		d.cell(0, 5, "Bank Details", "", 1, "L")
		d.pdf.SetFont("Arial", "", 9)
		d.pdf.MultiCell(contentWidth/2, 5, d.tr(shop.BankDetails), "", "L", false)
	}
	if inv.Notes != "" {
		d.pdf.Ln(2)
		d.pdf.SetFont("Arial", "", 9)
		d.pdf.MultiCell(contentWidth, 5, d.tr("Notes: "+inv.Notes), "", "L", false)
	}
	d.signature(shop.Name)
	return d.bytes()
}

// BasicInvoicePDF renders a plain bill without the shop identity or tax lines.
func BasicInvoicePDF(inv *core.Invoice) ([]byte, error) {
	d := newDocument("Invoice " + inv.InvoiceNumber)
	d.pdf.AddPage()
	d.title("INVOICE")
	d.party(inv.CustomerSnapshot, [][2]string{
		{"Invoice No:", inv.InvoiceNumber},
		{"Date:", date(inv.InvoiceDate)},
	})

	cols := invoiceColumns(false)
	d.tableHeader(cols)
	for _, it := range inv.Items {
		d.tableRow(cols, []string{
			strconv.Itoa(it.ItemOrder), describe(it), sizeLabel(it), strconv.Itoa(it.Quantity),
			it.Area.String(), money(it.RatePerSqft), money(it.Subtotal),
		})
	}
	d.pdf.Ln(3)

	d.pdf.SetFont("Arial", "B", 10)
	d.summary([][2]string{{"Total", money(inv.GrandTotal)}})
	d.pdf.SetFont("Arial", "", 10)
	d.summary([][2]string{
		{"Paid", money(inv.PaidAmount)},
		{"Balance Due", money(inv.DueAmount)},
	})
	d.amountInWords(inv.GrandTotal)
	return d.bytes()
}

func invoiceColumns(withHSN bool) []column {
	desc := 62.0
	cols := []column{{"#", 8, "C"}}
	if withHSN {
		desc -= 18
	}
	cols = append(cols, column{"Description", desc, "L"})
	if withHSN {
		cols = append(cols, column{"HSN", 18, "C"})
	}
	return append(cols,
		column{"Size", 32, "C"},
		column{"Qty", 13, "R"},
		column{"Sq.ft", 20, "R"},
		column{"Rate", 25, "R"},
		column{"Amount", 30, "R"},
	)
}

// ChallanPDF renders a delivery challan without prices. An original and a duplicate
// copy share a page when the items fit in half a page.
func ChallanPDF(shop *core.Shop, inv *core.Invoice) ([]byte, error) {
	d := newDocument("Challan " + inv.InvoiceNumber)
	copies := []string{"ORIGINAL", "DUPLICATE"}
	shared := len(inv.Items) <= challanRowsPerHalf

	for i, label := range copies {
		if i == 0 || !shared {
			d.pdf.AddPage()
		} else {
			d.pdf.SetY(halfPage)
			d.pdf.SetDashPattern([]float64{2, 2}, 0)
			d.pdf.Line(margin, halfPage-4, pageWidth-margin, halfPage-4)
			d.pdf.SetDashPattern([]float64{}, 0)
		}
		d.challanCopy(shop, inv, label)
	}
	return d.bytes()
}

const (
	halfPage           = 148.5
	challanRowsPerHalf = 8
)

var challanColumns = []column{
	{"#", 10, "C"},
	{"Description", 90, "L"},
	{"Size", 45, "C"},
	{"Qty", 20, "R"},
	{"Sq.ft", 25, "R"},
}

func (d *document) challanCopy(shop *core.Shop, inv *core.Invoice, label string) {
	d.pdf.SetFont("Arial", "B", 13)
	d.cell(contentWidth/2, 7, shop.Name, "", 0, "L")
	d.pdf.SetFont("Arial", "", 9)
	d.cell(contentWidth/2, 7, label+" COPY", "", 1, "R")
	if shop.Mobile != "" {
		d.cell(0, 5, "Mobile: "+shop.Mobile, "", 1, "L")
	}

	d.pdf.SetFont("Arial", "B", 12)
	d.cell(0, 7, "DELIVERY CHALLAN", "", 1, "C")
	d.pdf.SetFont("Arial", "", 9)
	d.cell(contentWidth/2, 5, "To: "+inv.Name, "", 0, "L")
	d.cell(contentWidth/2, 5, fmt.Sprintf("Ref: %s   Date: %s", inv.InvoiceNumber, date(inv.InvoiceDate)), "", 1, "R")
	if inv.Address != "" {
		d.cell(0, 5, inv.Address, "", 1, "L")
	}
	d.pdf.Ln(2)

	d.tableHeader(challanColumns)
	totalQty := 0
	for _, it := range inv.Items {
		totalQty += it.Quantity
		d.tableRow(challanColumns, []string{
			strconv.Itoa(it.ItemOrder), describe(it), sizeLabel(it), strconv.Itoa(it.Quantity), it.Area.String(),
		})
	}
	d.pdf.SetFont("Arial", "B", 9)
	d.cell(145, rowHeight, "Total pieces", "1", 0, "R")
	d.cell(20, rowHeight, strconv.Itoa(totalQty), "1", 0, "R")
	d.cell(25, rowHeight, "", "1", 1, "R")

	d.pdf.Ln(8)
	d.pdf.SetFont("Arial", "", 9)
	d.cell(contentWidth/2, 5, "Receiver's Signature", "", 0, "L")
	d.cell(contentWidth/2, 5, "For "+shop.Name, "", 1, "R")
}
