// Package render draws the printable documents of a shop: tax invoices, plain invoices,
// delivery challans and quotation cutting pads.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"glass-shop/internal/core"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const (
	pageWidth    = 210.0
	margin       = 10.0
	contentWidth = pageWidth - 2*margin
	rowHeight    = 7.0
)

type column struct {
	header string
	width  float64
	align  string
}

type document struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newDocument(title string) *document {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(title, true)
	pdf.SetCreator("glass-shop", true)
	return &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *document) cell(w, h float64, text, border string, ln int, align string) {
	d.pdf.CellFormat(w, h, d.tr(text), border, ln, align, false, 0, "")
}

func (d *document) letterhead(shop *core.Shop) {
	d.pdf.SetFont("Arial", "B", 16)
	d.cell(0, 8, shop.Name, "", 1, "C")

	d.pdf.SetFont("Arial", "", 9)
	if shop.Address != "" {
		d.cell(0, 5, shop.Address, "", 1, "C")
	}
	var contact []string
	if shop.Mobile != "" {
		contact = append(contact, "Mobile: "+shop.Mobile)
	}
	if shop.Email != "" {
		contact = append(contact, "Email: "+shop.Email)
	}
	if len(contact) > 0 {
		d.cell(0, 5, strings.Join(contact, "  |  "), "", 1, "C")
	}
	if shop.GSTIN != "" {
		state := shop.State
		if shop.StateCode != "" {
			state += " (" + shop.StateCode + ")"
		}
		d.cell(0, 5, fmt.Sprintf("GSTIN: %s   State: %s", shop.GSTIN, state), "", 1, "C")
	}
	y := d.pdf.GetY() + 1
	d.pdf.Line(margin, y, pageWidth-margin, y)
	d.pdf.Ln(3)
}

func (d *document) title(text string) {
	d.pdf.SetFont("Arial", "B", 14)
	d.cell(0, 9, text, "", 1, "C")
	d.pdf.Ln(2)
}

// party prints the customer on the left and document metadata on the right.
func (d *document) party(c core.CustomerSnapshot, meta [][2]string) {
	half := contentWidth / 2
	top := d.pdf.GetY()

	d.pdf.SetFont("Arial", "B", 10)
	d.cell(half, 6, "Bill To:", "", 1, "L")
	d.pdf.SetFont("Arial", "", 10)
	lines := []string{c.Name}
	if c.Address != "" {
		lines = append(lines, c.Address)
	}
	if c.Mobile != "" {
		lines = append(lines, "Mobile: "+c.Mobile)
	}
	if c.GSTIN != "" {
		lines = append(lines, "GSTIN: "+c.GSTIN)
	}
	if c.State != "" {
		lines = append(lines, "State: "+c.State)
	}
	for _, l := range lines {
		d.cell(half, 5, l, "", 1, "L")
	}
	leftBottom := d.pdf.GetY()

	d.pdf.SetY(top)
	for _, m := range meta {
		d.pdf.SetX(margin + half)
		d.pdf.SetFont("Arial", "B", 10)
		d.cell(35, 6, m[0], "", 0, "L")
		d.pdf.SetFont("Arial", "", 10)
		d.cell(half-35, 6, m[1], "", 1, "R")
	}
	if d.pdf.GetY() < leftBottom {
		d.pdf.SetY(leftBottom)
	}
	d.pdf.Ln(3)
}

func (d *document) tableHeader(cols []column) {
	d.pdf.SetFont("Arial", "B", 9)
	d.pdf.SetFillColor(230, 230, 230)
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		d.pdf.CellFormat(c.width, rowHeight, d.tr(c.header), "1", ln, "C", true, 0, "")
	}
	d.pdf.SetFont("Arial", "", 9)
}

func (d *document) tableRow(cols []column, values []string) {
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		d.cell(c.width, rowHeight, d.clip(values[i], c.width-2), "1", ln, c.align)
	}
}

// clip shortens text until it fits into w at the current font.
func (d *document) clip(text string, w float64) string {
	if d.pdf.GetStringWidth(d.tr(text)) <= w {
		return text
	}
	r := []rune(text)
	for len(r) > 0 && d.pdf.GetStringWidth(d.tr(string(r)+"..")) > w {
		r = r[:len(r)-1]
	}
	return string(r) + ".."
}

// totals prints the charge breakdown right aligned under the items table.
func (d *document) totals(ch core.Charges) {
	rows := [][2]string{{"Subtotal", money(ch.Subtotal)}}
	if !ch.InstallationCharge.IsZero() {
		rows = append(rows, [2]string{"Installation", money(ch.InstallationCharge)})
	}
	if !ch.TransportCharge.IsZero() {
		rows = append(rows, [2]string{"Transport", money(ch.TransportCharge)})
	}
	if !ch.Discount.IsZero() {
		rows = append(rows, [2]string{"Discount", "-" + money(ch.Discount)})
	}
	if ch.BillingType == core.BillingGST {
		rate := decimal.Zero
		if ch.GSTPercentage != nil {
			rate = *ch.GSTPercentage
		}
		if ch.IGST.IsPositive() {
			rows = append(rows, [2]string{fmt.Sprintf("IGST @ %s%%", rate.String()), money(ch.IGST)})
		} else {
			half := rate.Div(decimal.NewFromInt(2))
			rows = append(rows,
				[2]string{fmt.Sprintf("CGST @ %s%%", half.String()), money(ch.CGST)},
				[2]string{fmt.Sprintf("SGST @ %s%%", half.String()), money(ch.SGST)},
			)
		}
	}
	d.summary(rows)
	d.pdf.SetFont("Arial", "B", 10)
	d.summary([][2]string{{"Grand Total", money(ch.GrandTotal)}})
}

func (d *document) summary(rows [][2]string) {
	for _, r := range rows {
		d.pdf.SetX(margin + contentWidth - 80)
		d.cell(50, 6, r[0], "1", 0, "L")
		d.cell(30, 6, r[1], "1", 1, "R")
	}
}

func (d *document) amountInWords(amount decimal.Decimal) {
	d.pdf.Ln(2)
	d.pdf.SetFont("Arial", "I", 9)
	d.pdf.MultiCell(contentWidth, 5, d.tr("Amount in words: "+AmountInWords(amount)), "", "L", false)
}

func (d *document) signature(shopName string) {
	d.pdf.Ln(10)
	d.pdf.SetFont("Arial", "B", 10)
	d.pdf.SetX(margin + contentWidth - 70)
	d.cell(70, 5, "For "+shopName, "", 1, "C")
	d.pdf.Ln(12)
	d.pdf.SetFont("Arial", "", 9)
	d.pdf.SetX(margin + contentWidth - 70)
	d.cell(70, 5, "Authorised Signatory", "T", 1, "C")
}

func money(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func sizeLabel(it core.LineItem) string {
	return fmt.Sprintf("%s x %s %s", it.Height.String(), it.Width.String(), strings.ToLower(it.SizeUnit))
}

func describe(it core.LineItem) string {
	s := it.GlassType
	if it.Thickness != "" {
		s += " " + strings.TrimSuffix(strings.TrimSpace(it.Thickness), "mm") + "mm"
	}
	if it.Description != "" {
		s += " - " + it.Description
	}
	return s
}

func date(t time.Time) string {
	return t.Format("02-01-2006")
}
