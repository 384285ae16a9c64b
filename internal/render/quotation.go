package render

import (
	"strconv"
	"strings"

	"glass-shop/internal/core"
)

const (
	pageBottom   = 282.0
	polishBoxH   = 16.0
	polishFigure = 22.0
)

// QuotationPDF renders the quotation as a cutting pad. Polished items get a sub-box
// drawing the piece with its polished edges thickened.
func QuotationPDF(shop *core.Shop, q *core.Quotation) ([]byte, error) {
	d := newDocument("Quotation " + q.QuotationNumber)
	d.pdf.AddPage()
	d.letterhead(shop)
	d.title("QUOTATION")

	meta := [][2]string{
		{"Quotation No:", q.QuotationNumber},
		{"Date:", date(q.QuotationDate)},
	}
	if q.ValidUntil != nil {
		meta = append(meta, [2]string{"Valid Until:", date(*q.ValidUntil)})
	}
	meta = append(meta, [2]string{"Status:", string(q.Status)})
	d.party(q.CustomerSnapshot, meta)

	cols := invoiceColumns(false)
	d.tableHeader(cols)
	for _, it := range q.Items {
		if d.pdf.GetY()+rowHeight > pageBottom {
			d.pdf.AddPage()
			d.tableHeader(cols)
		}
		d.tableRow(cols, []string{
			strconv.Itoa(it.ItemOrder), describe(it), sizeLabel(it), strconv.Itoa(it.Quantity),
			it.Area.String(), money(it.RatePerSqft), money(it.Subtotal),
		})
		if it.Polish != nil {
			d.polishBox(*it.Polish)
		}
	}
	d.pdf.Ln(3)

	d.totals(q.Charges)
	d.amountInWords(q.GrandTotal)
	if q.Notes != "" {
		d.pdf.Ln(2)
		d.pdf.SetFont("Arial", "", 9)
		d.pdf.MultiCell(contentWidth, 5, d.tr("Notes: "+q.Notes), "", "L", false)
	}
	d.signature(shop.Name)
	return d.bytes()
}

func (d *document) polishBox(p core.PolishSpec) {
	if d.pdf.GetY()+polishBoxH > pageBottom {
		d.pdf.AddPage()
	}
	x, y := margin, d.pdf.GetY()
	d.pdf.Rect(x, y, contentWidth, polishBoxH, "D")

	// piece outline, polished edges drawn thick
	fx, fy, fw, fh := x+4, y+3, polishFigure, polishBoxH-6
	edges := []struct {
		on             bool
		x1, y1, x2, y2 float64
	}{
		{p.Top, fx, fy, fx + fw, fy},
		{p.Bottom, fx, fy + fh, fx + fw, fy + fh},
		{p.Left, fx, fy, fx, fy + fh},
		{p.Right, fx + fw, fy, fx + fw, fy + fh},
	}
	for _, e := range edges {
		w := 0.2
		if e.on {
			w = 1.0
		}
		d.pdf.SetLineWidth(w)
		d.pdf.Line(e.x1, e.y1, e.x2, e.y2)
	}
	d.pdf.SetLineWidth(0.2)

	textX := fx + fw + 6
	d.pdf.SetXY(textX, y+2)
	d.pdf.SetFont("Arial", "B", 8)
	kind := p.Type
	if kind == "" {
		kind = "Polish"
	}
	sides := "none"
	if e := p.Edges(); len(e) > 0 {
		sides = strings.Join(e, ", ")
	}
	d.cell(contentWidth-(textX-margin)-2, 5, kind+": "+sides, "", 1, "L")
	if p.Notes != "" {
		d.pdf.SetX(textX)
		d.pdf.SetFont("Arial", "", 8)
		d.cell(contentWidth-(textX-margin)-2, 5, d.clip(p.Notes, contentWidth-(textX-margin)-4), "", 1, "L")
	}
	d.pdf.SetFont("Arial", "", 9)
	d.pdf.SetXY(margin, y+polishBoxH)
}
