package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pct(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func TestComputeTotals_GSTSplit(t *testing.T) {
	c, err := ComputeTotals(TotalsInput{
		BillingType:   BillingGST,
		Items:         []LineItem{{Subtotal: d("1000")}},
		GSTPercentage: pct("18"),
	})
	if err != nil {
		t.Fatalf("ComputeTotals: %v", err)
	}

	checks := []struct {
		name      string
		got, want decimal.Decimal
	}{
		{"subtotal", c.Subtotal, d("1000")},
		{"gst", c.GSTAmount, d("180")},
		{"cgst", c.CGST, d("90")},
		{"sgst", c.SGST, d("90")},
		{"igst", c.IGST, d("0")},
		{"grand", c.GrandTotal, d("1180")},
	}
	for _, ch := range checks {
		if !ch.got.Equal(ch.want) {
			t.Errorf("%s = %s, want %s", ch.name, ch.got, ch.want)
		}
	}
}

func TestComputeTotals_InterStateUsesIGST(t *testing.T) {
	c, err := ComputeTotals(TotalsInput{
		BillingType:   BillingGST,
		Items:         []LineItem{{Subtotal: d("1000")}},
		GSTPercentage: pct("18"),
		ShopState:     "Maharashtra",
		CustomerState: "Gujarat",
	})
	if err != nil {
		t.Fatalf("ComputeTotals: %v", err)
	}
	if !c.IGST.Equal(d("180")) || !c.CGST.IsZero() || !c.SGST.IsZero() {
		t.Errorf("got igst=%s cgst=%s sgst=%s, want 180/0/0", c.IGST, c.CGST, c.SGST)
	}
}

func TestComputeTotals_OddGSTSplitKeepsSum(t *testing.T) {
	c, err := ComputeTotals(TotalsInput{
		BillingType:   BillingGST,
		Items:         []LineItem{{Subtotal: d("100.05")}},
		GSTPercentage: pct("5"),
	})
	if err != nil {
		t.Fatalf("ComputeTotals: %v", err)
	}
	if !c.CGST.Add(c.SGST).Equal(c.GSTAmount) {
		t.Errorf("cgst %s + sgst %s != gst %s", c.CGST, c.SGST, c.GSTAmount)
	}
}

func TestComputeTotals_NonGSTAndCharges(t *testing.T) {
	c, err := ComputeTotals(TotalsInput{
		BillingType:        BillingNonGST,
		Items:              []LineItem{{Subtotal: d("600")}, {Subtotal: d("400")}},
		InstallationCharge: d("150"),
		TransportCharge:    d("50"),
		Discount:           d("100"),
		GSTPercentage:      pct("18"),
	})
	if err != nil {
		t.Fatalf("ComputeTotals: %v", err)
	}
	if !c.GrandTotal.Equal(d("1100")) {
		t.Errorf("grand = %s, want 1100", c.GrandTotal)
	}
	if !c.GSTAmount.IsZero() || c.GSTPercentage != nil {
		t.Errorf("non-GST billing must not carry tax, got gst=%s pct=%v", c.GSTAmount, c.GSTPercentage)
	}
}

func TestComputeTotals_Rejects(t *testing.T) {
	cases := []struct {
		name string
		in   TotalsInput
	}{
		{"unknown billing type", TotalsInput{BillingType: "VAT"}},
		{"discount above base", TotalsInput{BillingType: BillingNonGST, Items: []LineItem{{Subtotal: d("10")}}, Discount: d("11")}},
		{"negative charge", TotalsInput{BillingType: BillingNonGST, TransportCharge: d("-1")}},
		{"gst above 100", TotalsInput{BillingType: BillingGST, GSTPercentage: pct("101")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ComputeTotals(tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestItemSubtotal(t *testing.T) {
	cases := []struct {
		name string
		item LineItem
		want string
	}{
		{"precomputed", LineItem{Subtotal: d("123.456")}, "123.46"},
		{"area given", LineItem{Area: d("2.5"), Quantity: 4, RatePerSqft: d("40")}, "400"},
		{"feet dims", LineItem{Height: d("3"), Width: d("2"), Quantity: 2, RatePerSqft: d("10")}, "120"},
		{"inch dims", LineItem{Height: d("12"), Width: d("24"), SizeUnit: "INCH", Quantity: 1, RatePerSqft: d("50")}, "100"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ItemSubtotal(tc.item); !got.Equal(d(tc.want)) {
				t.Errorf("ItemSubtotal = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestNormalizeItems(t *testing.T) {
	items, err := NormalizeItems([]LineItem{
		{GlassType: "Clear", Height: d("2"), Width: d("2"), Quantity: 1, RatePerSqft: d("10")},
		{GlassType: "Toughened", Subtotal: d("99"), Quantity: 3},
	})
	if err != nil {
		t.Fatalf("NormalizeItems: %v", err)
	}
	for i, it := range items {
		if it.ItemOrder != i+1 {
			t.Errorf("item %d order = %d", i, it.ItemOrder)
		}
	}
	if !items[0].Area.Equal(d("4")) || !items[0].Subtotal.Equal(d("40")) {
		t.Errorf("first item area=%s subtotal=%s", items[0].Area, items[0].Subtotal)
	}
	if items[0].SizeUnit != "FEET" {
		t.Errorf("default size unit = %q", items[0].SizeUnit)
	}

	bad := [][]LineItem{
		nil,
		{{GlassType: "", Quantity: 1}},
		{{GlassType: "Clear", Quantity: 0}},
		{{GlassType: "Clear", Quantity: 1, RatePerSqft: d("-1")}},
	}
	for i, in := range bad {
		if _, err := NormalizeItems(in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: err = %v, want ErrInvalidInput", i, err)
		}
	}
}

func TestApplyPayment_RejectsOverpayment(t *testing.T) {
	s := PaymentState{GrandTotal: d("1000"), Paid: d("800"), Due: d("200"), Status: PaymentPartial}

	if _, err := ApplyPayment(s, d("300")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("payment of 300 against due 200: err = %v, want ErrInvalidInput", err)
	}

	next, err := ApplyPayment(s, d("200"))
	if err != nil {
		t.Fatalf("payment of 200: %v", err)
	}
	if next.Status != PaymentPaid || !next.Due.IsZero() || !next.Paid.Equal(d("1000")) {
		t.Errorf("got %+v, want PAID with due 0", next)
	}
}

func TestApplyPayment_RejectsNonPositive(t *testing.T) {
	s := NewPaymentState(d("100"))
	for _, amt := range []string{"0", "-5", "0.001"} {
		if _, err := ApplyPayment(s, d(amt)); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("amount %s: err = %v, want ErrInvalidInput", amt, err)
		}
	}
}

func TestApplyPayment_InvariantHoldsAcrossSequence(t *testing.T) {
	grand := d("1234.57")
	s := NewPaymentState(grand)
	payments := []string{"0.01", "100.33", "333.33", "1.1", "700", "50"}

	for i, p := range payments {
		var err error
		s, err = ApplyPayment(s, d(p))
		if err != nil {
			t.Fatalf("payment %d (%s): %v", i, p, err)
		}
		if !s.Paid.Add(s.Due).Equal(grand) {
			t.Fatalf("after payment %d: paid %s + due %s != %s", i, s.Paid, s.Due, grand)
		}
		if s.Paid.IsNegative() || s.Paid.GreaterThan(grand) {
			t.Fatalf("after payment %d: paid %s out of [0, %s]", i, s.Paid, grand)
		}
		if s.Status != PaymentPartial {
			t.Fatalf("after payment %d: status %s, want PARTIAL", i, s.Status)
		}
	}

	s, err := ApplyPayment(s, s.Due)
	if err != nil {
		t.Fatalf("final payment: %v", err)
	}
	if s.Status != PaymentPaid || !s.Due.IsZero() {
		t.Errorf("final state %+v, want PAID", s)
	}
}
