package render

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ones = []string{"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten",
		"Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen"}
	tens = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
)

func belowHundred(n int64) string {
	if n < 20 {
		return ones[n]
	}
	if n%10 == 0 {
		return tens[n/10]
	}
	return tens[n/10] + " " + ones[n%10]
}

func belowThousand(n int64) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, ones[n/100]+" Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, belowHundred(n))
	}
	return strings.Join(parts, " ")
}

// NumberToWords spells n using the Indian system (thousand, lakh, crore).
func NumberToWords(n int64) string {
	if n == 0 {
		return "Zero"
	}
	if n < 0 {
		return "Minus " + NumberToWords(-n)
	}

	var parts []string
	if n >= 10000000 {
		parts = append(parts, NumberToWords(n/10000000)+" Crore")
		n %= 10000000
	}
	if n >= 100000 {
		parts = append(parts, belowHundred(n/100000)+" Lakh")
		n %= 100000
	}
	if n >= 1000 {
		parts = append(parts, belowHundred(n/1000)+" Thousand")
		n %= 1000
	}
	if n > 0 {
		parts = append(parts, belowThousand(n))
	}
	return strings.Join(parts, " ")
}

// AmountInWords renders e.g. "Rupees One Thousand One Hundred Eighty and Fifty Paise Only".
func AmountInWords(amount decimal.Decimal) string {
	amount = amount.Round(2)
	rupees := amount.IntPart()
	paise := amount.Sub(decimal.NewFromInt(rupees)).Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	s := "Rupees " + NumberToWords(rupees)
	if paise > 0 {
		s += " and " + NumberToWords(paise) + " Paise"
	}
	return s + " Only"
}
