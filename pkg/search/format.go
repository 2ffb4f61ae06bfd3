package search

import (
	"math"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatPrice renders a BDT price with the taka sign and thousands separators.
func FormatPrice(p float64) string {
	if p == math.Trunc(p) {
		return message.NewPrinter(language.English).Sprintf("৳%d", int64(p))
	}
	return message.NewPrinter(language.English).Sprintf("৳%.2f", p)
}

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

// TitleCase capitalizes a slug-like word for display.
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}
