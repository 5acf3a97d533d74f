// Package format renders figure values for display: plain decimals,
// compact "1.2 million" forms, currency amounts and percentages, all
// locale-aware.
package format

import (
	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Style selects the rendering of a numeric figure value.
type Style string

const (
	StyleDecimal    Style = "decimal"
	StyleCompact    Style = "compact"
	StyleCurrency   Style = "currency"
	StylePercentage Style = "percentage"
)

// Options is the closed formatting configuration. Unknown styles fall back
// to decimal; an unparseable locale falls back to English.
type Options struct {
	Locale    string
	Style     Style
	Precision int
	// Currency is the ISO 4217 code prepended for StyleCurrency.
	Currency string
}

// Format renders a value per the options.
func Format(value float64, opts Options) string {
	tag, err := language.Parse(opts.Locale)
	if err != nil {
		tag = language.English
	}
	printer := message.NewPrinter(tag)

	switch opts.Style {
	case StyleCompact:
		return compact(value, opts.Precision)

	case StyleCurrency:
		formatted := printer.Sprint(number.Decimal(value,
			number.MaxFractionDigits(opts.Precision)))
		if opts.Currency == "" {
			return formatted
		}
		return opts.Currency + " " + formatted

	case StylePercentage:
		return printer.Sprint(number.Decimal(value,
			number.MaxFractionDigits(opts.Precision))) + "%"

	default:
		return printer.Sprint(number.Decimal(value,
			number.MaxFractionDigits(opts.Precision)))
	}
}

// compact scale words, largest first.
var scales = []struct {
	threshold float64
	word      string
}{
	{1e12, "trillion"},
	{1e9, "billion"},
	{1e6, "million"},
	{1e3, "thousand"},
}

// compact renders large values with a scale word, e.g. "1.2 million".
// Values below a thousand keep their plain decimal form.
func compact(value float64, precision int) string {
	abs := value
	if abs < 0 {
		abs = -abs
	}

	for _, scale := range scales {
		if abs >= scale.threshold {
			return humanize.FtoaWithDigits(value/scale.threshold, precision) + " " + scale.word
		}
	}
	return humanize.FtoaWithDigits(value, precision)
}
