package notification

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// amountFormatter renders money and quantities for one locale and currency
type amountFormatter struct {
	printer  *message.Printer
	currency currency.Unit
	scale    int
}

func newAmountFormatter(locale, currencyCode string) (*amountFormatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid notification locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid notification currency %q: %w", currencyCode, err)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return &amountFormatter{
		printer:  message.NewPrinter(tag),
		currency: unit,
		scale:    scale,
	}, nil
}

// Money formats d as "<ISO code> <grouped amount>", e.g. "USD 1,234.50"
func (f *amountFormatter) Money(d decimal.Decimal) string {
	rounded := d.Round(int32(f.scale)).InexactFloat64()
	return f.currency.String() + " " + f.printer.Sprint(number.Decimal(rounded, number.Scale(f.scale)))
}

// Quantity formats d with locale grouping and at most four decimals
func (f *amountFormatter) Quantity(d decimal.Decimal) string {
	return f.printer.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(4)))
}
