package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencyFormatter renders amounts with the club's currency symbol and the
// digit grouping of its locale.
type CurrencyFormatter struct {
	printer *message.Printer
	symbol  string
}

func NewCurrencyFormatter(code, locale string) (*CurrencyFormatter, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("currency %q: %w", code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("locale %q: %w", locale, err)
	}
	printer := message.NewPrinter(tag)
	return &CurrencyFormatter{
		printer: printer,
		symbol:  printer.Sprint(currency.NarrowSymbol(unit)),
	}, nil
}

func (f *CurrencyFormatter) Format(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	value := number.Decimal(amount.Round(2).InexactFloat64(), number.Scale(2))
	return f.printer.Sprintf("%s%s%v", sign, f.symbol, value)
}
