package funcs

import (
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TemplateFuncs are shared by the email templates.
var TemplateFuncs = template.FuncMap{
	"now":         time.Now,
	"formatTime":  formatTime,
	"formatMoney": formatMoney,
	"upper":       strings.ToUpper,
}

func formatTime(format string, t time.Time) string {
	return t.Format(format)
}

func formatMoney(currency string, amount decimal.Decimal) string {
	printer := message.NewPrinter(language.English)
	value, _ := amount.Round(2).Float64()
	return printer.Sprintf("%s %.2f", currency, value)
}
