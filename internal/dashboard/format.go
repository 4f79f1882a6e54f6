package dashboard

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NotAvailable is shown in place of a missing price.
const NotAvailable = "N/A"

// PriceFormatter renders prices with a currency symbol and digit grouping.
type PriceFormatter struct {
	symbol  string
	printer *message.Printer
}

// NewPriceFormatter returns a formatter for symbol, grouping digits the
// way tag does (language.English gives 12,345).
func NewPriceFormatter(symbol string, tag language.Tag) *PriceFormatter {
	return &PriceFormatter{symbol: symbol, printer: message.NewPrinter(tag)}
}

// Format renders p, or NotAvailable when p is nil or zero.
func (f *PriceFormatter) Format(p *int64) string {
	if p == nil || *p == 0 {
		return NotAvailable
	}
	return f.FormatInt(*p)
}

// FormatInt renders v with the currency symbol.
func (f *PriceFormatter) FormatInt(v int64) string {
	return f.symbol + f.printer.Sprintf("%d", v)
}

// formatDuration renders minutes as "2h 10m".
func formatDuration(minutes int) string {
	if minutes <= 0 {
		return "-"
	}
	h, m := minutes/60, minutes%60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}

// offerTimeLayouts are the local date-time formats the API uses.
var offerTimeLayouts = []string{"2006-01-02T15:04:05", time.RFC3339}

// formatOfferTime shortens an API timestamp to "2026-12-20 06:00".
// Unknown formats are returned unchanged.
func formatOfferTime(s string) string {
	for _, layout := range offerTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02 15:04")
		}
	}
	return s
}

// formatStops renders a stop count as "0 stops", "1 stop", ...
func formatStops(n int) string {
	if n == 1 {
		return "1 stop"
	}
	return fmt.Sprintf("%d stops", n)
}

// place renders a city with its airport code, e.g. "Mumbai (BOM)".
func place(city, code string) string {
	switch {
	case city == "" && code == "":
		return "-"
	case code == "":
		return city
	case city == "":
		return code
	default:
		return city + " (" + code + ")"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
