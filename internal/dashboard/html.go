package dashboard

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

const pageTemplate = "index.html.tmpl"

// basePage is parsed once and cloned for each Write, because the price
// formatter depends on the View's currency symbol.
var basePage = template.Must(
	template.New(pageTemplate).
		Funcs(pageFuncs(NewPriceFormatter("", defaultLanguage))).
		ParseFS(templateFS, "templates/"+pageTemplate),
)

// HTMLWriter renders the static dashboard page.
//
// The page loads Chart.js from a CDN and embeds the chart data as JSON
// literals, escaped by html/template for the script context.
type HTMLWriter struct {
	baseWriter
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer, opts ...Option) *HTMLWriter {
	return &HTMLWriter{baseWriter: newBaseWriter(output, opts...)}
}

// Write renders the dashboard page for v.
func (w *HTMLWriter) Write(v *View) (int, error) {
	if v == nil {
		return 0, ErrNilView
	}

	page, err := basePage.Clone()
	if err != nil {
		return 0, fmt.Errorf("failed to prepare template: %w", err)
	}
	page.Funcs(pageFuncs(w.prices(v)))

	// Render fully before writing so a template error leaves no partial page.
	var buf bytes.Buffer
	if err := page.Execute(&buf, v); err != nil {
		return 0, fmt.Errorf("failed to render dashboard: %w", err)
	}
	return w.output.Write(buf.Bytes())
}

func pageFuncs(prices *PriceFormatter) template.FuncMap {
	return template.FuncMap{
		"price":    prices.Format,
		"priceInt": prices.FormatInt,
		"place":    place,
		"when":     formatOfferTime,
		"stops":    formatStops,
		"duration": formatDuration,
		"dash":     orDash,
	}
}
