package dashboard

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/flightdash/internal/model"
)

// maxMarkdownHistory is the number of history rows in the Markdown report.
const maxMarkdownHistory = 10

// MarkdownWriter outputs the dashboard as GitHub-flavored Markdown, for
// CI job summaries and issue comments.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...Option) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output, opts...)}
}

// Write outputs v in Markdown format.
func (w *MarkdownWriter) Write(v *View) (int, error) {
	if v == nil {
		return 0, ErrNilView
	}
	prices := w.prices(v)
	md := markdown.NewMarkdown(w.output)

	md.H1("✈️ " + v.Title)
	md.PlainText("")
	md.PlainTextf("Last generated: %s", v.Timestamp)
	md.PlainText("")

	w.writeMetrics(md, v, prices)
	w.writeAlert(md, v, prices)
	w.writeStops(md, v)

	for _, t := range v.Tables {
		w.writeOffers(md, t, prices)
	}

	w.writeHistory(md, v, prices)

	md.Details("Search query", "\n```json\n"+v.Query+"\n```\n")
	md.PlainText("")
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Built: %s*", v.Timestamp)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeMetrics(md *markdown.Markdown, v *View, prices *PriceFormatter) {
	rows := make([][]string, 0, len(v.Metrics)+2)
	for _, m := range v.Metrics {
		rows = append(rows, []string{m.Label, prices.Format(m.Price)})
	}
	rows = append(rows,
		[]string{"Flights", strconv.Itoa(v.Summary.TotalFlights)},
		[]string{"After filters", strconv.Itoa(v.Summary.FilteredFlights)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeAlert highlights a new price low or missing data.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, v *View, prices *PriceFormatter) {
	switch {
	case v.Summary.MinPrice == nil:
		md.Warningf("The last search returned no price. Check the query and the API subscription.")
	case v.NewLow:
		md.Importantf("New lowest price recorded: %s", prices.Format(v.Summary.MinPrice))
	case len(v.History) > 0:
		lowest, _ := model.LowestPrice(v.History)
		md.Note(fmt.Sprintf("Lowest price seen so far: %s", prices.FormatInt(lowest)))
	default:
		md.Tip("No price history yet. It starts with the next recorded run.")
	}
	md.PlainText("")
}

// writeStops writes a mermaid pie chart of the flight count per stop count.
func (w *MarkdownWriter) writeStops(md *markdown.Markdown, v *View) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Flights by number of stops"),
		piechart.WithShowData(true),
	)

	var plotted int
	for i, label := range v.StopsChart.Labels {
		count := v.StopsChart.Values[i]
		if count <= 0 {
			continue
		}
		chart.LabelAndIntValue(stopsLabel(label), uint64(count))
		plotted++
	}
	if plotted == 0 {
		return
	}

	md.H2("Stops")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeOffers(md *markdown.Markdown, t OfferTable, prices *PriceFormatter) {
	md.H2(t.Title)
	md.PlainText("")

	if len(t.Offers) == 0 {
		md.PlainText("No flights available")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(t.Offers))
	for i, o := range t.Offers {
		rows[i] = []string{
			orDash(o.Airline),
			place(o.From, o.FromCode),
			place(o.To, o.ToCode),
			formatOfferTime(o.DepartureTime),
			formatOfferTime(o.ArrivalTime),
			prices.Format(o.Price),
			formatStops(o.Stops),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Airline", "From", "To", "Departure", "Arrival", "Price", "Stops"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeHistory lists the most recent history points, newest first.
func (w *MarkdownWriter) writeHistory(md *markdown.Markdown, v *View, prices *PriceFormatter) {
	if len(v.History) == 0 {
		return
	}

	md.H2("Price history")
	md.PlainText("")

	rows := make([][]string, 0, maxMarkdownHistory)
	loc := v.GeneratedAt.Location()
	for i := len(v.History) - 1; i >= 0 && len(rows) < maxMarkdownHistory; i-- {
		p := v.History[i]
		rows = append(rows, []string{
			p.RecordedAt.In(loc).Format(historyLabelLayout),
			prices.FormatInt(p.MinPrice),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Recorded", "Min price"},
		Rows:   rows,
	})
	md.PlainText("")
}

func stopsLabel(label string) string {
	n, err := strconv.Atoi(label)
	if err != nil {
		return "Unknown"
	}
	if n == 0 {
		return "Non-stop"
	}
	return formatStops(n)
}
