package dashboard

import (
	"fmt"
	"io"
	"strings"
)

// TextWriter prints a short plain-text summary, meant for the terminal
// after a run.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...Option) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output, opts...)}
}

// Write outputs the summary of v.
func (w *TextWriter) Write(v *View) (int, error) {
	if v == nil {
		return 0, ErrNilView
	}
	prices := w.prices(v)

	var sb strings.Builder
	rule := strings.Repeat("=", 70)
	sb.WriteString("\n" + rule + "\n")
	sb.WriteString("                         FLIGHT DASHBOARD\n")
	sb.WriteString(rule + "\n\n")

	fmt.Fprintf(&sb, "Generated:      %s\n", v.Timestamp)
	if v.FetchedAt != "" {
		fmt.Fprintf(&sb, "Fetched:        %s\n", v.FetchedAt)
	}
	fmt.Fprintf(&sb, "Flights:        %d (%d after filters)\n", v.Summary.TotalFlights, v.Summary.FilteredFlights)
	if v.NewLow {
		sb.WriteString("Status:         NEW LOWEST PRICE\n")
	}
	sb.WriteString("\n")

	w.writeSection(&sb, "CHEAPEST")
	for _, m := range v.Metrics {
		fmt.Fprintf(&sb, "  %-22s %s\n", m.Label+":", prices.Format(m.Price))
	}
	sb.WriteString("\n")

	for _, t := range v.Tables {
		w.writeSection(&sb, strings.ToUpper(t.Title))
		if len(t.Offers) == 0 {
			sb.WriteString("  No flights available\n\n")
			continue
		}
		for i, o := range t.Offers {
			fmt.Fprintf(&sb, "  %d. %-10s %-20s %s -> %s  %s\n",
				i+1,
				prices.Format(o.Price),
				orDash(o.Airline),
				formatOfferTime(o.DepartureTime),
				formatOfferTime(o.ArrivalTime),
				formatDuration(o.DurationMinutes))
		}
		sb.WriteString("\n")
	}

	if n := len(v.History); n > 0 {
		w.writeSection(&sb, "PRICE HISTORY")
		last := v.History[n-1]
		fmt.Fprintf(&sb, "  Points:  %d\n", n)
		fmt.Fprintf(&sb, "  Latest:  %s (%s)\n", prices.FormatInt(last.MinPrice), last.RecordedAt.In(v.GeneratedAt.Location()).Format(historyLabelLayout))
		sb.WriteString("\n")
	}

	return w.output.Write([]byte(sb.String()))
}

func (w *TextWriter) writeSection(sb *strings.Builder, title string) {
	rule := strings.Repeat("-", 70)
	sb.WriteString(rule + "\n")
	sb.WriteString(title + "\n")
	sb.WriteString(rule + "\n\n")
}
