package dashboard

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/flightdash/internal/model"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

// createTestInput returns an Input with data in every section.
func createTestInput() Input {
	summary := model.NewSummary()
	summary.TotalFlights = 143
	summary.FilteredFlights = 120
	summary.MinPrice = model.Ptr[int64](4519)
	summary.Stops = []model.StopSummary{
		{NumberOfStops: model.Ptr(0), Count: model.Ptr(40), MinPrice: model.Ptr[int64](4519)},
		{NumberOfStops: model.Ptr(1), Count: model.Ptr(70)},
		{Count: nil},
	}
	summary.Airlines = []model.AirlineStats{{Name: "IndiGo", Count: model.Ptr(12), MinPrice: model.Ptr[int64](4519)}}
	summary.DepartureSlots = []model.SlotCount{{Start: "00:00", Count: model.Ptr(3)}, {Start: "06:00", Count: model.Ptr(52)}}
	summary.OffersByStops.Nonstop = []model.Offer{{
		Price:         model.Ptr[int64](4519),
		Airline:       "IndiGo",
		From:          "New Delhi",
		FromCode:      "DEL",
		To:            "Mumbai",
		ToCode:        "BOM",
		DepartureTime: "2026-12-20T06:00:00",
		ArrivalTime:   "2026-12-20T08:10:00",
		Stops:         0,
	}}
	summary.OffersByStops.OneStop = []model.Offer{{Price: model.Ptr[int64](12345), Airline: "<b>Air</b>", Stops: 1}}
	summary.TopOffers = append(summary.TopOffers, summary.OffersByStops.Nonstop...)

	return Input{
		Query:          "{\n  \"fromId\": \"DEL.AIRPORT\"\n}",
		Summary:        summary,
		History: []model.PricePoint{
			{RecordedAt: time.Date(2026, 10, 17, 0, 30, 0, 0, time.UTC), MinPrice: 5120},
			{RecordedAt: time.Date(2026, 10, 17, 12, 30, 0, 0, time.UTC), MinPrice: 4519},
		},
		GeneratedAt:    time.Date(2026, 10, 17, 12, 31, 0, 0, time.UTC),
		Location:       ist,
		CurrencySymbol: "₹",
		TopPerStop:     5,
	}
}

// TestNewView tests how the view is assembled.
func TestNewView(t *testing.T) {
	t.Parallel()

	t.Run("populated input", func(t *testing.T) {
		t.Parallel()

		v := NewView(createTestInput())
		if v.Timestamp != "2026-10-17 18:01 IST" {
			t.Errorf("Timestamp = %q", v.Timestamp)
		}
		if len(v.Metrics) != 4 || v.Metrics[0].Label != "Cheapest overall" || *v.Metrics[1].Price != 4519 {
			t.Errorf("unexpected metrics %+v", v.Metrics)
		}
		if v.Metrics[3].Price != nil {
			t.Error("expected no multi-stop price")
		}
		if len(v.Tables) != 3 || v.Tables[2].Title != "Top 5 Multi-stop Flights" {
			t.Errorf("unexpected tables %+v", v.Tables)
		}
		if got := strings.Join(v.StopsChart.Labels, ","); got != "0,1,?" {
			t.Errorf("stop labels = %q", got)
		}
		if v.StopsChart.Values[2] != 0 {
			t.Errorf("expected missing count to be 0, got %d", v.StopsChart.Values[2])
		}
		if v.HistoryChart.Labels[0] != "2026-10-17 06:00" {
			t.Errorf("history label = %q", v.HistoryChart.Labels[0])
		}
		if !v.NewLow {
			t.Error("expected a new low")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		v := NewView(Input{})
		if v.Query != "{}" {
			t.Errorf("Query = %q, want {}", v.Query)
		}
		if v.Summary == nil || v.History == nil {
			t.Fatal("expected initialized summary and history")
		}
		if v.Tables[0].Title != "Top 5 Non-stop Flights" {
			t.Errorf("unexpected title %q", v.Tables[0].Title)
		}
		for _, c := range []Chart{v.StopsChart, v.SlotsChart, v.HistoryChart} {
			if c.Labels == nil || c.Values == nil {
				t.Error("expected non-nil chart data")
			}
		}
		if v.NewLow {
			t.Error("empty history cannot be a new low")
		}
	})
}

// TestIsNewLow tests detection of a new lowest price.
func TestIsNewLow(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := func(prices ...int64) []model.PricePoint {
		out := make([]model.PricePoint, len(prices))
		for i, p := range prices {
			out[i] = model.PricePoint{RecordedAt: at.Add(time.Duration(i) * time.Hour), MinPrice: p}
		}
		return out
	}

	tests := []struct {
		name   string
		prices []int64
		want   bool
	}{
		{"single point", []int64{100}, false},
		{"lower than all earlier", []int64{300, 200, 150}, true},
		{"equal to earlier low", []int64{200, 300, 200}, false},
		{"higher", []int64{100, 200}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isNewLow(points(tt.prices...)); got != tt.want {
				t.Errorf("isNewLow(%v) = %v, want %v", tt.prices, got, tt.want)
			}
		})
	}
}

// TestPriceFormatter tests price rendering.
func TestPriceFormatter(t *testing.T) {
	t.Parallel()

	f := NewPriceFormatter("₹", defaultLanguage)
	tests := []struct {
		name  string
		price *int64
		want  string
	}{
		{"nil", nil, "N/A"},
		{"zero", model.Ptr[int64](0), "N/A"},
		{"small", model.Ptr[int64](999), "₹999"},
		{"grouped", model.Ptr[int64](1234567), "₹1,234,567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := f.Format(tt.price); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestFormatHelpers tests the cell formatting helpers.
func TestFormatHelpers(t *testing.T) {
	t.Parallel()

	checks := []struct {
		got, want string
	}{
		{formatDuration(130), "2h 10m"},
		{formatDuration(45), "45m"},
		{formatDuration(0), "-"},
		{formatOfferTime("2026-12-20T06:00:00"), "2026-12-20 06:00"},
		{formatOfferTime("tomorrow"), "tomorrow"},
		{formatStops(0), "0 stops"},
		{formatStops(1), "1 stop"},
		{formatStops(2), "2 stops"},
		{place("Mumbai", "BOM"), "Mumbai (BOM)"},
		{place("", "BOM"), "BOM"},
		{place("", ""), "-"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("got %q, want %q", c.got, c.want)
		}
	}
}

func renderHTML(t *testing.T, v *View) *goquery.Document {
	t.Helper()

	var buf bytes.Buffer
	if _, err := NewHTMLWriter(&buf).Write(v); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	return doc
}

// TestHTMLWriter tests the rendered dashboard page.
func TestHTMLWriter(t *testing.T) {
	t.Parallel()

	t.Run("renders all sections", func(t *testing.T) {
		t.Parallel()

		doc := renderHTML(t, NewView(createTestInput()))

		if got := doc.Find("h1").Text(); !strings.Contains(got, "Flight Dashboard") {
			t.Errorf("h1 = %q", got)
		}
		if got := doc.Find("#generated").Text(); got != "2026-10-17 18:01 IST" {
			t.Errorf("generated = %q", got)
		}
		if doc.Find("#new-low").Length() != 1 {
			t.Error("expected new low banner")
		}

		var metrics []string
		doc.Find(".top-metrics .metric").Each(func(_ int, s *goquery.Selection) {
			metrics = append(metrics, s.Text())
		})
		if got := strings.Join(metrics, "|"); got != "₹4,519|₹4,519|₹12,345|N/A" {
			t.Errorf("metrics = %q", got)
		}

		cells := doc.Find("#offers-nonstop tbody tr").First().Find("td")
		var row []string
		cells.Each(func(_ int, s *goquery.Selection) { row = append(row, s.Text()) })
		want := "IndiGo|New Delhi (DEL)|Mumbai (BOM)|2026-12-20 06:00|2026-12-20 08:10|₹4,519|0 stops"
		if got := strings.Join(row, "|"); got != want {
			t.Errorf("row = %q, want %q", got, want)
		}

		if got := doc.Find("#offers-multistop .empty").Text(); got != "No flights available" {
			t.Errorf("expected empty table message, got %q", got)
		}
		if got := doc.Find("#offers-1stop h2").Text(); got != "Top 5 One-stop Flights" {
			t.Errorf("one-stop title = %q", got)
		}
		if got := doc.Find("#query").Text(); !strings.Contains(got, `"fromId": "DEL.AIRPORT"`) {
			t.Errorf("query = %q", got)
		}
		if got := doc.Find("footer").Text(); got != "Built: 2026-10-17 18:01 IST" {
			t.Errorf("footer = %q", got)
		}
		for _, id := range []string{"stopsChart", "slotsChart", "historyChart"} {
			if doc.Find("canvas#"+id).Length() != 1 {
				t.Errorf("missing canvas %s", id)
			}
		}
		if src, _ := doc.Find("script[src]").Attr("src"); !strings.Contains(src, "chart.js") {
			t.Errorf("unexpected script src %q", src)
		}
	})

	t.Run("trip durations are shown in hours", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name    string
			min     *float64
			max     *float64
			wantMin string
			wantMax string
		}{
			{name: "whole hours", min: model.Ptr(2.0), max: model.Ptr(29.0), wantMin: "Shortest trip: 2h", wantMax: "Longest trip: 29h"},
			{name: "fractional hours", min: model.Ptr(1.5), max: model.Ptr(30.25), wantMin: "Shortest trip: 1.5h", wantMax: "Longest trip: 30.25h"},
			{name: "missing", wantMin: "", wantMax: ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				in := createTestInput()
				in.Summary.DurationMin = tt.min
				in.Summary.DurationMax = tt.max
				doc := renderHTML(t, NewView(in))
				if got := doc.Find("#duration-min").Text(); got != tt.wantMin {
					t.Errorf("duration-min = %q, want %q", got, tt.wantMin)
				}
				if got := doc.Find("#duration-max").Text(); got != tt.wantMax {
					t.Errorf("duration-max = %q, want %q", got, tt.wantMax)
				}
			})
		}
	})

	t.Run("escapes API content", func(t *testing.T) {
		t.Parallel()

		doc := renderHTML(t, NewView(createTestInput()))
		if doc.Find("#offers-1stop td b").Length() != 0 {
			t.Error("airline markup must be escaped")
		}
		if got := doc.Find("#offers-1stop td").First().Text(); got != "<b>Air</b>" {
			t.Errorf("airline = %q", got)
		}
	})

	t.Run("embeds chart data as JSON", func(t *testing.T) {
		t.Parallel()

		doc := renderHTML(t, NewView(createTestInput()))
		script := doc.Find("script:not([src])").Text()
		for _, want := range []string{
			`"labels":["0","1","?"]`,
			`"values":[40,70,0]`,
			`"labels":["00:00","06:00"]`,
			`"values":[5120,4519]`,
		} {
			if !strings.Contains(script, want) {
				t.Errorf("expected %s in script:\n%s", want, script)
			}
		}
	})

	t.Run("empty view", func(t *testing.T) {
		t.Parallel()

		doc := renderHTML(t, NewView(Input{CurrencySymbol: "₹"}))
		if got := doc.Find(".empty").Length(); got != 4 {
			t.Errorf("expected 3 empty tables and empty history, got %d", got)
		}
		if doc.Find(".top-metrics .metric").First().Text() != "N/A" {
			t.Error("expected N/A without data")
		}
		if got := doc.Find("#query").Text(); got != "{}" {
			t.Errorf("query = %q", got)
		}
		if doc.Find("#new-low").Length() != 0 {
			t.Error("unexpected new low banner")
		}
	})

	t.Run("nil view", func(t *testing.T) {
		t.Parallel()
		if _, err := NewHTMLWriter(io.Discard).Write(nil); err != ErrNilView {
			t.Errorf("expected ErrNilView, got %v", err)
		}
	})
}

// TestMarkdownWriter tests the Markdown report.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("populated view", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(NewView(createTestInput())); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		output := buf.String()

		for _, want := range []string{
			"# ✈️ Flight Dashboard",
			"Last generated: 2026-10-17 18:01 IST",
			"New lowest price recorded: ₹4,519",
			"```mermaid",
			"Non-stop",
			"## Top 5 Non-stop Flights",
			"New Delhi (DEL)",
			"No flights available",
			"## Price history",
			"2026-10-17 18:00",
			"DEL.AIRPORT",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output:\n%s", want, output)
			}
		}
		// Newest history entry is listed first.
		if strings.Index(output, "2026-10-17 18:00") > strings.Index(output, "2026-10-17 06:00") {
			t.Error("expected history newest first")
		}
	})

	t.Run("empty view", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(NewView(Input{})); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "returned no price") {
			t.Errorf("expected missing price warning:\n%s", output)
		}
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no chart without stop data")
		}
	})
}

// TestJSONWriter tests the JSON output.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       []JSONWriterOption
		wantIndent bool
	}{
		{"compact", nil, false},
		{"pretty", []JSONWriterOption{WithPrettyPrint()}, true},
		{"custom indent", []JSONWriterOption{WithIndent("", "\t")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if _, err := NewJSONWriter(&buf, tt.opts...).Write(NewView(createTestInput())); err != nil {
				t.Fatalf("Write() error = %v", err)
			}

			var decoded struct {
				Timestamp string `json:"timestamp"`
				NewLow    bool   `json:"new_low"`
				Tables    []struct {
					Key string `json:"key"`
				} `json:"tables"`
			}
			if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if decoded.Timestamp != "2026-10-17 18:01 IST" || !decoded.NewLow || len(decoded.Tables) != 3 {
				t.Errorf("unexpected output %+v", decoded)
			}
			if decoded.Tables[1].Key != "1stop" {
				t.Errorf("table key = %q", decoded.Tables[1].Key)
			}
			if got := strings.Contains(buf.String(), "\n  ") || strings.Contains(buf.String(), "\n\t"); got != tt.wantIndent {
				t.Errorf("indented = %v, want %v", got, tt.wantIndent)
			}
		})
	}
}

// TestTextWriter tests the terminal summary.
func TestTextWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewTextWriter(&buf).Write(NewView(createTestInput())); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	output := buf.String()
	for _, want := range []string{
		"FLIGHT DASHBOARD",
		"NEW LOWEST PRICE",
		"Cheapest overall:      ₹4,519",
		"TOP 5 MULTI-STOP FLIGHTS",
		"No flights available",
		"Latest:  ₹4,519 (2026-10-17 18:00)",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var md, js bytes.Buffer
	w := NewMultiWriter(NewMarkdownWriter(&md), NewJSONWriter(&js))
	n, err := w.Write(NewView(createTestInput()))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if md.Len() == 0 || js.Len() == 0 {
		t.Error("expected output from both writers")
	}
	if n < js.Len() {
		t.Errorf("n = %d, expected at least the JSON bytes (%d)", n, js.Len())
	}

	if _, err := NewMultiWriter(NewJSONWriter(io.Discard)).Write(nil); err != ErrNilView {
		t.Errorf("expected ErrNilView, got %v", err)
	}
}

// TestWriteFile tests atomic file output.
func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dashboard", "index.html")
	v := NewView(createTestInput())
	newWriter := func(w io.Writer) Writer { return NewHTMLWriter(w) }

	if err := WriteFile(path, v, newWriter); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	// Overwriting an existing page works too.
	if err := WriteFile(path, v, newWriter); err != nil {
		t.Fatalf("second WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read dashboard: %v", err)
	}
	if !strings.HasPrefix(string(data), "<!DOCTYPE html>") {
		t.Errorf("unexpected content: %.40s", data)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the dashboard, got %d entries", len(entries))
	}

	if err := WriteFile(path, nil, newWriter); err != ErrNilView {
		t.Errorf("expected ErrNilView, got %v", err)
	}
}
