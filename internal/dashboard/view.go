package dashboard

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nao1215/flightdash/internal/model"
)

// TimestampLayout is the "last generated" format, e.g. 2026-10-18 12:00 IST.
const TimestampLayout = "2006-01-02 15:04 MST"

// historyLabelLayout labels the points of the price history chart.
const historyLabelLayout = "2006-01-02 15:04"

// Input is what NewView needs to build a View.
type Input struct {
	// Query is the search query as indented JSON. Empty means "{}".
	Query string

	// Summary is the processed response. Nil renders an empty dashboard.
	Summary *model.Summary

	// History is the price history, oldest first.
	History []model.PricePoint

	// GeneratedAt is the generation time. Zero means now.
	GeneratedAt time.Time

	// FetchedAt is when the API response was fetched, if known.
	FetchedAt time.Time

	// Location is the zone timestamps are shown in. Nil means UTC.
	Location *time.Location

	// CurrencySymbol prefixes prices.
	CurrencySymbol string

	// TopPerStop is the number of offers kept per category, used in table titles.
	TopPerStop int
}

// View is the data rendered by every Writer. Build it with NewView.
type View struct {
	Title          string             `json:"title"`
	Query          string             `json:"query"`
	GeneratedAt    time.Time          `json:"generated_at"`
	Timestamp      string             `json:"timestamp"`
	FetchedAt      string             `json:"fetched_at,omitempty"`
	CurrencySymbol string             `json:"currency_symbol"`
	Summary        *model.Summary     `json:"summary"`
	Metrics        []Metric           `json:"metrics"`
	Tables         []OfferTable       `json:"tables"`
	StopsChart     Chart              `json:"stops_chart"`
	SlotsChart     Chart              `json:"slots_chart"`
	HistoryChart   Chart              `json:"history_chart"`
	History        []model.PricePoint `json:"history"`

	// NewLow is true when the latest history point is cheaper than every earlier one.
	NewLow bool `json:"new_low"`
}

// Metric is one of the "cheapest" cards.
type Metric struct {
	Label string `json:"label"`
	Price *int64 `json:"price"`
}

// OfferTable lists the cheapest offers of one stop category.
type OfferTable struct {
	Category model.StopCategory `json:"-"`
	Key      string             `json:"key"`
	Title    string             `json:"title"`
	Offers   []model.Offer      `json:"offers"`
}

// Chart is the data of one Chart.js chart.
type Chart struct {
	Labels []string `json:"labels"`
	Values []int64  `json:"values"`
}

// NewView assembles a View from in.
func NewView(in Input) *View {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	generated := in.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	generated = generated.In(loc)

	summary := in.Summary
	if summary == nil {
		summary = model.NewSummary()
	}
	query := in.Query
	if query == "" {
		query = "{}"
	}
	top := in.TopPerStop
	if top <= 0 {
		top = 5
	}

	v := &View{
		Title:          "Flight Dashboard",
		Query:          query,
		GeneratedAt:    generated,
		Timestamp:      generated.Format(TimestampLayout),
		CurrencySymbol: in.CurrencySymbol,
		Summary:        summary,
		History:        in.History,
		NewLow:         isNewLow(in.History),
	}
	if v.History == nil {
		v.History = []model.PricePoint{}
	}
	if !in.FetchedAt.IsZero() {
		v.FetchedAt = in.FetchedAt.In(loc).Format(TimestampLayout)
	}

	v.Metrics = []Metric{{Label: "Cheapest overall", Price: summary.MinPrice}}
	for _, c := range model.StopCategories {
		v.Metrics = append(v.Metrics, Metric{
			Label: "Cheapest " + metricName(c),
			Price: summary.OffersByStops.Cheapest(c),
		})
		offers := summary.OffersByStops.Get(c)
		if offers == nil {
			offers = []model.Offer{}
		}
		v.Tables = append(v.Tables, OfferTable{
			Category: c,
			Key:      c.Key(),
			Title:    fmt.Sprintf("Top %d %s Flights", top, c.Label()),
			Offers:   offers,
		})
	}

	v.StopsChart = Chart{Labels: []string{}, Values: []int64{}}
	for _, s := range summary.Stops {
		label := "?"
		if s.NumberOfStops != nil {
			label = strconv.Itoa(*s.NumberOfStops)
		}
		v.StopsChart.Labels = append(v.StopsChart.Labels, label)
		v.StopsChart.Values = append(v.StopsChart.Values, intValue(s.Count))
	}

	v.SlotsChart = Chart{Labels: []string{}, Values: []int64{}}
	for _, s := range summary.DepartureSlots {
		v.SlotsChart.Labels = append(v.SlotsChart.Labels, s.Start)
		v.SlotsChart.Values = append(v.SlotsChart.Values, intValue(s.Count))
	}

	v.HistoryChart = Chart{Labels: []string{}, Values: []int64{}}
	for _, p := range v.History {
		v.HistoryChart.Labels = append(v.HistoryChart.Labels, p.RecordedAt.In(loc).Format(historyLabelLayout))
		v.HistoryChart.Values = append(v.HistoryChart.Values, p.MinPrice)
	}
	return v
}

// metricName is the short category name used on the metric cards.
func metricName(c model.StopCategory) string {
	switch c {
	case model.Nonstop:
		return "non-stop"
	case model.OneStop:
		return "1-stop"
	default:
		return "multi-stop"
	}
}

func intValue(p *int) int64 {
	if p == nil {
		return 0
	}
	return int64(*p)
}

func isNewLow(points []model.PricePoint) bool {
	if len(points) < 2 {
		return false
	}
	last := points[len(points)-1].MinPrice
	earlier, _ := model.LowestPrice(points[:len(points)-1])
	return last < earlier
}
