package summarize

import (
	"cmp"
	"encoding/json"
	"slices"

	"github.com/nao1215/flightdash/internal/model"
)

// unpricedSortKey is the sort key of offers without a price, so they rank
// after every real fare.
const unpricedSortKey = 1_000_000_000

// Options controls how many offers are examined and kept.
type Options struct {
	// OfferWindow is how many leading offers are examined.
	OfferWindow int

	// TopPerStop is how many offers are kept per stop category.
	TopPerStop int

	// TopOverall is how many offers are kept in TopOffers.
	TopOverall int
}

// DefaultOptions returns the limits used by the dashboard.
func DefaultOptions() Options {
	return Options{OfferWindow: 50, TopPerStop: 5, TopOverall: 10}
}

// Result is the outcome of Extract.
type Result struct {
	Summary *model.Summary

	// Examined is the number of offers inside the window.
	Examined int

	// Skipped is the number of examined offers that could not be used.
	Skipped int
}

// Extract builds the summary of resp.
func Extract(resp *model.SearchResponse, opts Options) Result {
	s := model.NewSummary()
	if resp == nil {
		return Result{Summary: s}
	}
	agg := resp.Data.Aggregation

	s.TotalFlights = agg.TotalCount
	s.FilteredFlights = agg.FilteredTotalCount
	s.MinPrice = model.UnitsOf(agg.MinPrice)
	s.DurationMin = agg.DurationMin
	s.DurationMax = agg.DurationMax

	for _, st := range agg.Stops {
		var airline string
		if st.CheapestAirline != nil {
			airline = st.CheapestAirline.Name
		}
		s.Stops = append(s.Stops, model.StopSummary{
			NumberOfStops:   st.NumberOfStops,
			Count:           st.Count,
			CheapestAirline: airline,
			MinPrice:        model.UnitsOf(st.MinPrice),
		})
	}

	for _, a := range agg.Airlines {
		s.Airlines = append(s.Airlines, model.AirlineStats{
			Name:             a.Name,
			Count:            a.Count,
			MinPrice:         model.UnitsOf(a.MinPrice),
			MinPricePerAdult: model.UnitsOf(a.MinPricePerAdult),
		})
	}

	// Only the first flightTimes entry describes the outbound departures.
	if len(agg.FlightTimes) > 0 {
		for _, slot := range agg.FlightTimes[0].Departure {
			s.DepartureSlots = append(s.DepartureSlots, model.SlotCount{Start: slot.Start, Count: slot.Count})
		}
	}

	offers := resp.Data.FlightOffers
	if opts.OfferWindow > 0 && len(offers) > opts.OfferWindow {
		offers = offers[:opts.OfferWindow]
	}

	res := Result{Summary: s, Examined: len(offers)}
	all := make([]model.Offer, 0, len(offers))
	byStop := map[model.StopCategory][]model.Offer{}
	for _, rawOffer := range offers {
		offer, category, ok := parseOffer(rawOffer)
		if !ok {
			res.Skipped++
			continue
		}
		all = append(all, offer)
		byStop[category] = append(byStop[category], offer)
	}

	for _, c := range model.StopCategories {
		s.OffersByStops.Set(c, cheapest(byStop[c], opts.TopPerStop))
	}
	s.TopOffers = cheapest(all, opts.TopOverall)
	return res
}

// parseOffer extracts an Offer from one element of flightOffers.
// It reports false for offers that do not decode or have no segments.
// An offer whose first segment has no legs is kept as a multi-stop offer
// with zero stops and no airline.
func parseOffer(data json.RawMessage) (model.Offer, model.StopCategory, bool) {
	var fo model.FlightOffer
	if err := json.Unmarshal(data, &fo); err != nil {
		return model.Offer{}, 0, false
	}
	if len(fo.Segments) == 0 {
		return model.Offer{}, 0, false
	}
	first := fo.Segments[0]
	last := fo.Segments[len(fo.Segments)-1]

	// The first segment's legs decide the category.
	legs := len(first.Legs)

	var seconds float64
	for _, seg := range fo.Segments {
		seconds += seg.TotalTime
	}

	var airline string
	if legs > 0 {
		if carriers := first.Legs[0].CarriersData; len(carriers) > 0 {
			airline = carriers[0].BestName()
		}
	}

	return model.Offer{
		Price:           model.UnitsOf(fo.PriceBreakdown.Total),
		Airline:         airline,
		From:            first.DepartureAirport.CityName,
		To:              last.ArrivalAirport.CityName,
		FromCode:        first.DepartureAirport.Code,
		ToCode:          last.ArrivalAirport.Code,
		DepartureTime:   first.DepartureTime,
		ArrivalTime:     last.ArrivalTime,
		DurationMinutes: int(seconds / 60),
		Stops:           max(legs-1, 0),
	}, model.CategoryForLegs(legs), true
}

// cheapest returns up to n offers in ascending price order.
// The sort is stable so offers with equal prices keep the provider's order.
func cheapest(offers []model.Offer, n int) []model.Offer {
	sorted := slices.Clone(offers)
	slices.SortStableFunc(sorted, func(a, b model.Offer) int {
		return cmp.Compare(sortKey(a.Price), sortKey(b.Price))
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	if sorted == nil {
		sorted = []model.Offer{}
	}
	return sorted
}

// sortKey treats a missing or zero price as unpriced.
func sortKey(price *int64) int64 {
	if price == nil || *price == 0 {
		return unpricedSortKey
	}
	return *price
}

// FromRaw decodes the response wrapped in raw and extracts its summary.
func FromRaw(raw *model.RawResponse, opts Options) (Result, error) {
	resp, err := raw.Search()
	if err != nil {
		return Result{}, err
	}
	return Extract(resp, opts), nil
}
