package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StopCategory classifies an offer by the number of legs of its first segment.
type StopCategory int

const (
	// Nonstop is a single-leg flight.
	Nonstop StopCategory = iota

	// OneStop is a two-leg flight.
	OneStop

	// Multistop is any flight with three or more legs.
	Multistop
)

// StopCategories lists the categories in display order.
var StopCategories = []StopCategory{Nonstop, OneStop, Multistop}

// CategoryForLegs returns the category of an offer whose first segment has
// the given number of legs.
func CategoryForLegs(legs int) StopCategory {
	switch legs {
	case 1:
		return Nonstop
	case 2:
		return OneStop
	default:
		return Multistop
	}
}

// Key returns the summary.json key of the category.
func (c StopCategory) Key() string {
	switch c {
	case Nonstop:
		return "nonstop"
	case OneStop:
		return "1stop"
	default:
		return "multistop"
	}
}

// Label returns the human-readable name shown on the dashboard.
func (c StopCategory) Label() string {
	switch c {
	case Nonstop:
		return "Non-stop"
	case OneStop:
		return "One-stop"
	default:
		return "Multi-stop"
	}
}

// String implements fmt.Stringer.
func (c StopCategory) String() string {
	return c.Key()
}

// Summary is the processed view of one API response.
type Summary struct {
	TotalFlights    int            `json:"totalFlights"`
	FilteredFlights int            `json:"filteredFlights"`
	MinPrice        *int64         `json:"minPrice"`
	DurationMin     *float64       `json:"durationMin"`
	DurationMax     *float64       `json:"durationMax"`
	Stops           []StopSummary  `json:"stops"`
	Airlines        []AirlineStats `json:"airlines"`
	DepartureSlots  []SlotCount    `json:"departureSlots"`
	OffersByStops   OffersByStops  `json:"offersByStops"`
	TopOffers       []Offer        `json:"topOffers"`
}

// NewSummary returns a summary with every list initialized, so it encodes
// as [] rather than null.
func NewSummary() *Summary {
	return &Summary{
		Stops:          []StopSummary{},
		Airlines:       []AirlineStats{},
		DepartureSlots: []SlotCount{},
		OffersByStops: OffersByStops{
			Nonstop:   []Offer{},
			OneStop:   []Offer{},
			Multistop: []Offer{},
		},
		TopOffers: []Offer{},
	}
}

// StopSummary is the aggregation for one number of stops.
type StopSummary struct {
	NumberOfStops   *int   `json:"numberOfStops"`
	Count           *int   `json:"count"`
	CheapestAirline string `json:"cheapestAirline"`
	MinPrice        *int64 `json:"minPrice"`
}

// AirlineStats is the aggregation for one airline.
type AirlineStats struct {
	Name             string `json:"name"`
	Count            *int   `json:"count"`
	MinPrice         *int64 `json:"minPrice"`
	MinPricePerAdult *int64 `json:"minPricePerAdult"`
}

// SlotCount is the number of offers departing in a time window.
type SlotCount struct {
	Start string `json:"start"`
	Count *int   `json:"count"`
}

// OffersByStops groups the cheapest offers by stop category.
type OffersByStops struct {
	Nonstop   []Offer `json:"nonstop"`
	OneStop   []Offer `json:"1stop"` //nolint:tagliatelle // summary.json format
	Multistop []Offer `json:"multistop"`
}

// Get returns the offers of a category.
func (o *OffersByStops) Get(c StopCategory) []Offer {
	switch c {
	case Nonstop:
		return o.Nonstop
	case OneStop:
		return o.OneStop
	default:
		return o.Multistop
	}
}

// Set replaces the offers of a category.
func (o *OffersByStops) Set(c StopCategory, offers []Offer) {
	switch c {
	case Nonstop:
		o.Nonstop = offers
	case OneStop:
		o.OneStop = offers
	default:
		o.Multistop = offers
	}
}

// Cheapest returns the lowest price of a category, or nil when it has no
// priced offer. Offers are kept sorted, so the first priced one wins.
func (o *OffersByStops) Cheapest(c StopCategory) *int64 {
	for _, offer := range o.Get(c) {
		if offer.Price != nil && *offer.Price > 0 {
			return offer.Price
		}
	}
	return nil
}

// Offer is one flight option extracted from the response.
type Offer struct {
	Price           *int64 `json:"price"`
	Airline         string `json:"airline"`
	From            string `json:"from"`
	To              string `json:"to"`
	FromCode        string `json:"from_code"`        //nolint:tagliatelle // summary.json format
	ToCode          string `json:"to_code"`          //nolint:tagliatelle // summary.json format
	DepartureTime   string `json:"departure_time"`   //nolint:tagliatelle // summary.json format
	ArrivalTime     string `json:"arrival_time"`     //nolint:tagliatelle // summary.json format
	DurationMinutes int    `json:"duration_minutes"` //nolint:tagliatelle // summary.json format
	Stops           int    `json:"stops"`
}

// DecodeSummary parses summary.json. Missing lists come back empty.
func DecodeSummary(data []byte) (*Summary, error) {
	s := NewSummary()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	s.normalize()
	return s, nil
}

// normalize replaces null lists with empty ones.
func (s *Summary) normalize() {
	if s.Stops == nil {
		s.Stops = []StopSummary{}
	}
	if s.Airlines == nil {
		s.Airlines = []AirlineStats{}
	}
	if s.DepartureSlots == nil {
		s.DepartureSlots = []SlotCount{}
	}
	if s.TopOffers == nil {
		s.TopOffers = []Offer{}
	}
	for _, c := range StopCategories {
		if s.OffersByStops.Get(c) == nil {
			s.OffersByStops.Set(c, []Offer{})
		}
	}
}

// Encode returns the summary as indented JSON.
func (s *Summary) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
