package model

import "encoding/json"

// SearchResponse is the body returned by the flight search endpoint.
// Only the fields flightdash uses are declared; everything else is ignored.
type SearchResponse struct {
	Status  bool       `json:"status"`
	Message any        `json:"message,omitempty"`
	Data    SearchData `json:"data"`
}

// SearchData holds the aggregation and the offer list.
type SearchData struct {
	Aggregation Aggregation `json:"aggregation"`

	// FlightOffers is kept raw so that a single malformed offer can be
	// skipped without failing the whole response.
	FlightOffers []json.RawMessage `json:"flightOffers"`
}

// Aggregation is the provider's precomputed breakdown of the result set.
type Aggregation struct {
	TotalCount         int                `json:"totalCount"`
	FilteredTotalCount int                `json:"filteredTotalCount"`
	MinPrice           *Money             `json:"minPrice"`
	DurationMin        *float64           `json:"durationMin"` // hours
	DurationMax        *float64           `json:"durationMax"` // hours
	Stops              []StopAggregate    `json:"stops"`
	Airlines           []AirlineAggregate `json:"airlines"`
	FlightTimes        []FlightTimes      `json:"flightTimes"`
}

// Money is a price as the API encodes it: whole units plus nanos.
type Money struct {
	CurrencyCode string `json:"currencyCode"`
	Units        *int64 `json:"units"`
	Nanos        int64  `json:"nanos"`
}

// UnitsOf returns the whole units of m, or nil when m or its units are missing.
func UnitsOf(m *Money) *int64 {
	if m == nil {
		return nil
	}
	return m.Units
}

// StopAggregate is one entry of aggregation.stops.
type StopAggregate struct {
	NumberOfStops   *int        `json:"numberOfStops"`
	Count           *int        `json:"count"`
	CheapestAirline *NamedThing `json:"cheapestAirline"`
	MinPrice        *Money      `json:"minPrice"`
}

// AirlineAggregate is one entry of aggregation.airlines.
type AirlineAggregate struct {
	Name             string `json:"name"`
	Count            *int   `json:"count"`
	MinPrice         *Money `json:"minPrice"`
	MinPricePerAdult *Money `json:"minPricePerAdult"`
}

// NamedThing is any API object of which only the name is used.
type NamedThing struct {
	Name string `json:"name"`
}

// FlightTimes is one entry of aggregation.flightTimes.
type FlightTimes struct {
	Departure []TimeSlot `json:"departure"`
	Arrival   []TimeSlot `json:"arrival"`
}

// TimeSlot is a departure or arrival window with its offer count.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Count *int   `json:"count"`
}

// FlightOffer is one element of data.flightOffers.
type FlightOffer struct {
	Segments       []Segment      `json:"segments"`
	PriceBreakdown PriceBreakdown `json:"priceBreakdown"`
}

// PriceBreakdown carries the total price of an offer.
type PriceBreakdown struct {
	Total *Money `json:"total"`
}

// Segment is one direction of a trip (outbound or return).
type Segment struct {
	DepartureAirport Airport `json:"departureAirport"`
	ArrivalAirport   Airport `json:"arrivalAirport"`
	DepartureTime    string  `json:"departureTime"`
	ArrivalTime      string  `json:"arrivalTime"`
	Legs             []Leg   `json:"legs"`

	// TotalTime is the segment duration in seconds.
	// The provider normally sends integers but fractional values are accepted.
	TotalTime float64 `json:"totalTime"`
}

// Airport identifies an airport by IATA code and city.
type Airport struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	CityName string `json:"cityName"`
}

// Leg is a single flight within a segment.
type Leg struct {
	CarriersData []Carrier `json:"carriersData"`
}

// Carrier is an operating or marketing airline of a leg.
type Carrier struct {
	Name             string      `json:"name"`
	Code             string      `json:"code"`
	DisplayName      string      `json:"displayName"`
	MarketingCarrier *NamedThing `json:"marketingCarrier"`
}

// BestName returns the best available airline name:
// the marketing carrier, then the carrier name, then its display name.
func (c Carrier) BestName() string {
	if c.MarketingCarrier != nil && c.MarketingCarrier.Name != "" {
		return c.MarketingCarrier.Name
	}
	if c.Name != "" {
		return c.Name
	}
	return c.DisplayName
}
