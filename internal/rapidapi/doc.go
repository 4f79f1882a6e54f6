// Package rapidapi is the client for the Booking.com flight search API
// served through RapidAPI.
//
// RapidAPI authenticates and routes every request by two headers,
// x-rapidapi-key and x-rapidapi-host. The client injects both through an
// http.RoundTripper so that no call site can forget them, and throttles
// requests with a token bucket because the free plans are billed per call
// and reject bursts.
//
// The package only knows about HTTP. Decoding the flight data is done by
// the model and summarize packages.
package rapidapi
