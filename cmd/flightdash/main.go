// Package main provides the entry point for the flightdash CLI.
//
// flightdash fetches flight offers from the Booking.com flight search API
// on RapidAPI, summarizes them, keeps a price history and renders a static
// HTML dashboard.
//
// Usage:
//
//	flightdash run
//	flightdash fetch && flightdash process && flightdash generate
//	flightdash schedule
//
// See --help for all available options.
package main

import (
	_ "time/tzdata" // timestamps default to Asia/Kolkata even on hosts without zoneinfo
)

// main is the entry point for flightdash.
func main() {
	Execute()
}
