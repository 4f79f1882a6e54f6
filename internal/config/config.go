package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "flightdash"

	// DefaultAPIURL is the Booking.com flight search endpoint on RapidAPI.
	DefaultAPIURL = "https://booking-com15.p.rapidapi.com/api/v1/flights/searchFlights"

	// DefaultAPIHost is sent as x-rapidapi-host. RapidAPI routes the request
	// to the provider by this header, not by the URL alone.
	DefaultAPIHost = "booking-com15.p.rapidapi.com"

	// DefaultTimeout bounds a single API request. Flight searches on this
	// provider regularly take 10-30 seconds.
	DefaultTimeout = 60 * time.Second

	// DefaultRateLimit is the number of API requests allowed per second.
	DefaultRateLimit = 1.0

	// DefaultQueryFile is the search parameter file, relative to the working directory.
	DefaultQueryFile = "config/query_params.json"

	// DefaultDataDir holds raw/, processed/ and history/.
	DefaultDataDir = "data"

	// DefaultDashboardDir receives the generated site.
	DefaultDashboardDir = "dashboard"

	// DefaultTimezone is used for history timestamps and the "last generated" line.
	// The dashboard was built for Indian routes and always reported IST.
	DefaultTimezone = "Asia/Kolkata"

	// DefaultCurrencySymbol prefixes every price on the dashboard.
	DefaultCurrencySymbol = "₹"

	// DefaultSchedule runs the pipeline twice a day, at midnight and noon.
	DefaultSchedule = "0 0,12 * * *"

	// DefaultOfferWindow is how many leading offers of a response are examined.
	DefaultOfferWindow = 50

	// DefaultTopPerStop is how many offers are kept per stop category.
	DefaultTopPerStop = 5

	// DefaultTopOverall is how many offers are kept in the overall ranking.
	DefaultTopOverall = 10

	// DefaultMaxBodySize limits how much of an API response is read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// History backends.
const (
	// HistoryCSV appends to data/history/price_log.csv.
	HistoryCSV = "csv"

	// HistorySQLite stores price points and run records in SQLite.
	HistorySQLite = "sqlite"
)

// Config holds all configuration options for flightdash.
// It is populated from defaults, the settings file and CLI flags, in that
// order, and passed down explicitly rather than kept in globals.
type Config struct {
	// APIURL is the flight search endpoint.
	APIURL string

	// APIHost is the value of the x-rapidapi-host header.
	APIHost string

	// APIKey is the RapidAPI key. It is never read from the settings file,
	// only from the environment (RAPIDAPI_KEY) or a .env file.
	APIKey string

	// Timeout is the timeout for each API request.
	Timeout time.Duration

	// RateLimit is the maximum number of API requests per second.
	RateLimit float64

	// MaxBodySize is the maximum API response size in bytes.
	MaxBodySize int64

	// QueryFile is the path to the JSON search parameter file.
	QueryFile string

	// DataDir is the root directory for raw, processed and history data.
	DataDir string

	// DashboardDir is the directory the dashboard is written to.
	DashboardDir string

	// PublishDir, when set, receives a copy of the dashboard ready for
	// static hosting (for example docs/ for GitHub Pages).
	PublishDir string

	// Timezone is an IANA zone name used for timestamps shown to humans.
	Timezone string

	// CurrencySymbol is printed in front of prices.
	CurrencySymbol string

	// HistoryBackend selects where price history is stored: "csv" or "sqlite".
	HistoryBackend string

	// DBDir is the directory of the SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// Schedule is the cron expression used by the schedule command.
	Schedule string

	// MetricsAddr, when set, is the listen address of the Prometheus
	// metrics endpoint served by the schedule command.
	MetricsAddr string

	// OfferWindow is how many leading offers are examined.
	OfferWindow int

	// TopPerStop is how many offers are kept per stop category.
	TopPerStop int

	// TopOverall is how many offers are kept in the overall ranking.
	TopOverall int

	// AlertTopicARN is the SNS topic price alerts are published to.
	// Alerts are disabled when empty.
	AlertTopicARN string

	// AlertThreshold triggers an alert when the minimum price is at or below it.
	// Zero disables alerts.
	AlertThreshold int

	// MarkdownReport additionally writes summary.md next to index.html.
	MarkdownReport bool

	// JSONReport additionally writes dashboard.json next to index.html.
	JSONReport bool

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches the log output to JSON.
	LogJSON bool

	// ConfigFilePath is the path of the settings file, if any.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		APIHost:        DefaultAPIHost,
		Timeout:        DefaultTimeout,
		RateLimit:      DefaultRateLimit,
		MaxBodySize:    DefaultMaxBodySize,
		QueryFile:      DefaultQueryFile,
		DataDir:        DefaultDataDir,
		DashboardDir:   DefaultDashboardDir,
		Timezone:       DefaultTimezone,
		CurrencySymbol: DefaultCurrencySymbol,
		HistoryBackend: HistoryCSV,
		DBDir:          XDGDataDir(),
		Schedule:       DefaultSchedule,
		OfferWindow:    DefaultOfferWindow,
		TopPerStop:     DefaultTopPerStop,
		TopOverall:     DefaultTopOverall,
	}
}

// XDGDataDir returns the XDG data directory for flightdash.
// On Linux: ~/.local/share/flightdash
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for flightdash.
// On Linux: ~/.config/flightdash
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// RawFile is where the fetch step stores the API response.
func (c *Config) RawFile() string {
	return filepath.Join(c.DataDir, "raw", "response.json")
}

// SummaryFile is where the process step stores the summary.
func (c *Config) SummaryFile() string {
	return filepath.Join(c.DataDir, "processed", "summary.json")
}

// HistoryFile is the CSV price log.
func (c *Config) HistoryFile() string {
	return filepath.Join(c.DataDir, "history", "price_log.csv")
}

// DashboardFile is the generated HTML page.
func (c *Config) DashboardFile() string {
	return filepath.Join(c.DashboardDir, "index.html")
}

// Location resolves Timezone. An empty Timezone means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, ErrInvalidTimezone
	}
	return loc, nil
}

// AlertsEnabled reports whether price alerts should be sent.
func (c *Config) AlertsEnabled() bool {
	return c.AlertTopicARN != "" && c.AlertThreshold > 0
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
// The API key is not checked here: process and generate do not need it.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return ErrNoAPIURL
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RateLimit <= 0 {
		return ErrInvalidRateLimit
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.OfferWindow <= 0 || c.TopPerStop <= 0 || c.TopOverall <= 0 {
		return ErrInvalidLimits
	}
	if c.HistoryBackend != HistoryCSV && c.HistoryBackend != HistorySQLite {
		return ErrInvalidHistoryBackend
	}
	if c.AlertThreshold < 0 {
		return ErrInvalidAlertThreshold
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
