package config

// File represents the structure of the .flightdash.yaml settings file.
// Every field is optional; a zero value leaves the current setting alone.
// The API key is deliberately absent: secrets belong in the environment.
type File struct {
	// API configures the flight search endpoint.
	API APISettings `yaml:"api,omitempty"`

	// Paths configures where inputs and outputs live.
	Paths PathSettings `yaml:"paths,omitempty"`

	// Dashboard configures rendering.
	Dashboard DashboardSettings `yaml:"dashboard,omitempty"`

	// History configures price history storage.
	History HistorySettings `yaml:"history,omitempty"`

	// Schedule configures the schedule command.
	Schedule ScheduleSettings `yaml:"schedule,omitempty"`

	// Alert configures price alerts.
	Alert AlertSettings `yaml:"alert,omitempty"`
}

// APISettings holds endpoint options.
type APISettings struct {
	URL       string  `yaml:"url,omitempty"`
	Host      string  `yaml:"host,omitempty"`
	Timeout   string  `yaml:"timeout,omitempty"`
	RateLimit float64 `yaml:"rateLimit,omitempty"`
}

// PathSettings holds file and directory locations.
type PathSettings struct {
	Query     string `yaml:"query,omitempty"`
	Data      string `yaml:"data,omitempty"`
	Dashboard string `yaml:"dashboard,omitempty"`
	Publish   string `yaml:"publish,omitempty"`
}

// DashboardSettings holds rendering options.
type DashboardSettings struct {
	Timezone       string `yaml:"timezone,omitempty"`
	CurrencySymbol string `yaml:"currencySymbol,omitempty"`
	OfferWindow    int    `yaml:"offerWindow,omitempty"`
	TopPerStop     int    `yaml:"topPerStop,omitempty"`
	TopOverall     int    `yaml:"topOverall,omitempty"`
	Markdown       bool   `yaml:"markdown,omitempty"`
	JSON           bool   `yaml:"json,omitempty"`
}

// HistorySettings holds history storage options.
type HistorySettings struct {
	Backend string `yaml:"backend,omitempty"`
	DBDir   string `yaml:"dbDir,omitempty"`
}

// ScheduleSettings holds scheduler options.
type ScheduleSettings struct {
	Cron        string `yaml:"cron,omitempty"`
	MetricsAddr string `yaml:"metricsAddr,omitempty"`
}

// AlertSettings holds SNS alert options.
type AlertSettings struct {
	TopicARN  string `yaml:"topicArn,omitempty"`
	Threshold int    `yaml:"threshold,omitempty"`
}

// ApplyTo copies every non-zero setting onto cfg.
// A malformed timeout is reported instead of silently ignored.
func (f *File) ApplyTo(cfg *Config) error {
	setString(&cfg.APIURL, f.API.URL)
	setString(&cfg.APIHost, f.API.Host)
	if f.API.Timeout != "" {
		d, err := parseDuration(f.API.Timeout)
		if err != nil {
			return err
		}
		cfg.Timeout = d
	}
	if f.API.RateLimit != 0 {
		cfg.RateLimit = f.API.RateLimit
	}

	setString(&cfg.QueryFile, f.Paths.Query)
	setString(&cfg.DataDir, f.Paths.Data)
	setString(&cfg.DashboardDir, f.Paths.Dashboard)
	setString(&cfg.PublishDir, f.Paths.Publish)

	setString(&cfg.Timezone, f.Dashboard.Timezone)
	setString(&cfg.CurrencySymbol, f.Dashboard.CurrencySymbol)
	setInt(&cfg.OfferWindow, f.Dashboard.OfferWindow)
	setInt(&cfg.TopPerStop, f.Dashboard.TopPerStop)
	setInt(&cfg.TopOverall, f.Dashboard.TopOverall)
	cfg.MarkdownReport = cfg.MarkdownReport || f.Dashboard.Markdown
	cfg.JSONReport = cfg.JSONReport || f.Dashboard.JSON

	setString(&cfg.HistoryBackend, f.History.Backend)
	setString(&cfg.DBDir, f.History.DBDir)

	setString(&cfg.Schedule, f.Schedule.Cron)
	setString(&cfg.MetricsAddr, f.Schedule.MetricsAddr)

	setString(&cfg.AlertTopicARN, f.Alert.TopicARN)
	setInt(&cfg.AlertThreshold, f.Alert.Threshold)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
