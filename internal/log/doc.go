// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The fetch step handles a RapidAPI key on every request, and scheduled runs
// write their logs to CI output that is often public. The SecureHandler masks:
//   - RapidAPI headers (x-rapidapi-key) and generic credential headers
//   - Secret values detected by pattern matching (RapidAPI keys, bearer tokens)
//   - Sensitive entries inside http.Header, url.Values and *url.URL attributes
//
// # Usage
//
//	logger := log.New(os.Stderr, verbose, jsonFormat)
//	logger.Debug("calling API", "headers", req.Header, "params", params)
//	slog.SetDefault(logger)
package log
