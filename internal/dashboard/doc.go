// Package dashboard renders the processed flight data.
//
// NewView assembles everything a page needs (query, summary, history and
// the generation time) into a View. Writers then render the View:
//   - HTMLWriter: the static dashboard page with Chart.js charts
//   - MarkdownWriter: GitHub-flavored Markdown for job summaries
//   - JSONWriter: the view as JSON for other tools
//   - TextWriter: a short plain-text summary for the terminal
//
// Writers implement the Writer interface and can be combined with
// MultiWriter to produce several formats from one View.
package dashboard
