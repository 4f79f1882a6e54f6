package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/language"
)

// ErrNilView is returned when a Writer is given no View.
var ErrNilView = errors.New("dashboard: nil view")

// Writer renders a View in one output format.
type Writer interface {
	// Write renders v to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(v *View) (int, error)
}

// MultiWriter writes a View to multiple Writers.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders v with every Writer, stopping on the first error.
func (m *MultiWriter) Write(v *View) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(v)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// defaultLanguage groups digits as 12,345.
var defaultLanguage = language.English

// Option configures the text based writers.
type Option func(*baseWriter)

// WithLanguage sets the language used to group price digits.
func WithLanguage(tag language.Tag) Option {
	return func(w *baseWriter) {
		w.lang = tag
	}
}

// baseWriter provides common functionality for writers.
type baseWriter struct {
	output io.Writer
	lang   language.Tag
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer, opts ...Option) baseWriter {
	w := baseWriter{output: output, lang: defaultLanguage}
	for _, opt := range opts {
		opt(&w)
	}
	return w
}

func (w baseWriter) prices(v *View) *PriceFormatter {
	return NewPriceFormatter(v.CurrencySymbol, w.lang)
}

// WriteFile renders v into path with the Writer built by newWriter.
// The file is written to a temporary sibling first and renamed into
// place, so readers never see a partial page.
func WriteFile(path string, v *View, newWriter func(io.Writer) Writer) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := newWriter(tmp).Write(v); err != nil {
		tmp.Close() //nolint:errcheck,gosec // the write error is more useful
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // the dashboard is served publicly
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move dashboard into place: %w", err)
	}
	return nil
}
