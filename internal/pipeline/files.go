package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nao1215/flightdash/internal/config"
	"github.com/nao1215/flightdash/internal/model"
)

// ErrNoRawResponse is returned by ProcessStep when nothing was fetched yet.
var ErrNoRawResponse = errors.New("no raw response found: run 'flightdash fetch' first")

// writeFile writes data to path through a temporary sibling file.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // the write error is more useful
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// loadRaw reads the raw response written by FetchStep.
func loadRaw(path string) (*model.RawResponse, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoRawResponse
		}
		return nil, err
	}
	return model.DecodeRawResponse(data)
}

// loadSummary reads the summary written by ProcessStep.
// A missing file yields an empty summary.
func loadSummary(path string) (*model.Summary, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.NewSummary(), nil
		}
		return nil, err
	}
	return model.DecodeSummary(data)
}

// loadQueryText returns the query file as indented JSON.
// A missing file is shown as an empty object.
func loadQueryText(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "{}", nil
		}
		return "", err
	}
	q, err := config.ParseQuery(data)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return q.Pretty(), nil
}
