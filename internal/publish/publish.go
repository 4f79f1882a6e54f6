// Package publish copies the rendered dashboard into a directory served by
// a static host such as GitHub Pages.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// NoJekyllFile disables Jekyll processing on GitHub Pages.
const NoJekyllFile = ".nojekyll"

var (
	// ErrNoSource is returned when the dashboard directory does not exist.
	ErrNoSource = errors.New("dashboard directory not found: run 'flightdash generate' first")

	// ErrSameDirectory is returned when source and target are the same directory.
	ErrSameDirectory = errors.New("publish directory must differ from the dashboard directory")
)

// Publisher copies a site directory into a publish directory.
type Publisher struct {
	source string
	target string
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// New creates a Publisher copying source into target.
func New(source, target string, opts ...Option) *Publisher {
	p := &Publisher{
		source: source,
		target: target,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Target returns the publish directory.
func (p *Publisher) Target() string {
	return p.target
}

// Publish copies every regular file of the source directory into the
// target directory, replacing existing files atomically, and makes sure
// the target holds a .nojekyll marker. Files in the target that are not
// in the source are left alone. It returns the paths written.
func (p *Publisher) Publish(ctx context.Context) ([]string, error) {
	srcAbs, err := filepath.Abs(p.source)
	if err != nil {
		return nil, err
	}
	dstAbs, err := filepath.Abs(p.target)
	if err != nil {
		return nil, err
	}
	if srcAbs == dstAbs {
		return nil, ErrSameDirectory
	}
	if info, err := os.Stat(srcAbs); err != nil || !info.IsDir() {
		return nil, ErrNoSource
	}

	var written []string
	err = filepath.WalkDir(srcAbs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		// Temporary files of an interrupted render start with a dot.
		if strings.HasPrefix(d.Name(), ".") && path != srcAbs {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(srcAbs, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dstAbs, rel)
		if err := copyFile(path, dst); err != nil {
			return err
		}
		p.logger.Debug("published file", "path", dst)
		written = append(written, dst)
		return nil
	})
	if err != nil {
		return written, fmt.Errorf("failed to publish dashboard: %w", err)
	}

	marker := filepath.Join(dstAbs, NoJekyllFile)
	if _, err := os.Stat(marker); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(marker, nil, 0o644); err != nil { //nolint:gosec // served publicly
			return written, fmt.Errorf("failed to write %s: %w", marker, err)
		}
		written = append(written, marker)
	}

	p.logger.Info("dashboard published", "target", dstAbs, "files", len(written))
	return written, nil
}

// copyFile copies src to dst through a temporary file in dst's directory.
func copyFile(src, dst string) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // served publicly
		return err
	}

	in, err := os.Open(src) //nolint:gosec // path comes from walking the source directory
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close() //nolint:errcheck,gosec // the copy error is more useful
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // served publicly
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
