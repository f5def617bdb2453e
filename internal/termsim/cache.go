package termsim

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mirlab/softsim/internal/artifact"
	"github.com/mirlab/softsim/internal/sparse"
)

// CachePath returns the artifact path for a parameter set under dir.
func CachePath(dir string, p Params) string {
	return filepath.Join(dir, fmt.Sprintf("termsim-%s.json.zst", p.Key()))
}

// Cached returns the matrix for p, loading it from dir when present and
// building and saving it otherwise.
func Cached(dir string, p Params, build func() *sparse.Matrix, logger zerolog.Logger) (*sparse.Matrix, error) {
	path := CachePath(dir, p)

	var m sparse.Matrix
	if err := artifact.LoadJSON(path, &m); err == nil {
		logger.Debug().Str("path", path).Msg("loaded term similarity matrix from cache")
		return &m, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Str("path", path).Err(err).Msg("ignoring unreadable cached matrix")
	}

	start := time.Now()
	built := build()
	logger.Info().
		Str("path", path).
		Dur("took", time.Since(start)).
		Msg("constructed term similarity matrix")

	if err := artifact.SaveJSON(path, built); err != nil {
		return nil, fmt.Errorf("cannot cache term similarity matrix: %w", err)
	}
	return built, nil
}
