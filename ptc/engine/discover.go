package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNoModel is returned when discovery finds no .gguf file.
var ErrNoModel = errors.New("no gguf model found")

// FindModel locates a GGUF model file under dir. A forced file name wins
// when it exists. Otherwise the directory is scanned, recursing into
// subdirectories only when the top level has no candidates, and phi-2
// variants are preferred over other models. An empty dir means the working
// directory.
func FindModel(dir, forced string, logger zerolog.Logger) (string, error) {
	if dir == "" {
		dir = "."
	}

	if forced != "" {
		path := filepath.Join(dir, forced)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		logger.Warn().
			Str("model_file", forced).
			Str("models_dir", dir).
			Msg("configured model file not found, scanning for alternatives")
	}

	candidates, err := filepath.Glob(filepath.Join(dir, "*.gguf"))
	if err != nil {
		return "", fmt.Errorf("scanning %s: %w", dir, err)
	}

	if len(candidates) == 0 {
		walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".gguf") {
				candidates = append(candidates, path)
			}
			return nil
		})
		if walkErr != nil {
			return "", fmt.Errorf("scanning %s: %w", dir, walkErr)
		}
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoModel, dir)
	}

	sort.Strings(candidates)

	for _, path := range candidates {
		name := strings.ToLower(filepath.Base(path))
		if strings.Contains(name, "phi-2") || strings.Contains(name, "phi2") {
			return path, nil
		}
	}

	return candidates[0], nil
}
