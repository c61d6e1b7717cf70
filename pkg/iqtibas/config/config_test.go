package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/iqtibas/pkg/iqtibas/align"
	"github.com/cognicore/iqtibas/pkg/iqtibas/internalerr"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadParams(t *testing.T) {
	path := writeFile(t, `
window_size: 300
stride: 75
mode: combined
min_core_similarity: 0.85
`)

	params, err := LoadParams(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if params.WindowSize != 300 || params.Stride != 75 {
		t.Errorf("windowing = %d/%d, want 300/75", params.WindowSize, params.Stride)
	}
	if params.Mode != align.ModeCombined {
		t.Errorf("mode = %v, want combined", params.Mode)
	}
	if params.MinCoreSimilarity == nil || *params.MinCoreSimilarity != 0.85 {
		t.Errorf("min_core_similarity = %v, want 0.85", params.MinCoreSimilarity)
	}
	// Unspecified fields keep their defaults.
	if params.NgramSize != 5 || !params.UseWeights {
		t.Errorf("defaults not preserved: ngram=%d use_weights=%v", params.NgramSize, params.UseWeights)
	}
}

func TestLoadParamsInvalid(t *testing.T) {
	path := writeFile(t, "stride: 0\n")
	if _, err := LoadParams(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("zero stride error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadParamsBadYAML(t *testing.T) {
	path := writeFile(t, "window_size: [not a number\n")
	if _, err := LoadParams(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("bad yaml error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadParamsMissingFile(t *testing.T) {
	if _, err := LoadParams("/nonexistent/params.yaml"); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("missing file error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadParamsBadMode(t *testing.T) {
	path := writeFile(t, "mode: fancy\n")
	if _, err := LoadParams(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("bad mode error = %v, want ErrInvalidConfig", err)
	}
}
