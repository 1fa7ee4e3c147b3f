package index

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/mod/semver"
)

// FormatVersion is the on-disk layout version written to the manifest.
// Loading an artifact whose major version differs is treated as absent.
const FormatVersion = "v1.0.0"

const (
	manifestFile   = "manifest.json"
	vectorizerFile = "vectorizer.gob"
	matrixFile     = "matrix.gob"
	chunksFile     = "chunks.gob"
)

// ErrArtifactAbsent is returned by Load when the artifact directory is
// missing, incomplete or written in an incompatible format.
var ErrArtifactAbsent = errors.New("index: artifact absent")

// Manifest describes a persisted artifact.
type Manifest struct {
	FormatVersion string    `json:"format_version"`
	Chunks        int       `json:"chunks"`
	Vocabulary    int       `json:"vocabulary"`
	CreatedAt     time.Time `json:"created_at"`
}

// Save persists a into dir. The three parts and the manifest are written to
// a sibling staging directory which then replaces dir, so readers observe
// either the previous artifact or the new one.
func Save(dir string, a *Artifact) error {
	if !a.valid() {
		return fmt.Errorf("save artifact: rows and chunks are misaligned")
	}

	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create index parent: %w", err)
	}

	staging, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-staging-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	parts := []struct {
		name  string
		value any
	}{
		{vectorizerFile, a.Vectorizer},
		{matrixFile, a.Matrix},
		{chunksFile, a.Chunks},
	}
	for _, p := range parts {
		if err := writeGob(filepath.Join(staging, p.name), p.value); err != nil {
			return err
		}
	}

	m := Manifest{
		FormatVersion: FormatVersion,
		Chunks:        len(a.Chunks),
		Vocabulary:    a.Vectorizer.Size(),
		CreatedAt:     time.Now().UTC(),
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, manifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return swapDir(staging, dir)
}

// swapDir moves staging into place at dir, removing any previous content.
func swapDir(staging, dir string) error {
	old := ""
	if _, err := os.Stat(dir); err == nil {
		old = dir + ".old"
		_ = os.RemoveAll(old)
		if err := os.Rename(dir, old); err != nil {
			return fmt.Errorf("move previous artifact aside: %w", err)
		}
	}

	if err := os.Rename(staging, dir); err != nil {
		if old != "" {
			_ = os.Rename(old, dir)
		}
		return fmt.Errorf("install artifact: %w", err)
	}

	if old != "" {
		_ = os.RemoveAll(old)
	}
	return nil
}

// Load reads an artifact previously written by Save.
func Load(dir string) (*Artifact, *Manifest, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, nil, err
	}

	a := &Artifact{Vectorizer: &Vectorizer{}}
	if err := readGob(filepath.Join(dir, vectorizerFile), a.Vectorizer); err != nil {
		return nil, nil, err
	}
	if err := readGob(filepath.Join(dir, matrixFile), &a.Matrix); err != nil {
		return nil, nil, err
	}
	if err := readGob(filepath.Join(dir, chunksFile), &a.Chunks); err != nil {
		return nil, nil, err
	}

	if !a.valid() {
		return nil, nil, fmt.Errorf("%w: %d rows for %d chunks", ErrArtifactAbsent, len(a.Matrix.Rows), len(a.Chunks))
	}
	return a, m, nil
}

// ReadManifest reads and version-checks the manifest in dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactAbsent, dir)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: bad manifest: %v", ErrArtifactAbsent, err)
	}
	if !compatible(m.FormatVersion) {
		return nil, fmt.Errorf("%w: format %q, want %s.x", ErrArtifactAbsent, m.FormatVersion, semver.Major(FormatVersion))
	}
	return &m, nil
}

func compatible(v string) bool {
	return semver.IsValid(v) && semver.Major(v) == semver.Major(FormatVersion)
}

func writeGob(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func readGob(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: missing %s", ErrArtifactAbsent, filepath.Base(path))
		}
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrArtifactAbsent, filepath.Base(path), err)
	}
	return nil
}
