// Package artifact persists trained pipeline outputs as msgpack files.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tagforge/tag-forge/internal/classifier"
	apperrors "github.com/tagforge/tag-forge/internal/pkg/errors"
)

// FormatVersion guards artifacts against readers from a different
// layout generation.
const FormatVersion = 1

// Metadata stamps an artifact with its provenance.
type Metadata struct {
	FormatVersion int       `msgpack:"format_version"`
	RunID         string    `msgpack:"run_id"`
	CreatedAt     time.Time `msgpack:"created_at"`
	DataDigest    string    `msgpack:"data_digest"`
}

// NewMetadata builds the provenance stamp for the current run.
func NewMetadata(runID, dataDigest string) Metadata {
	return Metadata{
		FormatVersion: FormatVersion,
		RunID:         runID,
		CreatedAt:     time.Now().UTC(),
		DataDigest:    dataDigest,
	}
}

// Model is the persisted trained classifier together with the
// hyperparameters it was fitted under.
type Model struct {
	Metadata Metadata             `msgpack:"metadata"`
	Penalty  string               `msgpack:"penalty"`
	C        float64              `msgpack:"c"`
	Ensemble *classifier.Ensemble `msgpack:"ensemble"`
}

// Vocabulary is the persisted label vocabulary, in column order.
type Vocabulary struct {
	Metadata Metadata `msgpack:"metadata"`
	Labels   []string `msgpack:"labels"`
}

// SaveModel stores the model artifact at path.
func SaveModel(path string, m *Model) error {
	return save(path, m, "model")
}

// LoadModel reads a model artifact back.
func LoadModel(path string) (*Model, error) {
	var m Model
	if err := load(path, &m, "model"); err != nil {
		return nil, err
	}
	if err := checkVersion(m.Metadata, path); err != nil {
		return nil, err
	}
	if m.Ensemble == nil || m.Ensemble.NumLabels() == 0 {
		return nil, apperrors.ArtifactError(fmt.Sprintf("model artifact %s has no models", path), nil)
	}
	return &m, nil
}

// SaveVocabulary stores the vocabulary artifact at path.
func SaveVocabulary(path string, v *Vocabulary) error {
	return save(path, v, "vocabulary")
}

// LoadVocabulary reads a vocabulary artifact back.
func LoadVocabulary(path string) (*Vocabulary, error) {
	var v Vocabulary
	if err := load(path, &v, "vocabulary"); err != nil {
		return nil, err
	}
	if err := checkVersion(v.Metadata, path); err != nil {
		return nil, err
	}
	if len(v.Labels) == 0 {
		return nil, apperrors.ArtifactError(fmt.Sprintf("vocabulary artifact %s has no labels", path), nil)
	}
	return &v, nil
}

func save(path string, v interface{}, kind string) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return apperrors.ArtifactError(fmt.Sprintf("encoding %s artifact", kind), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.ArtifactError(fmt.Sprintf("creating %s artifact directory", kind), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return apperrors.ArtifactError(fmt.Sprintf("creating %s artifact temp file", kind), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.ArtifactError(fmt.Sprintf("writing %s artifact", kind), err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.ArtifactError(fmt.Sprintf("closing %s artifact temp file", kind), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.ArtifactError(fmt.Sprintf("moving %s artifact into place", kind), err)
	}
	return nil
}

func load(path string, v interface{}, kind string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.ArtifactError(fmt.Sprintf("reading %s artifact %s", kind, path), err)
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return apperrors.ArtifactError(fmt.Sprintf("decoding %s artifact %s", kind, path), err)
	}
	return nil
}

func checkVersion(m Metadata, path string) error {
	if m.FormatVersion != FormatVersion {
		return apperrors.ArtifactError(
			fmt.Sprintf("artifact %s has format version %d, this build reads %d",
				path, m.FormatVersion, FormatVersion), nil)
	}
	return nil
}
