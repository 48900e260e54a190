// Package dataset reads and writes the pipeline's JSONL corpus files.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	apperrors "github.com/tagforge/tag-forge/internal/pkg/errors"
)

// Example is one corpus record: a numeric feature row and the label
// set annotated on it.
type Example struct {
	Features []float64 `json:"features"`
	Labels   []string  `json:"labels"`
}

// Dataset holds a loaded corpus split as a feature matrix plus the
// parallel label sets.
type Dataset struct {
	Features  *mat.Dense
	LabelSets [][]string
}

// NumExamples returns the number of rows.
func (d *Dataset) NumExamples() int {
	if d.Features == nil {
		return 0
	}
	rows, _ := d.Features.Dims()
	return rows
}

// NumFeatures returns the feature width.
func (d *Dataset) NumFeatures() int {
	if d.Features == nil {
		return 0
	}
	_, cols := d.Features.Dims()
	return cols
}

// maxLineBytes bounds a single JSONL record; wide dense feature rows
// can run far past bufio's default line limit.
const maxLineBytes = 64 * 1024 * 1024

// Load reads one JSONL example per line from path. Blank lines are
// skipped. Every row must carry the same feature width.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.DataError(fmt.Sprintf("opening dataset %s", path), err)
	}
	defer f.Close()

	var features []float64
	var labelSets [][]string
	width := -1

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var ex Example
		if err := json.Unmarshal([]byte(line), &ex); err != nil {
			return nil, apperrors.DataError(fmt.Sprintf("parsing dataset %s", path), err).
				WithDetail("line", strconv.Itoa(lineNo))
		}

		if len(ex.Features) == 0 {
			return nil, apperrors.DataError(fmt.Sprintf("dataset %s has a record without features", path), nil).
				WithDetail("line", strconv.Itoa(lineNo))
		}

		if width == -1 {
			width = len(ex.Features)
		} else if len(ex.Features) != width {
			return nil, apperrors.DataError(
				fmt.Sprintf("dataset %s mixes feature widths: row has %d, expected %d",
					path, len(ex.Features), width), nil).
				WithDetail("line", strconv.Itoa(lineNo))
		}

		features = append(features, ex.Features...)
		if ex.Labels == nil {
			labelSets = append(labelSets, []string{})
		} else {
			labelSets = append(labelSets, ex.Labels)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.DataError(fmt.Sprintf("reading dataset %s", path), err)
	}

	if len(labelSets) == 0 {
		return nil, apperrors.DataError(fmt.Sprintf("dataset %s has no examples", path), nil)
	}

	return &Dataset{
		Features:  mat.NewDense(len(labelSets), width, features),
		LabelSets: labelSets,
	}, nil
}

// LoadVocabulary reads an explicit label vocabulary: a JSON array of
// strings.
func LoadVocabulary(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.DataError(fmt.Sprintf("opening vocabulary %s", path), err)
	}

	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, apperrors.DataError(fmt.Sprintf("parsing vocabulary %s", path), err)
	}
	if len(labels) == 0 {
		return nil, apperrors.DataError(fmt.Sprintf("vocabulary %s is empty", path), nil)
	}

	return labels, nil
}

// prediction is the JSONL shape for one predicted label set.
type prediction struct {
	Labels []string `json:"labels"`
}

// WriteLabelSets stores predicted label sets as JSONL, one record per
// input row, in row order.
func WriteLabelSets(path string, labelSets [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.ArtifactError(fmt.Sprintf("creating predictions file %s", path), err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, set := range labelSets {
		if set == nil {
			set = []string{}
		}
		if err := enc.Encode(prediction{Labels: set}); err != nil {
			f.Close()
			return apperrors.ArtifactError(fmt.Sprintf("writing predictions file %s", path), err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return apperrors.ArtifactError(fmt.Sprintf("flushing predictions file %s", path), err)
	}

	if err := f.Close(); err != nil {
		return apperrors.ArtifactError(fmt.Sprintf("closing predictions file %s", path), err)
	}
	return nil
}
