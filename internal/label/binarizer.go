package label

import (
	"strconv"

	"gonum.org/v1/gonum/mat"

	apperrors "github.com/tagforge/tag-forge/internal/pkg/errors"
)

// Binarize encodes each label set as a row of 0/1 indicators over the
// vocabulary columns. Every row has vocabulary width; a label that is
// not in the vocabulary fails the whole call.
func Binarize(v *Vocabulary, labelSets [][]string) (*mat.Dense, error) {
	if v.Len() == 0 {
		return nil, apperrors.DataError("vocabulary is empty", nil)
	}
	if len(labelSets) == 0 {
		return nil, apperrors.DataError("no label sets to binarize", nil)
	}

	out := mat.NewDense(len(labelSets), v.Len(), nil)
	for i, set := range labelSets {
		for _, l := range set {
			j, ok := v.Index(l)
			if !ok {
				return nil, apperrors.UnknownLabelError(l).WithDetail("row", strconv.Itoa(i))
			}
			out.Set(i, j, 1)
		}
	}

	return out, nil
}

// Inverse maps binary indicator rows back to label sets in vocabulary
// order. Entries are treated as set when they exceed 0.5 so float noise
// around 0 and 1 does not flip indicators.
func Inverse(v *Vocabulary, indicators mat.Matrix) ([][]string, error) {
	rows, cols := indicators.Dims()
	if cols != v.Len() {
		return nil, apperrors.DimensionMismatchError(
			"indicator matrix width does not match vocabulary size").
			WithDetail("columns", strconv.Itoa(cols)).
			WithDetail("vocabulary", strconv.Itoa(v.Len()))
	}

	out := make([][]string, rows)
	for i := 0; i < rows; i++ {
		set := []string{}
		for j := 0; j < cols; j++ {
			if indicators.At(i, j) > 0.5 {
				set = append(set, v.Label(j))
			}
		}
		out[i] = set
	}

	return out, nil
}
