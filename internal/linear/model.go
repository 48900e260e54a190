// Package linear implements regularized logistic regression for binary
// indicator targets.
package linear

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	apperrors "github.com/tagforge/tag-forge/internal/pkg/errors"
)

// Penalty selects the regularization term.
type Penalty string

// Supported penalties.
const (
	PenaltyL1 Penalty = "l1"
	PenaltyL2 Penalty = "l2"
)

// Options holds the fitting hyperparameters. C is the inverse
// regularization strength: larger C means a weaker penalty.
type Options struct {
	Penalty       Penalty
	C             float64
	MaxIterations int
	Tolerance     float64
}

// DefaultOptions returns the standard hyperparameters.
func DefaultOptions() Options {
	return Options{
		Penalty:       PenaltyL2,
		C:             10,
		MaxIterations: 1000,
		Tolerance:     1e-4,
	}
}

// Validate checks the hyperparameters.
func (o Options) Validate() error {
	if o.Penalty != PenaltyL1 && o.Penalty != PenaltyL2 {
		return apperrors.InvalidConfigError(fmt.Sprintf("invalid penalty: %s (must be l1 or l2)", o.Penalty))
	}
	if o.C <= 0 {
		return apperrors.InvalidConfigError("c must be positive")
	}
	if o.MaxIterations < 1 {
		return apperrors.InvalidConfigError("max_iterations must be positive")
	}
	if o.Tolerance <= 0 {
		return apperrors.InvalidConfigError("tolerance must be positive")
	}
	return nil
}

// Model is a fitted binary logistic regression classifier. When the
// training targets were all one class, Constant is set and the model
// answers with that class directly.
type Model struct {
	Weights   []float64 `msgpack:"weights"`
	Intercept float64   `msgpack:"intercept"`
	Constant  bool      `msgpack:"constant"`
	Class     int       `msgpack:"class"`
}

// Fit trains a logistic regression model on the rows of x against the
// 0/1 targets y. The decision boundary follows the regularized maximum
// likelihood solution; the intercept is regularized together with the
// weights.
func Fit(x mat.Matrix, y []float64, opts Options) (*Model, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, apperrors.DataError("training matrix is empty", nil)
	}
	if len(y) != rows {
		return nil, apperrors.DimensionMismatchError(
			fmt.Sprintf("target length %d does not match %d feature rows", len(y), rows))
	}

	positives := 0
	for _, v := range y {
		if v > 0.5 {
			positives++
		}
	}

	// A target column with a single class has no boundary to fit.
	if positives == 0 {
		return &Model{Constant: true, Class: 0}, nil
	}
	if positives == rows {
		return &Model{Constant: true, Class: 1}, nil
	}

	obj := newObjective(x, y, opts.C)

	var w []float64
	var err error
	switch opts.Penalty {
	case PenaltyL1:
		w, err = fitL1(obj, opts)
	default:
		w, err = fitL2(obj, opts)
	}
	if err != nil {
		return nil, err
	}

	return &Model{
		Weights:   w[:cols],
		Intercept: w[cols],
	}, nil
}

// DecisionFunction returns the signed margin for one feature row. A
// constant model reports its class value so downstream ranking still
// sees a usable score.
func (m *Model) DecisionFunction(row []float64) (float64, error) {
	if m.Constant {
		return float64(m.Class), nil
	}
	if len(row) != len(m.Weights) {
		return 0, apperrors.DimensionMismatchError(
			fmt.Sprintf("feature row has %d columns, model expects %d", len(row), len(m.Weights)))
	}

	margin := m.Intercept
	for j, w := range m.Weights {
		margin += w * row[j]
	}
	return margin, nil
}

// Predict returns the 0/1 class for one feature row using the native
// decision boundary: a strictly positive margin means class 1.
func (m *Model) Predict(row []float64) (int, error) {
	if m.Constant {
		return m.Class, nil
	}

	margin, err := m.DecisionFunction(row)
	if err != nil {
		return 0, err
	}
	if margin > 0 {
		return 1, nil
	}
	return 0, nil
}

// NumFeatures returns the feature width the model was fitted on, or -1
// for a constant model, which accepts any width.
func (m *Model) NumFeatures() int {
	if m.Constant {
		return -1
	}
	return len(m.Weights)
}
