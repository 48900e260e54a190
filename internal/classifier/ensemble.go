// Package classifier trains and applies a one-vs-rest ensemble of
// binary logistic regression models, one per label column.
package classifier

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/tagforge/tag-forge/internal/linear"
	apperrors "github.com/tagforge/tag-forge/internal/pkg/errors"
	"github.com/tagforge/tag-forge/internal/pkg/logger"
)

// TrainOptions configures ensemble training.
type TrainOptions struct {
	// Linear holds the per-model hyperparameters.
	Linear linear.Options

	// Parallelism bounds the number of concurrently fitted labels.
	// Zero means one worker per CPU.
	Parallelism int

	// Labels optionally names the target columns for log context.
	Labels []string
}

// Ensemble is a fitted one-vs-rest classifier. Models are ordered by
// target column.
type Ensemble struct {
	Models []*linear.Model `msgpack:"models"`
}

// Train fits one binary model per column of targets against the shared
// feature rows. Label fits are independent, so they run on a bounded
// worker group; the first failure cancels the remaining fits.
func Train(ctx context.Context, features, targets mat.Matrix, opts TrainOptions, log *logger.Logger) (*Ensemble, error) {
	if log == nil {
		log = logger.Nop()
	}

	featureRows, _ := features.Dims()
	targetRows, numLabels := targets.Dims()
	if featureRows != targetRows {
		return nil, apperrors.DimensionMismatchError(
			fmt.Sprintf("feature matrix has %d rows, target matrix has %d", featureRows, targetRows))
	}
	if numLabels == 0 {
		return nil, apperrors.DataError("target matrix has no label columns", nil)
	}
	if opts.Labels != nil && len(opts.Labels) != numLabels {
		return nil, apperrors.DimensionMismatchError(
			fmt.Sprintf("%d label names given for %d target columns", len(opts.Labels), numLabels))
	}

	workers := opts.Parallelism
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	models := make([]*linear.Model, numLabels)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for j := 0; j < numLabels; j++ {
		j := j // per-iteration copy; Go <1.22 shares the loop variable
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			column := make([]float64, targetRows)
			for i := 0; i < targetRows; i++ {
				column[i] = targets.At(i, j)
			}

			m, err := linear.Fit(features, column, opts.Linear)
			if err != nil {
				return fmt.Errorf("fitting %s: %w", labelName(opts.Labels, j), err)
			}

			if m.Constant {
				if m.Class == 1 {
					log.Warn("label is present in every training example",
						"label", labelName(opts.Labels, j))
				} else {
					log.Warn("label is absent from every training example",
						"label", labelName(opts.Labels, j))
				}
			}

			models[j] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Ensemble{Models: models}, nil
}

// NumLabels returns the number of per-label models.
func (e *Ensemble) NumLabels() int {
	return len(e.Models)
}

// FeatureWidth returns the feature count the ensemble was fitted on,
// or -1 when every model is constant and any width is accepted.
func (e *Ensemble) FeatureWidth() int {
	for _, m := range e.Models {
		if w := m.NumFeatures(); w >= 0 {
			return w
		}
	}
	return -1
}

// PredictLabels returns the 0/1 indicator matrix for the feature rows,
// one column per model.
func (e *Ensemble) PredictLabels(features mat.Matrix) (*mat.Dense, error) {
	return e.apply(features, func(m *linear.Model, row []float64) (float64, error) {
		c, err := m.Predict(row)
		return float64(c), err
	})
}

// PredictScores returns the uncalibrated decision margins for the
// feature rows, one column per model. Margins preserve the ranking the
// boundary decides by, which is what threshold-free metrics need.
func (e *Ensemble) PredictScores(features mat.Matrix) (*mat.Dense, error) {
	return e.apply(features, (*linear.Model).DecisionFunction)
}

func (e *Ensemble) apply(features mat.Matrix, f func(*linear.Model, []float64) (float64, error)) (*mat.Dense, error) {
	if len(e.Models) == 0 {
		return nil, apperrors.DataError("ensemble has no models", nil)
	}

	rows, cols := features.Dims()
	if rows == 0 {
		return nil, apperrors.DataError("feature matrix is empty", nil)
	}
	if want := e.FeatureWidth(); want >= 0 && want != cols {
		return nil, apperrors.DimensionMismatchError(
			fmt.Sprintf("feature matrix has %d columns, ensemble was fitted on %d", cols, want))
	}

	out := mat.NewDense(rows, len(e.Models), nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, features)
		for j, m := range e.Models {
			v, err := f(m, row)
			if err != nil {
				return nil, err
			}
			out.Set(i, j, v)
		}
	}

	return out, nil
}

func labelName(labels []string, j int) string {
	if j < len(labels) {
		return labels[j]
	}
	return fmt.Sprintf("column %d", j)
}
