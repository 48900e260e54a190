package linear

import (
	"fmt"

	"gonum.org/v1/gonum/optimize"

	apperrors "github.com/tagforge/tag-forge/internal/pkg/errors"
)

// fitL2 minimizes 0.5*||w||^2 + C*sum(log(1+exp(-y z))) with L-BFGS.
// The objective is smooth and strictly convex, so the quasi-Newton
// iteration converges to the unique optimum from the zero start.
func fitL2(obj *objective, opts Options) ([]float64, error) {
	problem := optimize.Problem{
		Func: obj.ridgeValue,
		Grad: obj.ridgeGradient,
	}

	settings := &optimize.Settings{
		GradientThreshold: opts.Tolerance,
		MajorIterations:   opts.MaxIterations,
	}

	x0 := make([]float64, obj.dims())

	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if err != nil {
		return nil, apperrors.TrainingError("l2 solver failed", err)
	}
	if result.Status == optimize.IterationLimit {
		return nil, apperrors.TrainingError(
			fmt.Sprintf("l2 solver did not converge within %d iterations", opts.MaxIterations), nil)
	}

	return result.X, nil
}
