package linear

import (
	"fmt"
	"math"

	apperrors "github.com/tagforge/tag-forge/internal/pkg/errors"
)

// fitL1 minimizes ||w||_1 + C*sum(log(1+exp(-y z))) with FISTA, the
// accelerated proximal gradient method. The l1 term is handled by the
// soft-threshold proximal operator; the step size adapts by
// backtracking on the smooth part's quadratic upper bound.
func fitL1(obj *objective, opts Options) ([]float64, error) {
	n := obj.dims()

	w := make([]float64, n)     // current iterate
	wPrev := make([]float64, n) // previous iterate
	yk := make([]float64, n)    // extrapolated point
	grad := make([]float64, n)
	cand := make([]float64, n)

	lip := 1.0 // local Lipschitz estimate, grown by backtracking
	tk := 1.0

	for iter := 0; iter < opts.MaxIterations; iter++ {
		gy := obj.loss(yk)
		obj.lossGradient(grad, yk)

		// Backtrack until the quadratic model at yk majorizes the loss.
		for {
			for j := range cand {
				cand[j] = softThreshold(yk[j]-grad[j]/lip, 1/lip)
			}

			diff := 0.0
			lin := 0.0
			for j := range cand {
				d := cand[j] - yk[j]
				diff += d * d
				lin += grad[j] * d
			}

			if obj.loss(cand) <= gy+lin+0.5*lip*diff {
				break
			}
			lip *= 2
			if math.IsInf(lip, 1) {
				return nil, apperrors.TrainingError("l1 solver step size collapsed", nil)
			}
		}

		// Gradient mapping measures how far yk is from a fixed point.
		converged := true
		for j := range cand {
			if math.Abs(lip*(yk[j]-cand[j])) > opts.Tolerance {
				converged = false
				break
			}
		}

		copy(wPrev, w)
		copy(w, cand)

		if converged {
			return w, nil
		}

		tNext := (1 + math.Sqrt(1+4*tk*tk)) / 2
		momentum := (tk - 1) / tNext
		for j := range yk {
			yk[j] = w[j] + momentum*(w[j]-wPrev[j])
		}
		tk = tNext
	}

	return nil, apperrors.TrainingError(
		fmt.Sprintf("l1 solver did not converge within %d iterations", opts.MaxIterations), nil)
}

// softThreshold is the proximal operator of the absolute value.
func softThreshold(v, k float64) float64 {
	switch {
	case v > k:
		return v - k
	case v < -k:
		return v + k
	default:
		return 0
	}
}
