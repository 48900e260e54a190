package evaluation

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	apperrors "github.com/tagforge/tag-forge/internal/pkg/errors"
)

// SubsetAccuracy calculates the fraction of rows whose predicted
// indicators match the truth exactly.
func SubsetAccuracy(truth, predicted mat.Matrix) (float64, error) {
	rows, cols, err := alignedDims(truth, predicted, "predicted labels")
	if err != nil {
		return 0, err
	}

	matches := 0
	for i := 0; i < rows; i++ {
		match := true
		for j := 0; j < cols; j++ {
			if truth.At(i, j) != predicted.At(i, j) {
				match = false
				break
			}
		}
		if match {
			matches++
		}
	}

	return float64(matches) / float64(rows), nil
}

// WeightedF1 calculates the per-label F1 scores averaged with each
// label's truth support as its weight. Labels with zero support drop
// out of the average; when no label has support the score is 0.
func WeightedF1(truth, predicted mat.Matrix) (float64, error) {
	rows, cols, err := alignedDims(truth, predicted, "predicted labels")
	if err != nil {
		return 0, err
	}

	totalSupport := 0.0
	weightedSum := 0.0
	for j := 0; j < cols; j++ {
		var tp, fp, fn float64
		for i := 0; i < rows; i++ {
			pos := truth.At(i, j) > 0.5
			pred := predicted.At(i, j) > 0.5
			switch {
			case pos && pred:
				tp++
			case !pos && pred:
				fp++
			case pos && !pred:
				fn++
			}
		}

		support := tp + fn
		totalSupport += support
		weightedSum += support * f1Score(tp, fp, fn)
	}

	if totalSupport == 0 {
		return 0, nil
	}
	return weightedSum / totalSupport, nil
}

// f1Score computes the harmonic mean of precision and recall, with
// empty denominators scored as 0.
func f1Score(tp, fp, fn float64) float64 {
	precision := 0.0
	if tp+fp > 0 {
		precision = tp / (tp + fp)
	}
	recall := 0.0
	if tp+fn > 0 {
		recall = tp / (tp + fn)
	}
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// MacroAveragePrecision calculates the unweighted mean of per-label
// average precision, ranking each label's rows by its score column.
// A label with no positive rows contributes 0.
func MacroAveragePrecision(truth, scores mat.Matrix) (float64, error) {
	rows, cols, err := alignedDims(truth, scores, "scores")
	if err != nil {
		return 0, err
	}

	sum := 0.0
	for j := 0; j < cols; j++ {
		positives := make([]bool, rows)
		column := make([]float64, rows)
		for i := 0; i < rows; i++ {
			positives[i] = truth.At(i, j) > 0.5
			column[i] = scores.At(i, j)
		}
		sum += averagePrecision(positives, column)
	}

	return sum / float64(cols), nil
}

// averagePrecision sums precision at each distinct score threshold
// weighted by the recall gained there.
func averagePrecision(positives []bool, scores []float64) float64 {
	total := 0
	for _, p := range positives {
		if p {
			total++
		}
	}
	if total == 0 {
		return 0
	}

	order := descendingOrder(scores)

	ap := 0.0
	tp, fp := 0.0, 0.0
	prevRecall := 0.0
	for k := 0; k < len(order); {
		// Tied scores move the operating point together.
		threshold := scores[order[k]]
		for k < len(order) && scores[order[k]] == threshold {
			if positives[order[k]] {
				tp++
			} else {
				fp++
			}
			k++
		}

		precision := tp / (tp + fp)
		recall := tp / float64(total)
		ap += (recall - prevRecall) * precision
		prevRecall = recall
	}

	return ap
}

// PairwiseROCAUC calculates the one-vs-one ROC AUC: for every label
// pair it restricts to rows carrying exactly one of the two labels,
// scores each direction's AUC, and averages the per-pair means. Pairs
// without rows on both sides are skipped; when every pair is skipped
// there is no ranking to measure and the metric fails.
func PairwiseROCAUC(truth, scores mat.Matrix) (float64, error) {
	rows, cols, err := alignedDims(truth, scores, "scores")
	if err != nil {
		return 0, err
	}

	sum := 0.0
	valid := 0
	for j := 0; j < cols; j++ {
		for k := j + 1; k < cols; k++ {
			var jScores, kScores []float64
			var jPositives, kPositives []bool
			jCount, kCount := 0, 0

			for i := 0; i < rows; i++ {
				hasJ := truth.At(i, j) > 0.5
				hasK := truth.At(i, k) > 0.5
				if hasJ == hasK {
					continue
				}
				if hasJ {
					jCount++
				} else {
					kCount++
				}
				jScores = append(jScores, scores.At(i, j))
				jPositives = append(jPositives, hasJ)
				kScores = append(kScores, scores.At(i, k))
				kPositives = append(kPositives, hasK)
			}

			if jCount == 0 || kCount == 0 {
				continue
			}

			aucJ := binaryAUC(jPositives, jScores)
			aucK := binaryAUC(kPositives, kScores)
			sum += (aucJ + aucK) / 2
			valid++
		}
	}

	if valid == 0 {
		return 0, apperrors.EvaluationError(
			fmt.Sprintf("no label pair has rows on both sides among %d labels", cols), nil)
	}
	return sum / float64(valid), nil
}

// binaryAUC computes the area under the ROC curve for one binary
// ranking. The inputs must contain at least one positive and one
// negative entry.
func binaryAUC(positives []bool, scores []float64) float64 {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	sortedScores := make([]float64, len(order))
	sortedClasses := make([]bool, len(order))
	for i, idx := range order {
		sortedScores[i] = scores[idx]
		sortedClasses[i] = positives[idx]
	}

	tpr, fpr, _ := stat.ROC(nil, sortedScores, sortedClasses, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// descendingOrder returns row indices sorted by score, highest first.
func descendingOrder(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}

// alignedDims checks that both matrices share the truth matrix's shape.
func alignedDims(truth, other mat.Matrix, what string) (rows, cols int, err error) {
	tr, tc := truth.Dims()
	or, oc := other.Dims()
	if tr != or || tc != oc {
		return 0, 0, apperrors.DimensionMismatchError(
			fmt.Sprintf("truth matrix is %dx%d but %s matrix is %dx%d", tr, tc, what, or, oc))
	}
	if tr == 0 || tc == 0 {
		return 0, 0, apperrors.DataError("evaluation matrices are empty", nil)
	}
	return tr, tc, nil
}
