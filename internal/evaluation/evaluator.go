package evaluation

import (
	"gonum.org/v1/gonum/mat"
)

// Evaluate scores predicted indicators and margins against the truth
// matrix and assembles the report in its fixed order. Any metric
// failure fails the whole evaluation; a report is never partial.
func Evaluate(truth, predicted, scores mat.Matrix) (*Report, error) {
	accuracy, err := SubsetAccuracy(truth, predicted)
	if err != nil {
		return nil, err
	}

	f1, err := WeightedF1(truth, predicted)
	if err != nil {
		return nil, err
	}

	averagePrecision, err := MacroAveragePrecision(truth, scores)
	if err != nil {
		return nil, err
	}

	rocAUC, err := PairwiseROCAUC(truth, scores)
	if err != nil {
		return nil, err
	}

	return &Report{
		Metrics: []Metric{
			{Name: MetricAccuracy, Value: accuracy},
			{Name: MetricF1, Value: f1},
			{Name: MetricAveragePrecision, Value: averagePrecision},
			{Name: MetricROCAUC, Value: rocAUC},
		},
	}, nil
}
