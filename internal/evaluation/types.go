package evaluation

// Metric is one named score in a report.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Metric names, in report order.
const (
	MetricAccuracy         = "Accuracy score"
	MetricF1               = "F1 score"
	MetricAveragePrecision = "Average precision score"
	MetricROCAUC           = "ROC AUC score"
)
