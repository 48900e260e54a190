package linear

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	apperrors "github.com/tagforge/tag-forge/internal/pkg/errors"
)

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Options)
		wantErr bool
	}{
		{"defaults", func(o *Options) {}, false},
		{"l1 penalty", func(o *Options) { o.Penalty = PenaltyL1 }, false},
		{"unknown penalty", func(o *Options) { o.Penalty = "elasticnet" }, true},
		{"zero c", func(o *Options) { o.C = 0 }, true},
		{"negative c", func(o *Options) { o.C = -3 }, true},
		{"zero iterations", func(o *Options) { o.MaxIterations = 0 }, true},
		{"zero tolerance", func(o *Options) { o.Tolerance = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)

			err := opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFit_ConstantColumn(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		1, 1,
	})

	tests := []struct {
		name      string
		y         []float64
		wantClass int
	}{
		{"all negative", []float64{0, 0, 0}, 0},
		{"all positive", []float64{1, 1, 1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Fit(x, tt.y, DefaultOptions())
			if err != nil {
				t.Fatalf("Fit() error = %v", err)
			}

			if !m.Constant {
				t.Fatal("Constant = false, want true for single-class targets")
			}
			if m.Class != tt.wantClass {
				t.Errorf("Class = %d, want %d", m.Class, tt.wantClass)
			}

			// The stand-in answers with its class for any row width.
			got, err := m.Predict([]float64{5, 6, 7})
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			if got != tt.wantClass {
				t.Errorf("Predict() = %d, want %d", got, tt.wantClass)
			}

			score, err := m.DecisionFunction([]float64{5})
			if err != nil {
				t.Fatalf("DecisionFunction() error = %v", err)
			}
			if score != float64(tt.wantClass) {
				t.Errorf("DecisionFunction() = %v, want %v", score, float64(tt.wantClass))
			}
		})
	}
}

func TestFit_TargetLengthMismatch(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{1, 0, 0, 1, 1, 1})

	_, err := Fit(x, []float64{0, 1}, DefaultOptions())
	if !apperrors.IsDimensionMismatch(err) {
		t.Errorf("Fit() error = %v, want code %s", err, apperrors.CodeDimensionMismatch)
	}
}

func TestFit_InvalidOptions(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{0, 1})

	opts := DefaultOptions()
	opts.Penalty = "ridge"

	_, err := Fit(x, []float64{0, 1}, opts)
	if err == nil {
		t.Fatal("Fit() error = nil, want invalid config error")
	}
	if apperrors.CodeOf(err) != apperrors.CodeInvalidConfig {
		t.Errorf("Fit() error code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeInvalidConfig)
	}
}

func TestModel_Predict_Threshold(t *testing.T) {
	m := &Model{Weights: []float64{1}, Intercept: -2}

	tests := []struct {
		name string
		row  []float64
		want int
	}{
		{"clearly negative", []float64{0}, 0},
		{"exactly on boundary", []float64{2}, 0},
		{"clearly positive", []float64{3}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Predict(tt.row)
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Predict(%v) = %d, want %d", tt.row, got, tt.want)
			}
		})
	}
}

func TestModel_DecisionFunction_WidthMismatch(t *testing.T) {
	m := &Model{Weights: []float64{1, 2}, Intercept: 0}

	_, err := m.DecisionFunction([]float64{1})
	if !apperrors.IsDimensionMismatch(err) {
		t.Errorf("DecisionFunction() error = %v, want code %s", err, apperrors.CodeDimensionMismatch)
	}

	_, err = m.Predict([]float64{1, 2, 3})
	if !apperrors.IsDimensionMismatch(err) {
		t.Errorf("Predict() error = %v, want code %s", err, apperrors.CodeDimensionMismatch)
	}
}

func TestModel_NumFeatures(t *testing.T) {
	fitted := &Model{Weights: []float64{1, 2, 3}}
	if got := fitted.NumFeatures(); got != 3 {
		t.Errorf("NumFeatures() = %d, want 3", got)
	}

	constant := &Model{Constant: true, Class: 1}
	if got := constant.NumFeatures(); got != -1 {
		t.Errorf("NumFeatures() = %d, want -1", got)
	}
}
