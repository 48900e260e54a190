package label

import (
	"errors"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"

	apperrors "github.com/tagforge/tag-forge/internal/pkg/errors"
)

func TestBinarize(t *testing.T) {
	v := FromLabels([]string{"a", "b", "c"})

	got, err := Binarize(v, [][]string{
		{"a"},
		{"b", "c"},
		{"a", "c"},
	})
	if err != nil {
		t.Fatalf("Binarize() error = %v", err)
	}

	want := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 1,
		1, 0, 1,
	})
	if !mat.Equal(got, want) {
		t.Errorf("Binarize() =\n%v\nwant\n%v", mat.Formatted(got), mat.Formatted(want))
	}
}

func TestBinarize_RowSums(t *testing.T) {
	v := FromLabels([]string{"p", "q", "r", "s"})
	labelSets := [][]string{
		{"p", "r"},
		{},
		{"q", "r", "s"},
		{"s"},
	}

	got, err := Binarize(v, labelSets)
	if err != nil {
		t.Fatalf("Binarize() error = %v", err)
	}

	for i, set := range labelSets {
		sum := 0.0
		for j := 0; j < v.Len(); j++ {
			sum += got.At(i, j)
		}
		if sum != float64(len(set)) {
			t.Errorf("row %d sum = %v, want %d", i, sum, len(set))
		}
	}
}

func TestBinarize_Deterministic(t *testing.T) {
	v := FromLabels([]string{"a", "b", "c"})
	labelSets := [][]string{
		{"c", "a"},
		{},
		{"b"},
	}

	first, err := Binarize(v, labelSets)
	if err != nil {
		t.Fatalf("Binarize() error = %v", err)
	}
	second, err := Binarize(v, labelSets)
	if err != nil {
		t.Fatalf("Binarize() error = %v", err)
	}

	if !mat.Equal(first, second) {
		t.Errorf("repeated Binarize() differs:\n%v\n%v", mat.Formatted(first), mat.Formatted(second))
	}
}

func TestBinarize_UnknownLabel(t *testing.T) {
	v := FromLabels([]string{"a", "b"})

	_, err := Binarize(v, [][]string{{"a"}, {"zzz"}})
	if err == nil {
		t.Fatal("Binarize() error = nil, want unknown label error")
	}
	if !apperrors.IsUnknownLabel(err) {
		t.Errorf("Binarize() error = %v, want code %s", err, apperrors.CodeUnknownLabel)
	}

	var pe *apperrors.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("error %v is not a PipelineError", err)
	}
	if pe.Details["label"] != "zzz" {
		t.Errorf("Details[label] = %q, want %q", pe.Details["label"], "zzz")
	}
	if pe.Details["row"] != "1" {
		t.Errorf("Details[row] = %q, want %q", pe.Details["row"], "1")
	}
}

func TestBinarize_DuplicateWithinSet(t *testing.T) {
	v := FromLabels([]string{"a", "b"})

	got, err := Binarize(v, [][]string{{"a", "a", "b"}})
	if err != nil {
		t.Fatalf("Binarize() error = %v", err)
	}

	want := mat.NewDense(1, 2, []float64{1, 1})
	if !mat.Equal(got, want) {
		t.Errorf("Binarize() = %v, want %v", mat.Formatted(got), mat.Formatted(want))
	}
}

func TestBinarize_EmptyInputs(t *testing.T) {
	t.Run("empty vocabulary", func(t *testing.T) {
		v := FromLabels(nil)
		_, err := Binarize(v, [][]string{{}})
		if !apperrors.IsData(err) {
			t.Errorf("Binarize() error = %v, want code %s", err, apperrors.CodeData)
		}
	})

	t.Run("no label sets", func(t *testing.T) {
		v := FromLabels([]string{"a"})
		_, err := Binarize(v, nil)
		if !apperrors.IsData(err) {
			t.Errorf("Binarize() error = %v, want code %s", err, apperrors.CodeData)
		}
	})
}

func TestInverse(t *testing.T) {
	v := FromLabels([]string{"a", "b", "c"})
	indicators := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 1,
		0, 0, 0,
	})

	got, err := Inverse(v, indicators)
	if err != nil {
		t.Fatalf("Inverse() error = %v", err)
	}

	want := [][]string{{"a"}, {"b", "c"}, {}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Inverse() = %v, want %v", got, want)
	}
}

func TestInverse_RoundTrip(t *testing.T) {
	v := FromLabels([]string{"a", "b", "c", "d"})
	labelSets := [][]string{
		{"a", "c"},
		{"d"},
		{},
		{"a", "b", "c", "d"},
	}

	indicators, err := Binarize(v, labelSets)
	if err != nil {
		t.Fatalf("Binarize() error = %v", err)
	}

	got, err := Inverse(v, indicators)
	if err != nil {
		t.Fatalf("Inverse() error = %v", err)
	}

	if !reflect.DeepEqual(got, labelSets) {
		t.Errorf("round trip = %v, want %v", got, labelSets)
	}
}

func TestInverse_WidthMismatch(t *testing.T) {
	v := FromLabels([]string{"a", "b", "c"})
	indicators := mat.NewDense(2, 2, []float64{1, 0, 0, 1})

	_, err := Inverse(v, indicators)
	if !apperrors.IsDimensionMismatch(err) {
		t.Errorf("Inverse() error = %v, want code %s", err, apperrors.CodeDimensionMismatch)
	}
}
