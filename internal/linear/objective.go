package linear

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// objective evaluates the logistic data loss C * sum(log(1+exp(-y*z)))
// with y in {-1,+1} and z the margin of the bias-augmented weight
// vector. Feature rows are copied out of the matrix once so solver
// iterations run over a flat slice.
type objective struct {
	data  []float64 // rows*cols, row-major
	signs []float64 // +1 for positive targets, -1 otherwise
	rows  int
	cols  int
	c     float64
}

func newObjective(x mat.Matrix, y []float64, c float64) *objective {
	rows, cols := x.Dims()

	data := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data[i*cols+j] = x.At(i, j)
		}
	}

	signs := make([]float64, rows)
	for i, v := range y {
		if v > 0.5 {
			signs[i] = 1
		} else {
			signs[i] = -1
		}
	}

	return &objective{data: data, signs: signs, rows: rows, cols: cols, c: c}
}

// dims returns the weight vector length: one slot per feature plus the
// trailing intercept slot.
func (o *objective) dims() int {
	return o.cols + 1
}

// margin computes w . x_i + intercept for row i.
func (o *objective) margin(w []float64, i int) float64 {
	z := w[o.cols]
	row := o.data[i*o.cols : (i+1)*o.cols]
	for j, v := range row {
		z += w[j] * v
	}
	return z
}

// loss returns the data term C * sum_i log(1+exp(-y_i z_i)).
func (o *objective) loss(w []float64) float64 {
	sum := 0.0
	for i := 0; i < o.rows; i++ {
		sum += logLoss(o.signs[i] * o.margin(w, i))
	}
	return o.c * sum
}

// lossGradient writes the gradient of the data term into grad.
func (o *objective) lossGradient(grad, w []float64) {
	for j := range grad {
		grad[j] = 0
	}
	for i := 0; i < o.rows; i++ {
		s := o.signs[i]
		// d/dz of C*log(1+exp(-y z)) is -C*y*sigmoid(-y z).
		g := -o.c * s * sigmoidNeg(s*o.margin(w, i))
		row := o.data[i*o.cols : (i+1)*o.cols]
		floats.AddScaled(grad[:o.cols], g, row)
		grad[o.cols] += g
	}
}

// ridgeValue returns 0.5*||w||^2 + loss(w), the l2-penalized objective.
func (o *objective) ridgeValue(w []float64) float64 {
	return 0.5*floats.Dot(w, w) + o.loss(w)
}

// ridgeGradient writes the gradient of the l2-penalized objective.
func (o *objective) ridgeGradient(grad, w []float64) {
	o.lossGradient(grad, w)
	floats.Add(grad, w)
}

// logLoss computes log(1+exp(-t)) without overflowing for large |t|.
func logLoss(t float64) float64 {
	if t >= 0 {
		return math.Log1p(math.Exp(-t))
	}
	return -t + math.Log1p(math.Exp(t))
}

// sigmoidNeg computes 1/(1+exp(t)), the logistic function of -t.
func sigmoidNeg(t float64) float64 {
	if t >= 0 {
		e := math.Exp(-t)
		return e / (1 + e)
	}
	return 1 / (1 + math.Exp(t))
}
