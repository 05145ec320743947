package tensor

import (
	"math"
)

// Add adds src to dst element-wise.
func Add(dst, src []float32) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// Scale multiplies x in place by s.
func Scale(x []float32, s float32) {
	for i := range x {
		x[i] *= s
	}
}

// Dot computes the dot product of a and b.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// LayerNorm normalises src to zero mean and unit variance, then applies the
// affine weight and bias. dst may alias src.
func LayerNorm(dst, src, weight, bias []float32, eps float32) {
	n := float32(len(src))
	var mean float32
	for _, v := range src {
		mean += v
	}
	mean /= n
	var variance float32
	for _, v := range src {
		d := v - mean
		variance += d * d
	}
	variance /= n
	inv := float32(1.0 / math.Sqrt(float64(variance+eps)))
	for i := range src {
		dst[i] = (src[i]-mean)*inv*weight[i] + bias[i]
	}
}

// Softmax applies the softmax function to x. Entries equal to -Inf receive
// zero probability; if every entry is -Inf the result is all zeros.
func Softmax(x []float32) {
	if len(x) == 0 {
		return
	}
	maxv := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > maxv {
			maxv = x[i]
		}
	}
	if math.IsInf(float64(maxv), -1) {
		clear(x)
		return
	}
	var sum float64
	for i := range x {
		v := math.Exp(float64(x[i] - maxv))
		x[i] = float32(v)
		sum += v
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / sum)
	for i := range x {
		x[i] *= inv
	}
}

// Relu clamps negative entries of x to zero in place.
func Relu(x []float32) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
}

// Argmax returns the index of the largest value; ties resolve to the lowest index.
func Argmax(x []float32) int {
	best := 0
	for i := 1; i < len(x); i++ {
		if x[i] > x[best] {
			best = i
		}
	}
	return best
}
