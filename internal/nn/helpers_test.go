package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/samcharles93/transl8/internal/tensor"
)

func fillTestData(dst []float32, scale float32) {
	for i := range dst {
		dst[i] = float32(math.Sin(float64(i+1))) * scale
	}
}

func compareSlices(t *testing.T, got, want []float32, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(want))
	}
	for i := range got {
		if d := math.Abs(float64(got[i] - want[i])); d > tol {
			t.Fatalf("mismatch at %d: got %f want %f (diff %g)", i, got[i], want[i], d)
		}
	}
}

func randomSeq(length, batch, dim int, seed int64) tensor.Seq {
	s := tensor.NewSeq(length, batch, dim)
	rng := rand.New(rand.NewSource(seed))
	for i := range s.Data {
		s.Data[i] = float32(rng.NormFloat64())
	}
	return s
}
