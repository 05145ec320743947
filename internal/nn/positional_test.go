package nn

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/samcharles93/transl8/internal/tensor"
)

func TestPositionalTableValues(t *testing.T) {
	t.Parallel()
	const dim = 6
	pe := NewPositionalEncoding(dim, 10, 0, nil, rand.New(rand.NewSource(1)))
	for pos := 0; pos < 10; pos++ {
		row := pe.Table.Row(pos)
		for i := 0; i < dim; i += 2 {
			angle := float64(pos) / math.Pow(10000, float64(i)/dim)
			if d := math.Abs(float64(row[i]) - math.Sin(angle)); d > 1e-5 {
				t.Fatalf("PE[%d,%d]=%f want sin %f", pos, i, row[i], math.Sin(angle))
			}
			if d := math.Abs(float64(row[i+1]) - math.Cos(angle)); d > 1e-5 {
				t.Fatalf("PE[%d,%d]=%f want cos %f", pos, i+1, row[i+1], math.Cos(angle))
			}
		}
	}
}

func TestPositionalEncodingIsAdditive(t *testing.T) {
	t.Parallel()
	pe := NewPositionalEncoding(8, 16, 0.5, NewMode(), rand.New(rand.NewSource(1)))
	x := randomSeq(5, 3, 8, 42)
	orig := x.Clone()
	if err := pe.Forward(&x); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	for pos := 0; pos < 5; pos++ {
		for b := 0; b < 3; b++ {
			want := append([]float32(nil), orig.Vec(pos, b)...)
			tensor.Add(want, pe.Table.Row(pos))
			compareSlices(t, x.Vec(pos, b), want, 1e-6)
		}
	}
}

func TestPositionalEncodingIsOrderSensitive(t *testing.T) {
	t.Parallel()
	pe := NewPositionalEncoding(8, 16, 0, nil, rand.New(rand.NewSource(1)))
	x := randomSeq(2, 1, 8, 7)
	swapped := tensor.NewSeq(2, 1, 8)
	copy(swapped.Vec(0, 0), x.Vec(1, 0))
	copy(swapped.Vec(1, 0), x.Vec(0, 0))

	if err := pe.Forward(&x); err != nil {
		t.Fatal(err)
	}
	if err := pe.Forward(&swapped); err != nil {
		t.Fatal(err)
	}
	// Encoding then un-permuting must not recover the original encoding.
	differs := false
	for i, v := range x.Vec(0, 0) {
		if v != swapped.Vec(1, 0)[i] {
			differs = true
		}
	}
	if !differs {
		t.Fatal("positional encoding commuted with reordering")
	}
}

func TestPositionalEncodingRejectsLongSequences(t *testing.T) {
	t.Parallel()
	pe := NewPositionalEncoding(4, 3, 0, nil, rand.New(rand.NewSource(1)))
	x := tensor.NewSeq(4, 1, 4)
	if err := pe.Forward(&x); !errors.Is(err, tensor.ErrSequenceTooLong) {
		t.Fatalf("expected ErrSequenceTooLong, got %v", err)
	}
	y := tensor.NewSeq(2, 1, 5)
	if err := pe.Forward(&y); !errors.Is(err, tensor.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestPositionalEncodingDefaultMaxLen(t *testing.T) {
	t.Parallel()
	pe := NewPositionalEncoding(2, 0, 0, nil, rand.New(rand.NewSource(1)))
	if pe.MaxLen != DefaultMaxLen {
		t.Fatalf("MaxLen = %d, want %d", pe.MaxLen, DefaultMaxLen)
	}
}
