package nn

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/samcharles93/transl8/internal/tensor"
)

func TestTokenEmbeddingScalesBySqrtDim(t *testing.T) {
	t.Parallel()
	const dim = 16
	e := NewTokenEmbedding(10, dim, rand.New(rand.NewSource(1)))
	tokens, err := tensor.TokensFromRows([][]int{{3, 7}, {7, 3}})
	if err != nil {
		t.Fatalf("TokensFromRows: %v", err)
	}
	out, err := e.Forward(tokens)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if got := out.Shape(); got[0] != 2 || got[1] != 2 || got[2] != dim {
		t.Fatalf("shape = %v, want [2 2 %d]", got, dim)
	}
	want := make([]float32, dim)
	for i, v := range e.Table.Row(7) {
		want[i] = v * float32(math.Sqrt(dim))
	}
	// position 1 of batch 0 holds id 7
	compareSlices(t, out.Vec(1, 0), want, 1e-6)
}

func TestTokenEmbeddingDistinctIDsDiffer(t *testing.T) {
	t.Parallel()
	e := NewTokenEmbedding(10, 8, rand.New(rand.NewSource(2)))
	tokens, _ := tensor.TokensFromRows([][]int{{4}, {5}, {4}})
	out, err := e.Forward(tokens)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	same := true
	for i, v := range out.Vec(0, 0) {
		if v != out.Vec(0, 1)[i] {
			same = false
		}
	}
	if same {
		t.Fatal("different ids produced identical embeddings")
	}
	compareSlices(t, out.Vec(0, 0), out.Vec(0, 2), 0)
}

func TestTokenEmbeddingRejectsOutOfRange(t *testing.T) {
	t.Parallel()
	e := NewTokenEmbedding(5, 4, rand.New(rand.NewSource(3)))
	for _, id := range []int{-1, 5, 100} {
		tokens, _ := tensor.TokensFromRows([][]int{{0, id}})
		if _, err := e.Forward(tokens); !errors.Is(err, tensor.ErrTokenOutOfRange) {
			t.Fatalf("id %d: expected ErrTokenOutOfRange, got %v", id, err)
		}
	}
}
