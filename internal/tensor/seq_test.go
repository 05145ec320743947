package tensor

import (
	"errors"
	"reflect"
	"testing"
)

func TestTokensFromRowsTransposes(t *testing.T) {
	t.Parallel()
	rows := [][]int{
		{4, 3, 2, 6, 0},
		{5, 7, 8, 2, 4},
	}
	tk, err := TokensFromRows(rows)
	if err != nil {
		t.Fatalf("TokensFromRows: %v", err)
	}
	if tk.Len != 5 || tk.Batch != 2 {
		t.Fatalf("shape = (%d,%d), want (5,2)", tk.Len, tk.Batch)
	}
	if tk.At(1, 0) != 3 || tk.At(1, 1) != 7 {
		t.Fatalf("unexpected layout: %v", tk.IDs)
	}
	if !reflect.DeepEqual(tk.Rows(), rows) {
		t.Fatalf("Rows() = %v, want %v", tk.Rows(), rows)
	}
}

func TestTokensFromRowsRagged(t *testing.T) {
	t.Parallel()
	_, err := TokensFromRows([][]int{{1, 2}, {3}})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}
	if _, err := TokensFromRows(nil); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch for empty batch, got %v", err)
	}
}

func TestTokensAppend(t *testing.T) {
	t.Parallel()
	p, _ := TokensFromRows([][]int{{1, 2}, {4, 5}})
	a := p.Append([]int{9, 8})
	if !reflect.DeepEqual(a.Rows(), [][]int{{1, 2, 9}, {4, 5, 8}}) {
		t.Fatalf("Append rows = %v", a.Rows())
	}
	if !reflect.DeepEqual(p.Rows(), [][]int{{1, 2}, {4, 5}}) {
		t.Fatal("Append mutated the receiver")
	}
}

func TestSeqVecAndMatShareStorage(t *testing.T) {
	t.Parallel()
	s := NewSeq(3, 2, 4)
	v := s.Vec(2, 1)
	v[3] = 7
	m := s.Mat()
	if m.R != 6 || m.C != 4 {
		t.Fatalf("Mat shape = %v", m.Shape())
	}
	if m.At(2*2+1, 3) != 7 {
		t.Fatal("Mat view does not alias Vec storage")
	}
	sl, err := s.Slice(2, 3)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if sl.Len != 1 || sl.Vec(0, 1)[3] != 7 {
		t.Fatalf("Slice copied wrong positions: %+v", sl)
	}
	if _, err := s.Slice(2, 5); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}
}

func TestPaddingMask(t *testing.T) {
	t.Parallel()
	tk, _ := TokensFromRows([][]int{{4, 3, 0, 0}, {5, 7, 8, 0}})
	pm := PaddingFromTokens(tk, 0)
	want, err := NewPaddingMask([][]bool{{false, false, true, true}, {false, false, false, true}})
	if err != nil {
		t.Fatalf("NewPaddingMask: %v", err)
	}
	if !reflect.DeepEqual(pm, want) {
		t.Fatalf("PaddingFromTokens = %+v, want %+v", pm, want)
	}
	if !pm.IsPad(0, 2) || pm.IsPad(1, 2) {
		t.Fatal("IsPad reports wrong positions")
	}
	if err := pm.Check(2, 4); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if err := pm.Check(2, 5); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}
}
