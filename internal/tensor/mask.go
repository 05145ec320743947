package tensor

import (
	"fmt"
	"math"
)

// NegInf is the additive mask value that forbids attention to a key.
var NegInf = float32(math.Inf(-1))

// CausalMask returns an n x n additive mask where row i may attend to
// columns j <= i. Entries above the diagonal are -Inf, the rest zero.
func CausalMask(n int) Mat {
	m := NewMat(n, n)
	for i := 0; i < n; i++ {
		row := m.Row(i)
		for j := i + 1; j < n; j++ {
			row[j] = NegInf
		}
	}
	return m
}

// CheckAttnMask verifies an additive attention mask covers l queries and s keys.
func CheckAttnMask(m *Mat, l, s int) error {
	if m.R != l || m.C != s {
		return fmt.Errorf("attention mask %dx%d, want %dx%d: %w", m.R, m.C, l, s, ErrShapeMismatch)
	}
	return nil
}
