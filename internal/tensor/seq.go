package tensor

import "fmt"

// Seq is a dense (Len, Batch, Dim) tensor laid out position-major: the vector
// for position t of batch element b starts at (t*Batch+b)*Dim. Embeddings,
// encoder memory, decoder states and logits all use this layout.
type Seq struct {
	Len, Batch, Dim int
	Data            []float32
}

// NewSeq allocates a zeroed sequence tensor.
func NewSeq(length, batch, dim int) Seq {
	if length < 0 || batch < 0 || dim < 0 {
		panic("negative dimension for sequence")
	}
	return Seq{
		Len:   length,
		Batch: batch,
		Dim:   dim,
		Data:  make([]float32, length*batch*dim),
	}
}

// Vec returns the dim-sized vector at position t for batch element b.
// The slice aliases the tensor storage.
func (s *Seq) Vec(t, b int) []float32 {
	if t < 0 || t >= s.Len || b < 0 || b >= s.Batch {
		panic("sequence index out of range")
	}
	off := (t*s.Batch + b) * s.Dim
	return s.Data[off : off+s.Dim]
}

// Mat views the sequence as a (Len*Batch) x Dim matrix sharing storage.
func (s *Seq) Mat() Mat {
	return Mat{R: s.Len * s.Batch, C: s.Dim, Stride: s.Dim, Data: s.Data}
}

// Shape returns [Len, Batch, Dim].
func (s *Seq) Shape() []int {
	return []int{s.Len, s.Batch, s.Dim}
}

// Clone returns a deep copy of s.
func (s *Seq) Clone() Seq {
	out := Seq{Len: s.Len, Batch: s.Batch, Dim: s.Dim, Data: make([]float32, len(s.Data))}
	copy(out.Data, s.Data)
	return out
}

// Slice returns a copy of positions [from, to).
func (s *Seq) Slice(from, to int) (Seq, error) {
	if from < 0 || to > s.Len || from > to {
		return Seq{}, fmt.Errorf("slice [%d,%d) of length %d: %w", from, to, s.Len, ErrShapeMismatch)
	}
	row := s.Batch * s.Dim
	out := NewSeq(to-from, s.Batch, s.Dim)
	copy(out.Data, s.Data[from*row:to*row])
	return out, nil
}

// Tokens is a (Len, Batch) matrix of token ids laid out position-major.
type Tokens struct {
	Len, Batch int
	IDs        []int
}

// NewTokens allocates a zeroed token matrix.
func NewTokens(length, batch int) Tokens {
	if length < 0 || batch < 0 {
		panic("negative dimension for tokens")
	}
	return Tokens{Len: length, Batch: batch, IDs: make([]int, length*batch)}
}

// TokensFromRows builds a position-major token matrix from batch-major rows.
// Every row must have the same length.
func TokensFromRows(rows [][]int) (Tokens, error) {
	if len(rows) == 0 {
		return Tokens{}, fmt.Errorf("empty batch: %w", ErrShapeMismatch)
	}
	length := len(rows[0])
	out := NewTokens(length, len(rows))
	for b, row := range rows {
		if len(row) != length {
			return Tokens{}, fmt.Errorf("row %d has %d tokens, want %d: %w", b, len(row), length, ErrShapeMismatch)
		}
		for t, id := range row {
			out.Set(t, b, id)
		}
	}
	return out, nil
}

// At returns the id at position t for batch element b.
func (tk *Tokens) At(t, b int) int {
	return tk.IDs[t*tk.Batch+b]
}

// Set stores id at position t for batch element b.
func (tk *Tokens) Set(t, b, id int) {
	tk.IDs[t*tk.Batch+b] = id
}

// Rows converts back to batch-major rows.
func (tk *Tokens) Rows() [][]int {
	rows := make([][]int, tk.Batch)
	for b := range rows {
		rows[b] = make([]int, tk.Len)
		for t := 0; t < tk.Len; t++ {
			rows[b][t] = tk.At(t, b)
		}
	}
	return rows
}

// Append returns a new token matrix with one extra position holding ids.
func (tk *Tokens) Append(ids []int) Tokens {
	if len(ids) != tk.Batch {
		panic("appended ids must match batch size")
	}
	out := NewTokens(tk.Len+1, tk.Batch)
	copy(out.IDs, tk.IDs)
	copy(out.IDs[tk.Len*tk.Batch:], ids)
	return out
}

// PaddingMask is a (Batch, Len) boolean matrix. Pad[b*Len+t] is true when
// position t of batch element b is padding and must be ignored as an
// attention key.
type PaddingMask struct {
	Batch, Len int
	Pad        []bool
}

// NewPaddingMask builds a mask from batch-major rows.
func NewPaddingMask(rows [][]bool) (PaddingMask, error) {
	if len(rows) == 0 {
		return PaddingMask{}, fmt.Errorf("empty padding mask: %w", ErrShapeMismatch)
	}
	length := len(rows[0])
	out := PaddingMask{Batch: len(rows), Len: length, Pad: make([]bool, len(rows)*length)}
	for b, row := range rows {
		if len(row) != length {
			return PaddingMask{}, fmt.Errorf("padding row %d has %d entries, want %d: %w", b, len(row), length, ErrShapeMismatch)
		}
		copy(out.Pad[b*length:], row)
	}
	return out, nil
}

// PaddingFromTokens marks every position whose id equals padID.
func PaddingFromTokens(tk Tokens, padID int) PaddingMask {
	out := PaddingMask{Batch: tk.Batch, Len: tk.Len, Pad: make([]bool, tk.Batch*tk.Len)}
	for b := 0; b < tk.Batch; b++ {
		for t := 0; t < tk.Len; t++ {
			out.Pad[b*tk.Len+t] = tk.At(t, b) == padID
		}
	}
	return out
}

// IsPad reports whether position t of batch element b is padding.
func (p *PaddingMask) IsPad(b, t int) bool {
	return p.Pad[b*p.Len+t]
}

// Check verifies the mask matches a (batch, length) key sequence.
func (p *PaddingMask) Check(batch, length int) error {
	if p.Batch != batch || p.Len != length || len(p.Pad) != batch*length {
		return fmt.Errorf("padding mask %dx%d, want %dx%d: %w", p.Batch, p.Len, batch, length, ErrShapeMismatch)
	}
	return nil
}
