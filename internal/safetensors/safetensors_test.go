package safetensors

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/goccy/go-json"
)

// writeRaw creates a safetensors file from an arbitrary header and payload.
func writeRaw(t *testing.T, path string, header map[string]any, payload []byte) {
	t.Helper()
	headerBytes, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	var buf bytes.Buffer
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(headerBytes)))
	buf.Write(lenBuf[:])
	buf.Write(headerBytes)
	buf.Write(payload)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func openT(t *testing.T, path string) *File {
	t.Helper()
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestWriteThenRead(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "weights.safetensors")
	tensors := []Tensor{
		{Name: "b.bias", Shape: []int{3}, Data: []float32{0.5, -1, 2}},
		{Name: "a.weight", Shape: []int{2, 2}, Data: []float32{1, 2, 3, 4}},
	}
	if err := WriteFile(path, tensors, map[string]string{"format": "pt"}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f := openT(t, path)
	if got := f.Names(); !reflect.DeepEqual(got, []string{"a.weight", "b.bias"}) {
		t.Fatalf("Names = %v", got)
	}
	if f.Metadata["format"] != "pt" {
		t.Fatalf("metadata = %v", f.Metadata)
	}
	if f.DataStart%8 != 0 {
		t.Fatalf("data section not aligned: %d", f.DataStart)
	}
	for _, want := range tensors {
		got, info, err := f.ReadTensorF32(want.Name)
		if err != nil {
			t.Fatalf("ReadTensorF32(%s): %v", want.Name, err)
		}
		if info.DType != "F32" || !reflect.DeepEqual(info.Shape, want.Shape) {
			t.Fatalf("%s info = %+v", want.Name, info)
		}
		if !reflect.DeepEqual(got, want.Data) {
			t.Fatalf("%s data = %v, want %v", want.Name, got, want.Data)
		}
	}
}

func TestWriteRejectsBadTensors(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := Write(&buf, []Tensor{{Name: "x", Shape: []int{3}, Data: []float32{1}}}, nil); err == nil {
		t.Fatal("expected error for shape/data mismatch")
	}
	dup := []Tensor{{Name: "x", Shape: []int{1}, Data: []float32{1}}, {Name: "x", Shape: []int{1}, Data: []float32{2}}}
	if err := Write(&buf, dup, nil); err == nil {
		t.Fatal("expected error for duplicate names")
	}
}

func TestOpenNonexistentFile(t *testing.T) {
	t.Parallel()
	if _, err := Open("/nonexistent/file.safetensors"); err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestOpenTruncatedFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "truncated.safetensors")
	if err := os.WriteFile(path, []byte{0, 0, 0, 0}, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for truncated file")
	}
}

func TestOpenRejectsHugeHeader(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "huge.safetensors")
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], math.MaxUint32*4)
	if err := os.WriteFile(path, lenBuf[:], 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := Open(path); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("expected ErrCorruptFile, got %v", err)
	}
}

func TestOpenInvalidJSON(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "invalid.safetensors")
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], 12)
	if err := os.WriteFile(path, append(lenBuf[:], []byte("not valid js")...), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for invalid JSON header")
	}
}

func TestInvalidDataOffsets(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad_offsets.safetensors")
	writeRaw(t, path, map[string]any{
		"bad_tensor": map[string]any{"dtype": "F32", "shape": []int{1}, "data_offsets": []int64{0}},
	}, nil)
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for invalid data_offsets")
	}
}

func TestTensorPastEndOfFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "short.safetensors")
	writeRaw(t, path, map[string]any{
		"w": map[string]any{"dtype": "F32", "shape": []int{4}, "data_offsets": []int64{0, 16}},
	}, make([]byte, 8))
	if _, err := Open(path); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("expected ErrCorruptFile, got %v", err)
	}
}

func TestReadTensorHalfPrecision(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "half.safetensors")
	payload := make([]byte, 6)
	binary.LittleEndian.PutUint16(payload[0:], 0x3F80) // bf16 1.0
	binary.LittleEndian.PutUint16(payload[2:], 0x4000) // bf16 2.0
	binary.LittleEndian.PutUint16(payload[4:], 0x3C00) // f16 1.0
	writeRaw(t, path, map[string]any{
		"bf": map[string]any{"dtype": "BF16", "shape": []int{2}, "data_offsets": []int64{0, 4}},
		"hf": map[string]any{"dtype": "F16", "shape": []int{1}, "data_offsets": []int64{4, 6}},
		"i8": map[string]any{"dtype": "I8", "shape": []int{1}, "data_offsets": []int64{5, 6}},
	}, payload)

	f := openT(t, path)
	bf, _, err := f.ReadTensorF32("bf")
	if err != nil || !reflect.DeepEqual(bf, []float32{1, 2}) {
		t.Fatalf("bf16 = %v, %v", bf, err)
	}
	hf, _, err := f.ReadTensorF32("hf")
	if err != nil || !reflect.DeepEqual(hf, []float32{1}) {
		t.Fatalf("f16 = %v, %v", hf, err)
	}
	if _, _, err := f.ReadTensorF32("i8"); err == nil {
		t.Fatal("expected error for unsupported dtype")
	}
	if _, _, err := f.ReadTensorF32("missing"); err == nil {
		t.Fatal("expected error for missing tensor")
	}
}

func TestReadWithoutMapping(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "plain.safetensors")
	if err := WriteFile(path, []Tensor{{Name: "w", Shape: []int{2}, Data: []float32{7, 8}}}, nil); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f := openT(t, path)
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// After Close the reader falls back to ReadAt.
	got, _, err := f.ReadTensorF32("w")
	if err != nil || !reflect.DeepEqual(got, []float32{7, 8}) {
		t.Fatalf("ReadTensorF32 after Close = %v, %v", got, err)
	}
}

func TestNumElements(t *testing.T) {
	t.Parallel()
	tests := []struct {
		shape    []int
		expected int
		wantErr  bool
	}{
		{[]int{2, 3}, 6, false},
		{[]int{1}, 1, false},
		{[]int{4, 5, 6}, 120, false},
		{[]int{}, 0, true},
		{[]int{0}, 0, true},
		{[]int{2, -1}, 0, true},
	}
	for _, tc := range tests {
		n, err := numElements(tc.shape)
		if tc.wantErr {
			if err == nil {
				t.Errorf("numElements(%v): expected error", tc.shape)
			}
			continue
		}
		if err != nil || n != tc.expected {
			t.Errorf("numElements(%v) = %d, %v; want %d", tc.shape, n, err, tc.expected)
		}
	}
}

func TestReadTensorF16Values(t *testing.T) {
	t.Parallel()
	tests := []struct {
		bits uint16
		want float32
	}{
		{0x3C00, 1.0},
		{0xBC00, -1.0},
		{0x0000, 0.0},
		{0x0001, float32(math.Ldexp(1, -24))}, // smallest subnormal
		{0x7C00, float32(math.Inf(1))},
	}
	payload := make([]byte, 2*len(tests))
	for i, tc := range tests {
		binary.LittleEndian.PutUint16(payload[2*i:], tc.bits)
	}
	path := filepath.Join(t.TempDir(), "f16.safetensors")
	writeRaw(t, path, map[string]any{
		"h": map[string]any{"dtype": "F16", "shape": []int{len(tests)}, "data_offsets": []int64{0, int64(len(payload))}},
	}, payload)

	got, _, err := openT(t, path).ReadTensorF32("h")
	if err != nil {
		t.Fatalf("ReadTensorF32: %v", err)
	}
	for i, tc := range tests {
		if got[i] != tc.want {
			t.Errorf("f16 0x%04X = %g, want %g", tc.bits, got[i], tc.want)
		}
	}
}
