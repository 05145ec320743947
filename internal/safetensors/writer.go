package safetensors

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/goccy/go-json"
)

// Tensor is a named float32 tensor to be written.
type Tensor struct {
	Name  string
	Shape []int
	Data  []float32
}

// Write encodes tensors as F32 in the order given. metadata may be nil.
func Write(w io.Writer, tensors []Tensor, metadata map[string]string) error {
	header := make(map[string]any, len(tensors)+1)
	if len(metadata) > 0 {
		header["__metadata__"] = metadata
	}
	var off int64
	for _, t := range tensors {
		n, err := numElements(t.Shape)
		if err != nil {
			return fmt.Errorf("tensor %s: %w", t.Name, err)
		}
		if n != len(t.Data) {
			return fmt.Errorf("tensor %s: shape %v holds %d values, got %d", t.Name, t.Shape, n, len(t.Data))
		}
		if _, dup := header[t.Name]; dup {
			return fmt.Errorf("duplicate tensor name %s", t.Name)
		}
		size := int64(n) * 4
		header[t.Name] = tensorHeader{DType: "F32", Shape: t.Shape, DataOffsets: []int64{off, off + size}}
		off += size
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return err
	}
	// Pad the header with spaces so the data section is 8-byte aligned.
	for len(headerBytes)%8 != 0 {
		headerBytes = append(headerBytes, ' ')
	}

	bw := bufio.NewWriter(w)
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(headerBytes)))
	if _, err := bw.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := bw.Write(headerBytes); err != nil {
		return err
	}
	var buf [4]byte
	for _, t := range tensors {
		for _, v := range t.Data {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
			if _, err := bw.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteFile writes tensors to path, replacing any existing file.
func WriteFile(path string, tensors []Tensor, metadata map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, tensors, metadata); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
