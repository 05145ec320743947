// Package safetensors reads and writes the safetensors weight format: an
// 8-byte little-endian header length, a JSON header mapping tensor names to
// dtype/shape/byte offsets, then the raw tensor bytes.
package safetensors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/goccy/go-json"
	"github.com/x448/float16"
)

// ErrCorruptFile reports a file whose framing cannot be trusted.
var ErrCorruptFile = errors.New("corrupt safetensors file")

// maxHeaderLen bounds the JSON header so a corrupt length cannot force a huge allocation.
const maxHeaderLen = 100 << 20

type TensorInfo struct {
	DType string
	Shape []int
	Start int64
	End   int64
}

// File is an opened safetensors file. When the platform allows it, the file
// is memory-mapped and tensor reads are zero-copy slices until decoded.
type File struct {
	Path      string
	DataStart int64
	Tensors   map[string]TensorInfo
	Metadata  map[string]string

	data    []byte
	mmapped bool
}

type tensorHeader struct {
	DType       string  `json:"dtype"`
	Shape       []int   `json:"shape"`
	DataOffsets []int64 `json:"data_offsets"`
}

// Open parses the header of path. The returned file must be closed to
// release any mapping.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	headerLen, err := readU64(f)
	if err != nil {
		return nil, err
	}
	if headerLen > maxHeaderLen {
		return nil, fmt.Errorf("header length %d: %w", headerLen, ErrCorruptFile)
	}
	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(f, headerBytes); err != nil {
		return nil, err
	}
	sf, err := parseHeader(headerBytes)
	if err != nil {
		return nil, err
	}
	sf.Path = path
	sf.DataStart = int64(8 + headerLen)

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := stat.Size()
	for name, t := range sf.Tensors {
		if sf.DataStart+t.End > size {
			return nil, fmt.Errorf("tensor %s extends past end of file: %w", name, ErrCorruptFile)
		}
	}

	// Prefer mmap where available; ReadAt is the fallback.
	if size > 0 && size <= int64(int(^uint(0)>>1)) {
		if data, err := mapFile(f, int(size)); err == nil {
			sf.data = data
			sf.mmapped = true
		}
	}
	return sf, nil
}

func parseHeader(headerBytes []byte) (*File, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerBytes, &raw); err != nil {
		return nil, err
	}
	sf := &File{Tensors: make(map[string]TensorInfo, len(raw))}
	if meta, ok := raw["__metadata__"]; ok {
		if err := json.Unmarshal(meta, &sf.Metadata); err != nil {
			return nil, fmt.Errorf("parse metadata: %w", err)
		}
		delete(raw, "__metadata__")
	}
	for name, msg := range raw {
		var th tensorHeader
		if err := json.Unmarshal(msg, &th); err != nil {
			return nil, fmt.Errorf("parse tensor %s: %w", name, err)
		}
		if len(th.DataOffsets) != 2 {
			return nil, fmt.Errorf("tensor %s: invalid data_offsets", name)
		}
		sf.Tensors[name] = TensorInfo{
			DType: th.DType,
			Shape: th.Shape,
			Start: th.DataOffsets[0],
			End:   th.DataOffsets[1],
		}
	}
	return sf, nil
}

// Close releases the mapping, if any.
func (f *File) Close() error {
	if f == nil || f.data == nil {
		return nil
	}
	var err error
	if f.mmapped {
		err = unmapFile(f.data)
	}
	f.data = nil
	f.mmapped = false
	return err
}

// Names returns the tensor names in sorted order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Tensors))
	for name := range f.Tensors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (f *File) Tensor(name string) (TensorInfo, bool) {
	t, ok := f.Tensors[name]
	return t, ok
}

// ReadTensor returns the raw bytes of a tensor. For mapped files the slice
// aliases the mapping and is valid until Close.
func (f *File) ReadTensor(name string) ([]byte, TensorInfo, error) {
	t, ok := f.Tensors[name]
	if !ok {
		return nil, TensorInfo{}, fmt.Errorf("tensor not found: %s", name)
	}
	if t.End < t.Start || t.Start < 0 {
		return nil, TensorInfo{}, fmt.Errorf("tensor %s: invalid offsets", name)
	}
	off := f.DataStart + t.Start
	n := t.End - t.Start
	if f.data != nil {
		return f.data[off : off+n], t, nil
	}

	buf := make([]byte, n)
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, TensorInfo{}, err
	}
	defer func() { _ = file.Close() }()
	if _, err := file.ReadAt(buf, off); err != nil {
		return nil, TensorInfo{}, fmt.Errorf("read tensor %s: %w", name, err)
	}
	return buf, t, nil
}

// ReadTensorF32 decodes an F32, F16 or BF16 tensor to float32.
func (f *File) ReadTensorF32(name string) ([]float32, TensorInfo, error) {
	raw, info, err := f.ReadTensor(name)
	if err != nil {
		return nil, TensorInfo{}, err
	}
	n, err := numElements(info.Shape)
	if err != nil {
		return nil, TensorInfo{}, fmt.Errorf("tensor %s: %w", name, err)
	}
	switch info.DType {
	case "F32":
		if len(raw) != n*4 {
			return nil, TensorInfo{}, fmt.Errorf("tensor %s: invalid f32 data size", name)
		}
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		return out, info, nil
	case "BF16":
		if len(raw) != n*2 {
			return nil, TensorInfo{}, fmt.Errorf("tensor %s: invalid bf16 data size", name)
		}
		out := make([]float32, n)
		for i := range out {
			out[i] = bf16ToF32(binary.LittleEndian.Uint16(raw[i*2:]))
		}
		return out, info, nil
	case "F16":
		if len(raw) != n*2 {
			return nil, TensorInfo{}, fmt.Errorf("tensor %s: invalid f16 data size", name)
		}
		out := make([]float32, n)
		for i := range out {
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(raw[i*2:])).Float32()
		}
		return out, info, nil
	default:
		return nil, TensorInfo{}, fmt.Errorf("unsupported dtype %s", info.DType)
	}
}

func numElements(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, fmt.Errorf("empty shape")
	}
	n := 1
	for _, d := range shape {
		if d <= 0 {
			return 0, fmt.Errorf("invalid dim %d", d)
		}
		if n > (int(^uint(0)>>1))/d {
			return 0, fmt.Errorf("tensor too large")
		}
		n *= d
	}
	return n, nil
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func bf16ToF32(u uint16) float32 {
	return math.Float32frombits(uint32(u) << 16)
}
