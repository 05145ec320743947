// cpu_features prints the CPU features the GEMM kernels dispatch on and the
// tile configuration chosen for a few representative projection shapes.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/samcharles93/transl8/internal/tensor"
)

type tileChoice struct {
	Shape [3]int            `json:"mkn"`
	Tiles tensor.GemmConfig `json:"tiles"`
}

type output struct {
	GoVersion string          `json:"go_version"`
	GoOS      string          `json:"go_os"`
	GoArch    string          `json:"go_arch"`
	CPUs      int             `json:"cpus"`
	Features  map[string]bool `json:"features"`
	Tiles     []tileChoice    `json:"tiles"`
}

func main() {
	out := output{
		GoVersion: runtime.Version(),
		GoOS:      runtime.GOOS,
		GoArch:    runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		Features:  tensor.CPUFeatures(),
	}
	// (tokens, in, out) for d_model 32 and 512 attention and feed-forward projections.
	for _, s := range [][3]int{{16, 32, 96}, {16, 32, 30}, {64, 512, 1536}, {64, 512, 2048}, {64, 2048, 512}} {
		out.Tiles = append(out.Tiles, tileChoice{Shape: s, Tiles: tensor.SelectGemmConfig(s[0], s[1], s[2])})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
